package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/gofiber/fiber/v3/middleware/static"

	"github.com/lborres/abaccess"
	fiberadapter "github.com/lborres/abaccess/adapters/fiber"
	"github.com/lborres/abaccess/adapters/memory"
	pgxadapter "github.com/lborres/abaccess/adapters/pgx"
	redisadapter "github.com/lborres/abaccess/adapters/redis"
	"github.com/lborres/abaccess/config"
	"github.com/lborres/abaccess/core"
	"github.com/lborres/abaccess/pkg/cache"
	"github.com/lborres/abaccess/pkg/crypto"
)

// accessLogFormat never includes bodies or the Authorization header.
const accessLogFormat = "${time}|${requestid}|${status}|${latency}|${ip}|${method}|${path}|${error}\n"

type server struct {
	app           *fiber.App
	access        *abaccess.AbAccess
	logger        *slog.Logger
	addr          string
	purgeInterval time.Duration
	closers       []func()
}

// newServer wires storage, the auth instance and the HTTP app from cfg.
func newServer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*server, error) {
	s := &server{
		logger:        log,
		addr:          cfg.Server.Address(),
		purgeInterval: cfg.Session.PurgeInterval,
	}

	accounts, sessions, err := s.openStorage(ctx, cfg)
	if err != nil {
		s.close()
		return nil, err
	}

	secret := cfg.Session.Secret
	if secret == "" && !cfg.Server.Production() {
		pair, err := crypto.GenerateHashedToken()
		if err != nil {
			s.close()
			return nil, err
		}
		secret = pair.Token
		log.Warn("no session secret configured, cookies will not survive a restart")
	}

	app := fiber.New(fiber.Config{AppName: "abaccess"})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format:     accessLogFormat,
		TimeFormat: time.RFC3339,
	}))

	adapter := fiberadapter.New(app)

	var sessionCache core.Cache
	if !cfg.Session.DisableCache {
		sessionCache = cache.NewInMemoryCache(core.CacheConfig{
			TTL:     cfg.Session.CacheTTL,
			MaxSize: cfg.Session.CacheSize,
		})
	}

	access, err := abaccess.New(abaccess.Config{
		Secret:       secret,
		Accounts:     accounts,
		Sessions:     sessions,
		HTTP:         adapter,
		Cache:        sessionCache,
		DisableCache: cfg.Session.DisableCache,
		Session:      abaccess.SessionConfig{MaxAge: cfg.Session.MaxAge},
		Hasher: &crypto.Argon2{
			Memory:      cfg.Security.Argon2Memory,
			Iterations:  cfg.Security.Argon2Iterations,
			Parallelism: cfg.Security.Argon2Parallelism,
			SaltLength:  crypto.DefaultArgon2SaltLength,
			KeyLength:   crypto.DefaultArgon2KeyLength,
		},
		Cookie: abaccess.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Server.Production(),
			MaxAge: cfg.Session.CookieMaxAge,
		},
		BasePath: cfg.Server.BasePath,
		Logger:   log,
	})
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to create auth instance: %w", err)
	}

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	// Application API routes behind the session check
	app.Get("/api/me", adapter.RequireSession(), func(c fiber.Ctx) error {
		account, _ := fiberadapter.AccountFromContext(c)
		session, _ := fiberadapter.SessionFromContext(c)
		return c.JSON(core.SessionData{Account: account, Session: session})
	})

	app.Use(adapter.PageGuard())
	if cfg.Server.StaticDir != "" {
		app.Use(static.New(cfg.Server.StaticDir))
	}

	s.app = app
	s.access = access
	return s, nil
}

func (s *server) openStorage(ctx context.Context, cfg *config.Config) (core.AccountStorage, core.SessionStorage, error) {
	var (
		accounts core.AccountStorage
		sessions core.SessionStorage
	)

	if cfg.Database.URL != "" {
		pool, err := pgxadapter.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		s.closers = append(s.closers, pool.Close)

		store := pgxadapter.New(pool)
		if cfg.Database.Migrate {
			if err := store.Migrate(ctx); err != nil {
				return nil, nil, err
			}
		}
		accounts, sessions = store, store
		s.logger.Info("using postgres storage")
	} else {
		store := memory.New(nil)
		accounts, sessions = store, store
		s.logger.Warn("no database configured, accounts are kept in memory")
	}

	if cfg.Redis.Enabled {
		redisCfg := redisadapter.DefaultConfig()
		redisCfg.URL = cfg.Redis.URL
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns

		store, err := redisadapter.New(redisCfg, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.closers = append(s.closers, func() { _ = store.Close() })
		sessions = store
		s.logger.Info("using redis session storage")
	}

	return accounts, sessions, nil
}

// purgeLoop removes expired sessions until ctx is done.
func (s *server) purgeLoop(ctx context.Context) {
	if s.purgeInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.access.Sessions.PurgeExpired(ctx)
			if err != nil {
				s.logger.Warn("session purge failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				s.logger.Info("purged expired sessions", slog.Int("count", n))
			}
		}
	}
}

// serve runs the app on ln until ctx is cancelled, then shuts down within timeout.
func (s *server) serve(ctx context.Context, ln net.Listener, timeout time.Duration) error {
	go s.purgeLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	s.logger.Info("server started", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		if err := s.app.ShutdownWithTimeout(timeout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

func (s *server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
