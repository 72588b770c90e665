package abaccess

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lborres/abaccess/core"
	"github.com/lborres/abaccess/guard"
	"github.com/lborres/abaccess/pkg/cache"
	"github.com/lborres/abaccess/pkg/crypto"
	"github.com/lborres/abaccess/services"
)

// interfaces
type (
	AccountStorage = core.AccountStorage
	SessionStorage = core.SessionStorage
	StorageAdapter = core.StorageAdapter
	Cache          = core.Cache
	Clock          = core.Clock

	PinHasher         = crypto.PinHasher
	MemberIDGenerator = core.MemberIDGenerator
)

// structs
type (
	SessionConfig = core.SessionConfig
	CacheConfig   = core.CacheConfig

	Account     = core.Account
	Session     = core.Session
	SessionData = core.SessionData
	AuthResult  = core.AuthResult
	Outcome     = core.Outcome
)

const (
	defaultBasePath   = "/api/auth"
	defaultSecretLen  = 32
	DefaultCookieName = "auth-session"
	// DefaultCookieMaxAge is the browser lifetime of the session cookie.
	// The session inside it expires on its own schedule.
	DefaultCookieMaxAge = 7 * 24 * time.Hour
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache     = cache.NewInMemoryCache
	NewArgon2            = crypto.NewArgon2
	NormalizePhone       = core.NormalizePhone
	DefaultSessionConfig = core.DefaultSessionConfig
)

var (
	ErrStorageRequired = core.ErrStorageRequired
	ErrSecretRequired  = core.ErrSecretRequired
	ErrSecretTooShort  = core.ErrSecretTooShort
)

// HTTPAdapter mounts the auth endpoints on a web framework.
type HTTPAdapter interface {
	RegisterRoutes(a *AbAccess) error
}

type CookieConfig struct {
	Name   string
	Secure bool // set in production
	MaxAge time.Duration
}

type Config struct {
	// Secret signs the session cookie. At least 32 characters.
	Secret string

	Accounts AccountStorage
	// Sessions defaults to Accounts when it also stores sessions.
	Sessions SessionStorage

	HTTP HTTPAdapter // optional

	Cache        Cache
	DisableCache bool

	Session   SessionConfig
	Hasher    PinHasher
	MemberIDs MemberIDGenerator
	Rules     *guard.Rules
	Cookie    CookieConfig
	BasePath  string

	Clock  Clock
	Logger *slog.Logger
}

// AbAccess wires the authentication service, session manager, endpoint
// registry and route guard together.
type AbAccess struct {
	Auth      *services.AuthService
	Sessions  *core.SessionManager
	Endpoints *services.EndpointRegistry
	Guard     *guard.Guard

	Secret   string
	BasePath string
	Cookie   CookieConfig
	Clock    Clock
	Logger   *slog.Logger
}

func New(config Config) (*AbAccess, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Accounts == nil {
		return nil, ErrStorageRequired
	}

	sessionStorage := config.Sessions
	if sessionStorage == nil {
		s, ok := config.Accounts.(SessionStorage)
		if !ok {
			return nil, fmt.Errorf("%w: no session storage configured", ErrStorageRequired)
		}
		sessionStorage = s
	}

	// Set Defaults

	clock := config.Clock
	if clock == nil {
		clock = core.SystemClock{}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cacheAdapter := config.Cache
	if cacheAdapter == nil && !config.DisableCache {
		cacheAdapter = cache.NewInMemoryCache(CacheConfig{
			TTL:     cache.DefaultTTL,
			MaxSize: cache.DefaultMaxSize,
		})
	}
	if config.DisableCache {
		cacheAdapter = nil
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	cookie := config.Cookie
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	if cookie.MaxAge == 0 {
		cookie.MaxAge = DefaultCookieMaxAge
	}

	sessions := core.NewSessionManager(config.Session, sessionStorage, cacheAdapter, clock)

	auth := services.NewAuthService(config.Accounts, sessions, config.Hasher).
		WithClock(clock).
		WithLogger(logger)
	if config.MemberIDs != nil {
		auth.WithMemberIDGenerator(config.MemberIDs)
	}

	a := &AbAccess{
		Auth:      auth,
		Sessions:  sessions,
		Endpoints: services.NewEndpointRegistry(),
		Guard:     guard.New(config.Rules, clock),
		Secret:    config.Secret,
		BasePath:  basePath,
		Cookie:    cookie,
		Clock:     clock,
		Logger:    logger,
	}

	if config.HTTP != nil {
		if err := config.HTTP.RegisterRoutes(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}
