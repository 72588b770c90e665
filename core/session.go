package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lborres/abaccess/pkg/crypto"
)

// DefaultSessionMaxAge matches the one hour lifetime the mobile app expects.
const DefaultSessionMaxAge = time.Hour

type SessionConfig struct {
	MaxAge time.Duration
}

type SessionManager struct {
	config  SessionConfig
	storage SessionStorage
	cache   Cache // optional, can be nil if caching is disabled
	clock   Clock
	nanoid  *crypto.NanoIDGenerator
}

type CreateSessionResult struct {
	Session *Session `json:"session"`
	Token   string   `json:"token"`
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge: DefaultSessionMaxAge,
	}
}

func NewSessionManager(config SessionConfig, storage SessionStorage, cache Cache, clock Clock) *SessionManager {
	if config.MaxAge == 0 {
		config.MaxAge = DefaultSessionMaxAge
	}
	if clock == nil {
		clock = SystemClock{}
	}
	nanoid, _ := crypto.NewNanoID()
	return &SessionManager{
		config:  config,
		storage: storage,
		cache:   cache,
		clock:   clock,
		nanoid:  nanoid,
	}
}

// MaxAge returns the configured session lifetime.
func (sm *SessionManager) MaxAge() time.Duration {
	return sm.config.MaxAge
}

func (sm *SessionManager) Create(ctx context.Context, accountID string, meta RequestMeta) (*CreateSessionResult, error) {
	pair, err := crypto.GenerateHashedToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	id, err := sm.nanoid.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	now := sm.clock.Now()
	session := &Session{
		ID:        id,
		AccountID: accountID,
		TokenHash: pair.Hash,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		ExpiresAt: now.Add(sm.config.MaxAge),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := sm.storage.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// We don't fail the request if caching fails
	if sm.cache != nil {
		_ = sm.cache.Set(pair.Hash, session)
	}

	return &CreateSessionResult{Session: session, Token: pair.Token}, nil
}

func (sm *SessionManager) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	tokenHash := crypto.HashToken(token)
	now := sm.clock.Now()

	if sm.cache != nil {
		if session, err := sm.cache.Get(tokenHash); err == nil && session != nil {
			if !session.Expired(now) {
				return session, nil
			}
			_ = sm.cache.Delete(tokenHash)
		}
		// Cache miss - fall through to storage
	}

	session, err := sm.storage.GetSessionByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Expired(now) {
		_ = sm.storage.DeleteSessionByHash(ctx, tokenHash)
		return nil, ErrSessionExpired
	}

	if sm.cache != nil {
		_ = sm.cache.Set(tokenHash, session)
	}

	return session, nil
}

func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	tokenHash := crypto.HashToken(token)

	if sm.cache != nil {
		_ = sm.cache.Delete(tokenHash)
	}

	return sm.storage.DeleteSessionByHash(ctx, tokenHash)
}

// PurgeExpired removes expired sessions from storage.
func (sm *SessionManager) PurgeExpired(ctx context.Context) (int, error) {
	return sm.storage.DeleteExpiredSessions(ctx)
}
