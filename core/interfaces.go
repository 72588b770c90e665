package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORTS (Database operations)
// ============================================

// AccountStorage defines account-related database operations.
//
// CreateAccount must enforce uniqueness of Phone and MemberID and report
// violations as ErrPhoneExists and ErrMemberIDExists respectively. Lookups
// return ErrAccountNotFound when no row matches.
type AccountStorage interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	GetAccountByPhone(ctx context.Context, phone string) (*Account, error)
	UpdatePinHash(ctx context.Context, id, pinHash string) error
}

// SessionStorage defines session-related database operations
type SessionStorage interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteSessionByHash(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

type StorageAdapter interface {
	AccountStorage
	SessionStorage
}

// ============================================
// CACHE PORT
// ============================================

// Cache defines session caching operations
type Cache interface {
	Get(tokenHash string) (*Session, error)
	Set(tokenHash string, session *Session) error
	Delete(tokenHash string) error
	Clear() error
}

// CacheWithStats extends Cache with statistics tracking
type CacheWithStats interface {
	Cache
	Stats() CacheStats
}

// CacheConfig configures cache behavior
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// ============================================
// AUTH HANDLER (for HTTP adapters)
// ============================================

// AuthHandler provides authentication operations for HTTP adapters
type AuthHandler interface {
	AccountExists(ctx context.Context, phone string) (bool, error)
	Login(ctx context.Context, input LoginInput, meta RequestMeta) (*AuthResult, error)
	Register(ctx context.Context, input RegisterInput, meta RequestMeta) (*AuthResult, error)
	SignOut(ctx context.Context, token string)
	GetSession(ctx context.Context, token string) (*SessionData, error)
}

// ============================================
// CLOCK
// ============================================

// Clock provides time operations that can be replaced in tests
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
