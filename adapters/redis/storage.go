// Package redis stores sessions in Redis. Each session is a single key that
// expires with the session, so Redis does most of the purging on its own.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lborres/abaccess/core"
)

// minTTL keeps already-expired sessions readable long enough for the
// session manager to reject them as expired rather than unknown.
const minTTL = time.Second

// Storage is a Redis-backed implementation of core.SessionStorage
type Storage struct {
	client *redis.Client
	clock  core.Clock
}

var _ core.SessionStorage = (*Storage)(nil)

// New connects to Redis and verifies the connection
func New(cfg Config, clock core.Clock) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, clock), nil
}

// NewWithClient creates a Redis storage with an existing client
func NewWithClient(client *redis.Client, clock core.Clock) *Storage {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Storage{
		client: client,
		clock:  clock,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// sessionRecord is the stored form of a session. core.Session hides the
// token hash from JSON.
type sessionRecord struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	TokenHash string    `json:"token_hash"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRecord(s *core.Session) sessionRecord {
	return sessionRecord{
		ID:        s.ID,
		AccountID: s.AccountID,
		TokenHash: s.TokenHash,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r sessionRecord) session() *core.Session {
	return &core.Session{
		ID:        r.ID,
		AccountID: r.AccountID,
		TokenHash: r.TokenHash,
		IPAddress: r.IPAddress,
		UserAgent: r.UserAgent,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *Storage) ttl(session *core.Session) time.Duration {
	if session.ExpiresAt.IsZero() {
		return 0
	}
	ttl := session.ExpiresAt.Sub(s.clock.Now())
	if ttl < minTTL {
		ttl = minTTL
	}
	return ttl
}

func (s *Storage) CreateSession(ctx context.Context, session *core.Session) error {
	data, err := json.Marshal(toRecord(session))
	if err != nil {
		return err
	}

	return s.client.Set(ctx, sessionKey(session.TokenHash), data, s.ttl(session)).Err()
}

func (s *Storage) GetSessionByHash(ctx context.Context, tokenHash string) (*core.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrSessionNotFound
		}
		return nil, err
	}

	var record sessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record.session(), nil
}

func (s *Storage) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	n, err := s.client.Del(ctx, sessionKey(tokenHash)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry has passed but whose
// keys are still held by the minimum TTL or a skewed clock.
func (s *Storage) DeleteExpiredSessions(ctx context.Context) (int, error) {
	now := s.clock.Now()
	count := 0

	iter := s.client.Scan(ctx, 0, sessionKeyPattern(), 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return count, err
		}

		var record sessionRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return count, err
		}
		if !record.session().Expired(now) {
			continue
		}
		n, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return count, err
		}
		count += int(n)
	}
	if err := iter.Err(); err != nil {
		return count, err
	}
	return count, nil
}
