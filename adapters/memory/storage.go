// Package memory provides an in-process implementation of the storage ports.
// It is used by tests, local development and the CLI's offline mode.
package memory

import (
	"context"
	"sync"

	"github.com/lborres/abaccess/core"
)

// Storage keeps accounts and sessions in maps guarded by a single lock.
type Storage struct {
	mu    sync.RWMutex
	clock core.Clock

	accounts      map[string]*core.Account
	phoneIndex    map[string]string
	memberIDIndex map[string]string
	sessions      map[string]*core.Session // keyed by token hash
}

var _ core.StorageAdapter = (*Storage)(nil)

// New creates an empty store. A nil clock uses the system clock.
func New(clock core.Clock) *Storage {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Storage{
		clock:         clock,
		accounts:      make(map[string]*core.Account),
		phoneIndex:    make(map[string]string),
		memberIDIndex: make(map[string]string),
		sessions:      make(map[string]*core.Session),
	}
}

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, a *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.phoneIndex[a.Phone]; taken {
		return core.ErrPhoneExists
	}
	if _, taken := s.memberIDIndex[a.MemberID]; taken {
		return core.ErrMemberIDExists
	}

	stored := *a
	s.accounts[a.ID] = &stored
	s.phoneIndex[a.Phone] = a.ID
	s.memberIDIndex[a.MemberID] = a.ID
	return nil
}

func (s *Storage) GetAccountByID(ctx context.Context, id string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	out := *a
	return &out, nil
}

func (s *Storage) GetAccountByPhone(ctx context.Context, phone string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.phoneIndex[phone]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	out := *s.accounts[id]
	return &out, nil
}

func (s *Storage) UpdatePinHash(ctx context.Context, id, pinHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}
	a.PinHash = pinHash
	a.UpdatedAt = s.clock.Now()
	return nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	s.sessions[session.TokenHash] = &stored
	return nil
}

func (s *Storage) GetSessionByHash(ctx context.Context, tokenHash string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[tokenHash]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	out := *session
	return &out, nil
}

func (s *Storage) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[tokenHash]; !ok {
		return core.ErrSessionNotFound
	}
	delete(s.sessions, tokenHash)
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	count := 0
	for hash, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, hash)
			count++
		}
	}
	return count, nil
}

// SessionCount returns the number of stored sessions.
func (s *Storage) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
