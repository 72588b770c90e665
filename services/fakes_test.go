package services

import (
	"context"
	"sync"

	"github.com/lborres/abaccess/adapters/memory"
	"github.com/lborres/abaccess/core"
)

// FakeAccountStorage wraps the in-memory store and exposes error fields for
// behavior injection.
type FakeAccountStorage struct {
	*memory.Storage

	mu        sync.Mutex
	lookupErr error
	createErr error
	updateErr error
	creates   int
}

func NewFakeAccountStorage() *FakeAccountStorage {
	return &FakeAccountStorage{Storage: memory.New(nil)}
}

func (f *FakeAccountStorage) GetAccountByPhone(ctx context.Context, phone string) (*core.Account, error) {
	f.mu.Lock()
	err := f.lookupErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Storage.GetAccountByPhone(ctx, phone)
}

func (f *FakeAccountStorage) CreateAccount(ctx context.Context, a *core.Account) error {
	f.mu.Lock()
	f.creates++
	err := f.createErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Storage.CreateAccount(ctx, a)
}

func (f *FakeAccountStorage) UpdatePinHash(ctx context.Context, id, pinHash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.Storage.UpdatePinHash(ctx, id, pinHash)
}

// scriptedMemberIDs returns ids in order, repeating the last one.
type scriptedMemberIDs struct {
	ids []string
	n   int
}

func (s *scriptedMemberIDs) Generate() (string, error) {
	id := s.ids[len(s.ids)-1]
	if s.n < len(s.ids) {
		id = s.ids[s.n]
	}
	s.n++
	return id, nil
}
