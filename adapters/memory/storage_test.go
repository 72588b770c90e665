package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lborres/abaccess/core"
	"github.com/lborres/abaccess/internal/mocks"
)

type StorageSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	s.storage = New(s.clock)
	s.ctx = context.Background()
}

func (s *StorageSuite) account(id, phone, memberID string) *core.Account {
	return &core.Account{ID: id, Phone: phone, MemberID: memberID, FirstName: "Amina", LastName: "Nakato", PinHash: "h"}
}

// Account tests

func (s *StorageSuite) TestCreateAndLookupAccount() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account("a1", "+256781234567", "A-000001")))

	byPhone, err := s.storage.GetAccountByPhone(s.ctx, "+256781234567")
	s.Require().NoError(err)
	s.Equal("a1", byPhone.ID)

	byID, err := s.storage.GetAccountByID(s.ctx, "a1")
	s.Require().NoError(err)
	s.Equal("A-000001", byID.MemberID)
}

func (s *StorageSuite) TestCreateAccountRejectsDuplicatePhone() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account("a1", "+256781234567", "A-000001")))

	err := s.storage.CreateAccount(s.ctx, s.account("a2", "+256781234567", "A-000002"))
	s.ErrorIs(err, core.ErrPhoneExists)
}

func (s *StorageSuite) TestCreateAccountRejectsDuplicateMemberID() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account("a1", "+256781234567", "A-000001")))

	err := s.storage.CreateAccount(s.ctx, s.account("a2", "+256701234567", "A-000001"))
	s.ErrorIs(err, core.ErrMemberIDExists)
}

func (s *StorageSuite) TestGetAccountMissing() {
	_, err := s.storage.GetAccountByPhone(s.ctx, "+256700000000")
	s.ErrorIs(err, core.ErrAccountNotFound)

	_, err = s.storage.GetAccountByID(s.ctx, "nope")
	s.ErrorIs(err, core.ErrAccountNotFound)
}

func (s *StorageSuite) TestReturnedAccountIsACopy() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account("a1", "+256781234567", "A-000001")))

	got, _ := s.storage.GetAccountByID(s.ctx, "a1")
	got.PinHash = "mutated"

	again, _ := s.storage.GetAccountByID(s.ctx, "a1")
	s.Equal("h", again.PinHash)
}

func (s *StorageSuite) TestUpdatePinHash() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account("a1", "+256781234567", "A-000001")))

	s.Require().NoError(s.storage.UpdatePinHash(s.ctx, "a1", "new"))

	got, _ := s.storage.GetAccountByID(s.ctx, "a1")
	s.Equal("new", got.PinHash)
	s.Equal(s.clock.Now(), got.UpdatedAt)
	s.ErrorIs(s.storage.UpdatePinHash(s.ctx, "missing", "x"), core.ErrAccountNotFound)
}

// Session tests

func (s *StorageSuite) session(id, account, hash string, ttl time.Duration) *core.Session {
	now := s.clock.Now()
	return &core.Session{ID: id, AccountID: account, TokenHash: hash, ExpiresAt: now.Add(ttl), CreatedAt: now, UpdatedAt: now}
}

func (s *StorageSuite) TestSessionLifecycle() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, s.session("s1", "a1", "h1", time.Hour)))

	got, err := s.storage.GetSessionByHash(s.ctx, "h1")
	s.Require().NoError(err)
	s.Equal("s1", got.ID)

	s.Equal("a1", got.AccountID)

	s.Require().NoError(s.storage.DeleteSessionByHash(s.ctx, "h1"))
	_, err = s.storage.GetSessionByHash(s.ctx, "h1")
	s.ErrorIs(err, core.ErrSessionNotFound)
	s.ErrorIs(s.storage.DeleteSessionByHash(s.ctx, "h1"), core.ErrSessionNotFound)
}

func (s *StorageSuite) TestDeleteExpiredSessions() {
	s.storage.CreateSession(s.ctx, s.session("s1", "a1", "h1", time.Minute))
	s.storage.CreateSession(s.ctx, s.session("s2", "a1", "h2", time.Hour))

	s.clock.Advance(2 * time.Minute)

	n, err := s.storage.DeleteExpiredSessions(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	_, err = s.storage.GetSessionByHash(s.ctx, "h2")
	s.NoError(err)
}
