package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lborres/abaccess/core"
	"github.com/lborres/abaccess/pkg/crypto"
)

// MaxMemberIDAttempts bounds regeneration after a member id collision.
const MaxMemberIDAttempts = 5

var ErrMemberIDExhausted = errors.New("could not allocate a unique member id")

type AuthService struct {
	accounts  core.AccountStorage
	sessions  *core.SessionManager
	hasher    crypto.PinHasher
	memberIDs core.MemberIDGenerator
	clock     core.Clock
	logger    *slog.Logger
	newID     func() string
}

// Ensure AuthService implements AuthHandler
var _ core.AuthHandler = (*AuthService)(nil)

func NewAuthService(accounts core.AccountStorage, sessions *core.SessionManager, hasher crypto.PinHasher) *AuthService {
	if hasher == nil {
		hasher = crypto.NewArgon2()
	}
	return &AuthService{
		accounts:  accounts,
		sessions:  sessions,
		hasher:    hasher,
		memberIDs: core.NewRandomMemberID(),
		clock:     core.SystemClock{},
		logger:    slog.Default(),
		newID:     uuid.NewString,
	}
}

// WithMemberIDGenerator replaces the random member id source.
func (s *AuthService) WithMemberIDGenerator(g core.MemberIDGenerator) *AuthService {
	s.memberIDs = g
	return s
}

func (s *AuthService) WithClock(c core.Clock) *AuthService {
	s.clock = c
	return s
}

func (s *AuthService) WithLogger(l *slog.Logger) *AuthService {
	s.logger = l
	return s
}

// AccountExists reports whether an account is registered for phone.
// Numbers that do not normalize cannot belong to an account.
func (s *AuthService) AccountExists(ctx context.Context, phone string) (bool, error) {
	canonical, err := core.NormalizePhone(phone)
	if err != nil {
		return false, nil
	}

	_, err = s.accounts.GetAccountByPhone(ctx, canonical)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, core.ErrAccountNotFound):
		return false, nil
	default:
		return false, core.Infra("lookup account", err)
	}
}

// Login verifies phone and PIN and opens a new session.
func (s *AuthService) Login(ctx context.Context, input core.LoginInput, meta core.RequestMeta) (*core.AuthResult, error) {
	// Step 1: Find the account; a malformed phone is indistinguishable from an unknown one
	phone, err := core.NormalizePhone(input.Phone)
	if err != nil {
		return core.Fail(core.OutcomeAccountNotFound), nil
	}
	if core.ValidatePinFormat(input.Pin) != nil {
		return core.Fail(core.OutcomeInvalidPin), nil
	}

	account, err := s.accounts.GetAccountByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			return core.Fail(core.OutcomeAccountNotFound), nil
		}
		return nil, core.Infra("lookup account", err)
	}

	// Step 2: Verify the PIN
	if !s.hasher.Verify(input.Pin, account.PinHash) {
		return core.Fail(core.OutcomeWrongPin), nil
	}

	// Step 3: Move legacy hashes forward while we hold the plain PIN
	if crypto.NeedsRehash(account.PinHash) {
		s.upgradePinHash(ctx, account, input.Pin)
	}

	// Step 4: Create a new session
	return s.openSession(ctx, account, meta)
}

func (s *AuthService) upgradePinHash(ctx context.Context, account *core.Account, pin string) {
	hash, err := s.hasher.Hash(pin)
	if err == nil {
		err = s.accounts.UpdatePinHash(ctx, account.ID, hash)
	}
	if err != nil {
		s.logger.Warn("pin hash upgrade failed",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()))
		return
	}
	account.PinHash = hash
}

// Register validates input, creates the account and signs it in.
func (s *AuthService) Register(ctx context.Context, input core.RegisterInput, meta core.RequestMeta) (*core.AuthResult, error) {
	// Step 1: Validate in a fixed order so the first problem wins
	if outcome := validateRegistration(&input); outcome != core.OutcomeOK {
		return core.Fail(outcome), nil
	}

	// Step 2: Cheap existence check; the unique constraint below still decides
	if _, err := s.accounts.GetAccountByPhone(ctx, input.Phone); err == nil {
		return core.Fail(core.OutcomePhoneTaken), nil
	} else if !errors.Is(err, core.ErrAccountNotFound) {
		return nil, core.Infra("lookup account", err)
	}

	// Step 3: Hash the PIN
	pinHash, err := s.hasher.Hash(input.Pin)
	if err != nil {
		return nil, core.Infra("hash pin", err)
	}

	// Step 4: Insert, regenerating the member id on collision
	now := s.clock.Now()
	account := &core.Account{
		ID:        s.newID(),
		Phone:     input.Phone,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		NIN:       input.NIN,
		PinHash:   pinHash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created := false
	for attempt := 1; attempt <= MaxMemberIDAttempts && !created; attempt++ {
		account.MemberID, err = s.memberIDs.Generate()
		if err != nil {
			return nil, core.Infra("generate member id", err)
		}

		err = s.accounts.CreateAccount(ctx, account)
		switch {
		case err == nil:
			created = true
		case errors.Is(err, core.ErrPhoneExists):
			return core.Fail(core.OutcomePhoneTaken), nil
		case errors.Is(err, core.ErrMemberIDExists):
			s.logger.Debug("member id collision",
				slog.String("member_id", account.MemberID),
				slog.Int("attempt", attempt))
		default:
			return nil, core.Infra("create account", err)
		}
	}
	if !created {
		return nil, core.Infra("create account", fmt.Errorf("%w after %d attempts", ErrMemberIDExhausted, MaxMemberIDAttempts))
	}

	// Step 5: Sign the new account in
	return s.openSession(ctx, account, meta)
}

// validateRegistration normalizes input in place and returns the first failing check.
func validateRegistration(input *core.RegisterInput) core.Outcome {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.NIN = core.NormalizeNIN(input.NIN)

	if strings.TrimSpace(input.Phone) == "" || input.FirstName == "" || input.LastName == "" ||
		input.NIN == "" || input.Pin == "" {
		return core.OutcomeMissingFields
	}

	phone, err := core.NormalizePhone(input.Phone)
	if err != nil {
		return core.OutcomeInvalidPhone
	}
	input.Phone = phone

	if core.ValidatePinFormat(input.Pin) != nil {
		return core.OutcomeInvalidPin
	}
	if core.IsWeakPin(input.Pin) {
		return core.OutcomeWeakPin
	}
	if !core.IsValidNIN(input.NIN) {
		return core.OutcomeInvalidNIN
	}
	return core.OutcomeOK
}

func (s *AuthService) openSession(ctx context.Context, account *core.Account, meta core.RequestMeta) (*core.AuthResult, error) {
	created, err := s.sessions.Create(ctx, account.ID, meta)
	if err != nil {
		return nil, core.Infra("create session", err)
	}

	return &core.AuthResult{
		Outcome: core.OutcomeOK,
		Account: account,
		Session: created.Session,
		Token:   created.Token,
	}, nil
}

// SignOut destroys the session behind token. Failures are logged, never returned.
func (s *AuthService) SignOut(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.Destroy(ctx, token); err != nil && !errors.Is(err, core.ErrSessionNotFound) {
		s.logger.Warn("sign out failed", slog.String("error", err.Error()))
	}
}

// GetSession resolves token to its session and account.
func (s *AuthService) GetSession(ctx context.Context, token string) (*core.SessionData, error) {
	session, err := s.sessions.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrInvalidToken) || errors.Is(err, core.ErrSessionExpired) {
			return nil, err
		}
		return nil, core.Infra("verify session", err)
	}

	account, err := s.accounts.GetAccountByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			return nil, core.ErrInvalidToken
		}
		return nil, core.Infra("get account", err)
	}

	return &core.SessionData{
		Account: account,
		Session: session,
	}, nil
}
