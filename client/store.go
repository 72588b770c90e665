package client

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lborres/abaccess/core"
)

// MaxAttempts is the number of wrong PINs that lock the current phone.
const MaxAttempts = 3

type State uint8

const (
	StateAnonymous State = iota
	StatePhoneEntered
	StateAttempting
	StateLocked
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StatePhoneEntered:
		return "phone_entered"
	case StateAttempting:
		return "attempting"
	case StateLocked:
		return "locked"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the client's copy of an issued session. The JSON shape matches
// the session cookie.
type Session struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionFromResult builds the client session for a successful auth result.
func SessionFromResult(r *core.AuthResult) Session {
	s := Session{AccessToken: r.Token}
	if r.Account != nil {
		s.UserID = r.Account.ID
	}
	if r.Session != nil {
		s.ExpiresAt = r.Session.ExpiresAt
	}
	return s
}

// Snapshot is an immutable view of the store.
type Snapshot struct {
	State             State
	Phone             string
	Attempts          int
	AttemptsRemaining int
	Account           *core.Account
	Session           *Session
}

func (s Snapshot) IsAuthenticated() bool { return s.State == StateAuthenticated }
func (s Snapshot) Locked() bool          { return s.State == StateLocked }

type authRecord struct {
	Account         *core.Account `json:"account"`
	Session         *Session      `json:"session"`
	IsAuthenticated bool          `json:"isAuthenticated"`
}

type phoneRecord struct {
	PhoneNumber string `json:"phoneNumber"`
}

// Store holds the session and PIN attempt state for one client. All
// mutations go through its methods and each is applied atomically.
type Store struct {
	mu      sync.Mutex
	storage Storage
	logger  *slog.Logger

	phone    string
	attempts int
	locked   bool
	account  *core.Account
	session  *Session
}

func NewStore(storage Storage, logger *slog.Logger) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{storage: storage, logger: logger}
}

// Hydrate restores the session and phone from durable storage. Attempt
// state always starts fresh.
func (s *Store) Hydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts, s.locked = 0, false
	s.account, s.session = nil, nil

	var phone phoneRecord
	if err := s.load(KeyPhone, &phone); err != nil {
		return err
	}
	s.phone = phone.PhoneNumber

	var auth authRecord
	if err := s.load(KeyAuth, &auth); err != nil {
		return err
	}
	if auth.IsAuthenticated && auth.Session != nil && auth.Account != nil {
		s.account, s.session = auth.Account, auth.Session
		if s.phone == "" {
			s.phone = auth.Account.Phone
		}
	}
	return nil
}

func (s *Store) load(key string, v any) error {
	data, err := s.storage.Load(key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		// A corrupt record is dropped rather than trusted
		s.logger.Warn("discarding unreadable record", slog.String("key", key), slog.String("error", err.Error()))
		s.remove(key)
	}
	return nil
}

// SetPhone starts authentication for phone. It clears the attempt counter
// and lock, and ends any current session.
func (s *Store) SetPhone(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.endSessionLocked()
	s.phone = phone
	s.attempts, s.locked = 0, false

	if phone == "" {
		s.remove(KeyPhone)
		return
	}
	s.persist(KeyPhone, phoneRecord{PhoneNumber: phone})
}

// LoginFailed records a wrong PIN. It is a no-op without a phone, while
// authenticated, or once locked.
func (s *Store) LoginFailed() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginFailedLocked()
	return s.snapshotLocked()
}

func (s *Store) loginFailedLocked() {
	if s.session != nil || s.phone == "" || s.locked {
		return
	}
	s.attempts++
	if s.attempts >= MaxAttempts {
		s.locked = true
	}
}

// LoginSucceeded enters the authenticated state, replacing any previous session.
func (s *Store) LoginSucceeded(account *core.Account, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginSucceededLocked(account, session)
}

func (s *Store) loginSucceededLocked(account *core.Account, session Session) {
	s.attempts, s.locked = 0, false
	s.account, s.session = account, &session
	if account != nil && account.Phone != "" && account.Phone != s.phone {
		s.phone = account.Phone
		s.persist(KeyPhone, phoneRecord{PhoneNumber: s.phone})
	}
	s.persist(KeyAuth, authRecord{Account: account, Session: &session, IsAuthenticated: true})
}

var ErrStaleResult = errors.New("result is for a phone that is no longer current")

// ApplyLoginResult applies a resolved login for phone, provided phone is
// still the current one. WrongPin counts an attempt and OK signs in; other
// outcomes leave the state unchanged.
func (s *Store) ApplyLoginResult(phone string, result *core.AuthResult) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phone != phone {
		return s.snapshotLocked(), ErrStaleResult
	}

	switch result.Outcome {
	case core.OutcomeOK:
		s.loginSucceededLocked(result.Account, SessionFromResult(result))
	case core.OutcomeWrongPin:
		s.loginFailedLocked()
	}
	return s.snapshotLocked(), nil
}

// SignOut ends the session and keeps the phone for the next sign in.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endSessionLocked()
}

// UpdateAccount merges profile changes into the signed in account.
func (s *Store) UpdateAccount(update func(*core.Account)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.account == nil {
		return
	}
	next := *s.account
	update(&next)
	s.account = &next
	s.persist(KeyAuth, authRecord{Account: s.account, Session: s.session, IsAuthenticated: true})
}

func (s *Store) endSessionLocked() {
	if s.session == nil {
		return
	}
	s.account, s.session = nil, nil
	s.attempts, s.locked = 0, false
	s.remove(KeyAuth)
}

// Current returns the session expiry, ok is false when signed out.
func (s *Store) Current() (expiresAt time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return time.Time{}, false
	}
	return s.session.ExpiresAt, true
}

// ClearSession drops an expired session found by the route guard.
func (s *Store) ClearSession() {
	s.SignOut()
}

// Token returns the access token of the current session.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.AccessToken
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phone:             s.phone,
		Attempts:          s.attempts,
		AttemptsRemaining: MaxAttempts - s.attempts,
		Account:           s.account,
	}
	if snap.AttemptsRemaining < 0 {
		snap.AttemptsRemaining = 0
	}
	if s.session != nil {
		sess := *s.session
		snap.Session = &sess
	}

	switch {
	case s.session != nil:
		snap.State = StateAuthenticated
	case s.phone == "":
		snap.State = StateAnonymous
	case s.locked:
		snap.State = StateLocked
	case s.attempts == 0:
		snap.State = StatePhoneEntered
	default:
		snap.State = StateAttempting
	}
	return snap
}

// Storage writes are best effort; the in-memory state is authoritative.
func (s *Store) persist(key string, v any) {
	data, err := json.Marshal(v)
	if err == nil {
		err = s.storage.Save(key, data)
	}
	if err != nil {
		s.logger.Warn("failed to persist auth state", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (s *Store) remove(key string) {
	if err := s.storage.Delete(key); err != nil {
		s.logger.Warn("failed to clear auth state", slog.String("key", key), slog.String("error", err.Error()))
	}
}
