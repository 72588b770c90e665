package client

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/lborres/abaccess/core"
)

var (
	ErrLocked        = errors.New("too many wrong PINs for this phone")
	ErrNoPhone       = errors.New("no phone number entered")
	ErrLoginInFlight = errors.New("a sign in is already in progress")
)

// Flow drives the Store from authentication results.
type Flow struct {
	auth     core.Authenticator
	store    *Store
	logger   *slog.Logger
	inFlight atomic.Bool
}

func NewFlow(auth core.Authenticator, store *Store, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{auth: auth, store: store, logger: logger}
}

func (f *Flow) Store() *Store {
	return f.store
}

// EnterPhone normalizes phone, makes it current and reports whether an
// account exists for it.
func (f *Flow) EnterPhone(ctx context.Context, phone string) (bool, error) {
	canonical, err := core.NormalizePhone(phone)
	if err != nil {
		return false, err
	}

	exists, err := f.auth.AccountExists(ctx, canonical)
	if err != nil {
		return false, err
	}

	f.store.SetPhone(canonical)
	return exists, nil
}

// EnterPin attempts a login for the current phone. A PIN that is not four
// digits fails with core.ErrInvalidPinFormat and never counts as an attempt.
// Results that arrive after the phone changed are dropped with ErrStaleResult.
func (f *Flow) EnterPin(ctx context.Context, pin string) (*core.AuthResult, Snapshot, error) {
	snap := f.store.Snapshot()
	switch {
	case snap.Locked():
		return nil, snap, ErrLocked
	case snap.Phone == "":
		return nil, snap, ErrNoPhone
	}
	if err := core.ValidatePinFormat(pin); err != nil {
		return nil, snap, err
	}

	if !f.inFlight.CompareAndSwap(false, true) {
		return nil, snap, ErrLoginInFlight
	}
	defer f.inFlight.Store(false)

	result, err := f.auth.Login(ctx, core.LoginInput{Phone: snap.Phone, Pin: pin})
	if err != nil {
		return nil, f.store.Snapshot(), err
	}

	snap, err = f.store.ApplyLoginResult(snap.Phone, result)
	if err != nil {
		return nil, snap, err
	}
	return result, snap, nil
}

// Register creates an account and signs it in on success.
func (f *Flow) Register(ctx context.Context, input core.RegisterInput) (*core.AuthResult, error) {
	result, err := f.auth.Register(ctx, input)
	if err != nil {
		return nil, err
	}
	if result.OK() {
		f.store.LoginSucceeded(result.Account, SessionFromResult(result))
	}
	return result, nil
}

// SignOut invalidates the session remotely when possible and always ends it locally.
func (f *Flow) SignOut(ctx context.Context) {
	if token := f.store.Token(); token != "" {
		if err := f.auth.SignOut(ctx, token); err != nil {
			f.logger.Warn("remote sign out failed", slog.String("error", err.Error()))
		}
	}
	f.store.SignOut()
}
