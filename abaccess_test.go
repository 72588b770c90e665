package abaccess

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lborres/abaccess/adapters/memory"
	"github.com/lborres/abaccess/core"
	"github.com/lborres/abaccess/pkg/crypto"
)

const testSecret = "01234567890123456789012345678901"

// countingCache records every call so tests can tell whether the session
// manager used it.
type countingCache struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCache) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

func (c *countingCache) Get(string) (*Session, error) {
	c.touch()
	return nil, core.ErrCacheNotFound
}
func (c *countingCache) Set(string, *Session) error { c.touch(); return nil }
func (c *countingCache) Delete(string) error         { c.touch(); return nil }
func (c *countingCache) Clear() error                { c.touch(); return nil }

func (c *countingCache) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// accountsOnly stores accounts but not sessions.
type accountsOnly struct {
	AccountStorage
}

// dummy HTTP Adapter
type dummyHTTP struct {
	got *AbAccess
	err error
}

func (d *dummyHTTP) RegisterRoutes(a *AbAccess) error {
	d.got = a
	return d.err
}

func fastHasher() PinHasher {
	return &crypto.Argon2{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestNewShouldValidateConfig(t *testing.T) {
	store := memory.New(nil)

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"missing secret", Config{Accounts: store}, ErrSecretRequired},
		{"short secret", Config{Secret: "short", Accounts: store}, ErrSecretTooShort},
		{"missing storage", Config{Secret: testSecret}, ErrStorageRequired},
		{"no session storage", Config{Secret: testSecret, Accounts: accountsOnly{store}}, ErrStorageRequired},
		{"separate session storage", Config{Secret: testSecret, Accounts: accountsOnly{store}, Sessions: store}, nil},
		{"combined storage", Config{Secret: testSecret, Accounts: store}, nil},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.cfg)
			if !errors.Is(err, test.wantErr) {
				t.Errorf("New() error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestNewShouldApplyDefaults(t *testing.T) {
	a, err := New(Config{Secret: testSecret, Accounts: memory.New(nil)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if a.BasePath != "/api/auth" {
		t.Errorf("BasePath = %q, want /api/auth", a.BasePath)
	}
	if a.Cookie.Name != DefaultCookieName {
		t.Errorf("Cookie.Name = %q, want %q", a.Cookie.Name, DefaultCookieName)
	}
	if a.Cookie.MaxAge != DefaultCookieMaxAge {
		t.Errorf("Cookie.MaxAge = %v, want %v", a.Cookie.MaxAge, DefaultCookieMaxAge)
	}
	if a.Sessions.MaxAge() != core.DefaultSessionMaxAge {
		t.Errorf("session MaxAge = %v, want %v", a.Sessions.MaxAge(), core.DefaultSessionMaxAge)
	}
	if a.Guard == nil || a.Endpoints == nil || a.Auth == nil || a.Logger == nil {
		t.Error("expected every component to be built")
	}
	if got := len(a.Endpoints.Endpoints()); got == 0 {
		t.Error("expected base endpoints to be registered")
	}
}

func TestNewShouldRegisterHTTPRoutes(t *testing.T) {
	adapter := &dummyHTTP{}

	a, err := New(Config{Secret: testSecret, Accounts: memory.New(nil), HTTP: adapter})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if adapter.got != a {
		t.Error("adapter did not receive the instance")
	}

	failing := &dummyHTTP{err: errors.New("route conflict")}
	if _, err := New(Config{Secret: testSecret, Accounts: memory.New(nil), HTTP: failing}); err == nil || !strings.Contains(err.Error(), "route conflict") {
		t.Errorf("New() error = %v, want adapter error", err)
	}
}

func TestNewShouldNotUseCacheWhenDisableCacheTrue(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		disableCache bool
		wantCalls    bool
	}{
		{"cache enabled", false, true},
		{"cache disabled", true, false},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			cache := &countingCache{}
			a, err := New(Config{
				Secret:       testSecret,
				Accounts:     memory.New(nil),
				Cache:        cache,
				DisableCache: test.disableCache,
				Hasher:       fastHasher(),
			})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			// Act
			result, err := a.Auth.Register(ctx, core.RegisterInput{
				Phone: "0771234567", FirstName: "Amina", LastName: "Nakato",
				NIN: "CM12345678901A", Pin: "2580",
			}, core.RequestMeta{})
			if err != nil || !result.OK() {
				t.Fatalf("Register() = %+v, %v", result, err)
			}
			if _, err := a.Auth.GetSession(ctx, result.Token); err != nil {
				t.Fatalf("GetSession() error = %v", err)
			}

			// Assert
			if got := cache.Calls() > 0; got != test.wantCalls {
				t.Errorf("cache used = %v, want %v", got, test.wantCalls)
			}
		})
	}
}
