// Package guard decides whether a navigation may proceed given the
// current session.
package guard

import (
	"time"

	"github.com/lborres/abaccess/core"
)

// SessionSource exposes the session the guard judges. Current reports the
// session expiry, ok is false when there is no session. A zero expiry never
// expires.
type SessionSource interface {
	Current() (expiresAt time.Time, ok bool)
	ClearSession()
}

// Decision is the guard's verdict. The zero value allows the navigation.
type Decision struct {
	Redirect string
}

var Allow = Decision{}

func RedirectTo(p string) Decision {
	return Decision{Redirect: p}
}

func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

type Guard struct {
	rules *Rules
	clock core.Clock
}

func New(rules *Rules, clock core.Clock) *Guard {
	if rules == nil {
		rules = DefaultRules()
	}
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Guard{rules: rules, clock: clock}
}

func (g *Guard) Rules() *Rules {
	return g.rules
}

// Authenticated reports whether src holds a live session. An expired session
// is cleared from src.
func (g *Guard) Authenticated(src SessionSource) bool {
	if src == nil {
		return false
	}
	expiresAt, ok := src.Current()
	if !ok {
		return false
	}
	if !expiresAt.IsZero() && !g.clock.Now().Before(expiresAt) {
		src.ClearSession()
		return false
	}
	return true
}

// Evaluate is called on every navigation. An expired session is cleared
// from src and the request is judged as signed out.
func (g *Guard) Evaluate(p string, src SessionSource) Decision {
	authenticated := g.Authenticated(src)

	switch g.rules.Classify(p) {
	case Protected:
		if !authenticated {
			return RedirectTo(g.rules.PublicEntry)
		}
	case AuthOnly:
		if authenticated {
			return RedirectTo(g.rules.ProtectedEntry)
		}
	}
	return Allow
}
