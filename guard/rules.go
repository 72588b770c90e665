package guard

import (
	"path"
	"strings"
)

// Class says who may visit a path.
type Class uint8

const (
	// Public paths are reachable by anyone.
	Public Class = iota
	// Protected paths require a live session.
	Protected
	// AuthOnly paths belong to the sign in and registration flow and are
	// reachable only without a session.
	AuthOnly
)

func (c Class) String() string {
	switch c {
	case Protected:
		return "protected"
	case AuthOnly:
		return "auth_only"
	default:
		return "public"
	}
}

const (
	DefaultPublicEntry    = "/welcome"
	DefaultProtectedEntry = "/dashboard"
)

// Rules classifies paths by route prefix. A route matches itself and
// anything below it; the longest matching route wins and unmatched paths
// are Public.
type Rules struct {
	PublicEntry    string
	ProtectedEntry string

	routes map[string]Class
}

func NewRules(publicEntry, protectedEntry string) *Rules {
	return &Rules{
		PublicEntry:    publicEntry,
		ProtectedEntry: protectedEntry,
		routes:         make(map[string]Class),
	}
}

// DefaultRules returns the route table of the member app.
func DefaultRules() *Rules {
	return NewRules(DefaultPublicEntry, DefaultProtectedEntry).
		Add(Protected,
			"/dashboard", "/packages", "/my-packages", "/visits",
			"/wallet", "/profile", "/family", "/notifications").
		Add(AuthOnly,
			"/sign-in", "/verify-otp", "/create-pin", "/enter-pin",
			"/forgot-pin", "/onboarding", "/register").
		Add(Public, "/", "/welcome", "/register/success")
}

// Add assigns class to routes, replacing earlier assignments.
func (r *Rules) Add(class Class, routes ...string) *Rules {
	for _, route := range routes {
		r.routes[cleanPath(route)] = class
	}
	return r
}

func (r *Rules) Classify(p string) Class {
	p = cleanPath(p)
	best, class := -1, Public
	for route, c := range r.routes {
		if !matches(p, route) || len(route) <= best {
			continue
		}
		best, class = len(route), c
	}
	return class
}

func matches(p, route string) bool {
	if p == route {
		return true
	}
	if route == "/" {
		return false
	}
	return strings.HasPrefix(p, route+"/")
}

// cleanPath drops any query or fragment and normalizes slashes.
func cleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
