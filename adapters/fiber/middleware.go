package fiber

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/lborres/abaccess/core"
)

// loadSession validates the request token and stores the account and
// session in the context for downstream handlers.
func (a *Adapter) loadSession(c fiber.Ctx) error {
	token := a.extractToken(c)
	if token == "" {
		return core.ErrMissingAuthHeader
	}

	data, err := a.access.Auth.GetSession(c.Context(), token)
	if err != nil {
		return err
	}

	c.Locals(localsAccount, data.Account)
	c.Locals(localsSession, data.Session)
	return nil
}

func (a *Adapter) protect(next fiber.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := a.loadSession(c); err != nil {
			return a.writeError(c, err)
		}
		return next(c)
	}
}

// RequireSession guards application API routes with the same session
// check the protected auth endpoints use.
func (a *Adapter) RequireSession() fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := a.loadSession(c); err != nil {
			return a.writeError(c, err)
		}
		return c.Next()
	}
}

// PageGuard runs the route guard before every page request. Requests under
// the auth base path pass through untouched. Redirects use 302.
func (a *Adapter) PageGuard() fiber.Handler {
	return func(c fiber.Ctx) error {
		p := c.Path()
		if p == a.access.BasePath || strings.HasPrefix(p, a.access.BasePath+"/") {
			return c.Next()
		}

		decision := a.access.Guard.Evaluate(p, a.newCookieSource(c))
		if !decision.Allowed() {
			return c.Redirect().Status(fiber.StatusFound).To(decision.Redirect)
		}
		return c.Next()
	}
}

// AccountFromContext returns the account stored by a protected route.
func AccountFromContext(c fiber.Ctx) (*core.Account, bool) {
	account, ok := c.Locals(localsAccount).(*core.Account)
	return account, ok && account != nil
}

// SessionFromContext returns the session stored by a protected route.
func SessionFromContext(c fiber.Ctx) (*core.Session, bool) {
	session, ok := c.Locals(localsSession).(*core.Session)
	return session, ok && session != nil
}
