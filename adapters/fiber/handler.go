package fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/lborres/abaccess/core"
)

const (
	localsAccount = "account"
	localsSession = "session"
)

type phoneRequest struct {
	Phone string `json:"phone"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type setCookieRequest struct {
	AccessToken string `json:"access_token"`
}

type cookieResponse struct {
	UserID    string `json:"user_id"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type routeResponse struct {
	Path     string `json:"path"`
	Class    string `json:"class"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

func requestMeta(c fiber.Ctx) core.RequestMeta {
	return core.RequestMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

func (a *Adapter) accountExists(c fiber.Ctx) error {
	var input phoneRequest
	if err := c.Bind().Body(&input); err != nil {
		return writeBadRequest(c)
	}

	exists, err := a.access.Auth.AccountExists(c.Context(), input.Phone)
	if err != nil {
		return a.writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(existsResponse{Exists: exists})
}

func (a *Adapter) signIn(c fiber.Ctx) error {
	var input core.LoginInput
	if err := c.Bind().Body(&input); err != nil {
		return writeBadRequest(c)
	}

	result, err := a.access.Auth.Login(c.Context(), input, requestMeta(c))
	if err != nil {
		return a.writeError(c, err)
	}
	if !result.OK() {
		return writeOutcome(c, result.Outcome)
	}

	return c.Status(http.StatusOK).JSON(result)
}

func (a *Adapter) register(c fiber.Ctx) error {
	var input core.RegisterInput
	if err := c.Bind().Body(&input); err != nil {
		return writeBadRequest(c)
	}

	result, err := a.access.Auth.Register(c.Context(), input, requestMeta(c))
	if err != nil {
		return a.writeError(c, err)
	}
	if !result.OK() {
		return writeOutcome(c, result.Outcome)
	}

	return c.Status(http.StatusCreated).JSON(result)
}

// signOut always succeeds. The session is revoked when the token resolves
// and the cookie is cleared either way.
func (a *Adapter) signOut(c fiber.Ctx) error {
	if token := a.extractToken(c); token != "" {
		a.access.Auth.SignOut(c.Context(), token)
	}
	a.deleteSessionCookie(c)

	return c.Status(http.StatusOK).JSON(messageResponse{Message: "signed out"})
}

func (a *Adapter) session(c fiber.Ctx) error {
	account, _ := c.Locals(localsAccount).(*core.Account)
	session, _ := c.Locals(localsSession).(*core.Session)

	return c.Status(http.StatusOK).JSON(core.SessionData{
		Account: account,
		Session: session,
	})
}

// setCookie stores a verified session in the HTTP-only cookie the route
// guard reads. The cookie carries the server's expiry, never the client's.
func (a *Adapter) setCookie(c fiber.Ctx) error {
	var input setCookieRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&input); err != nil {
			return writeBadRequest(c)
		}
	}
	token := input.AccessToken
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		return a.writeError(c, core.ErrMissingAuthHeader)
	}

	data, err := a.access.Auth.GetSession(c.Context(), token)
	if err != nil {
		return a.writeError(c, err)
	}

	value, err := a.cookies.encode(token, data.Session)
	if err != nil {
		return a.writeError(c, err)
	}
	a.writeSessionCookie(c, value)

	resp := cookieResponse{UserID: data.Session.AccountID}
	if !data.Session.ExpiresAt.IsZero() {
		resp.ExpiresAt = data.Session.ExpiresAt.UnixMilli()
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func (a *Adapter) clearCookie(c fiber.Ctx) error {
	a.deleteSessionCookie(c)
	return c.Status(http.StatusOK).JSON(messageResponse{Message: "cookie cleared"})
}

// routeDecision lets a client ask how the guard judges a navigation.
func (a *Adapter) routeDecision(c fiber.Ctx) error {
	p := c.Query("path")
	if p == "" {
		return writeBadRequest(c)
	}

	decision := a.access.Guard.Evaluate(p, a.newCookieSource(c))

	return c.Status(http.StatusOK).JSON(routeResponse{
		Path:     p,
		Class:    a.access.Guard.Rules().Classify(p).String(),
		Allowed:  decision.Allowed(),
		Redirect: decision.Redirect,
	})
}

func bearerToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// extractToken extracts the session token from the request.
// Checks Authorization header (Bearer token) first, then falls back to the
// session cookie.
func (a *Adapter) extractToken(c fiber.Ctx) string {
	if token := bearerToken(c); token != "" {
		return token
	}

	raw := c.Cookies(a.access.Cookie.Name)
	if raw == "" {
		return ""
	}
	claims, err := a.cookies.decode(raw)
	if err != nil {
		return ""
	}
	return claims.AccessToken
}
