package fiber

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lborres/abaccess/core"
	"github.com/lborres/abaccess/guard"
)

var errInvalidCookie = errors.New("invalid session cookie")

// sessionClaims is the payload of the session cookie. expires_at is unix
// milliseconds; zero means the session never expires.
type sessionClaims struct {
	AccessToken     string `json:"access_token"`
	UserID          string `json:"user_id"`
	ExpiresAtMillis int64  `json:"expires_at,omitempty"`
	jwt.RegisteredClaims
}

func (s *sessionClaims) expiresAt() time.Time {
	if s.ExpiresAtMillis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.ExpiresAtMillis)
}

// cookieCodec signs session cookies with HS256 so a client cannot forge
// or extend one. Expiry is judged by the guard, not by the codec.
type cookieCodec struct {
	key   []byte
	clock core.Clock
}

func newCookieCodec(secret string, clock core.Clock) *cookieCodec {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &cookieCodec{key: []byte(secret), clock: clock}
}

func (cc *cookieCodec) encode(token string, session *core.Session) (string, error) {
	claims := sessionClaims{
		AccessToken: token,
		UserID:      session.AccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  session.AccountID,
			IssuedAt: jwt.NewNumericDate(cc.clock.Now()),
		},
	}
	if !session.ExpiresAt.IsZero() {
		claims.ExpiresAtMillis = session.ExpiresAt.UnixMilli()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cc.key)
}

func (cc *cookieCodec) decode(raw string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return cc.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, errInvalidCookie
	}
	if claims.AccessToken == "" || claims.UserID == "" {
		return nil, errInvalidCookie
	}
	return claims, nil
}

func (a *Adapter) writeSessionCookie(c fiber.Ctx, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     a.access.Cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(a.access.Cookie.MaxAge / time.Second),
		HTTPOnly: true,
		Secure:   a.access.Cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (a *Adapter) deleteSessionCookie(c fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     a.access.Cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   a.access.Cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// cookieSource presents the request's session cookie to the guard. A cookie
// that fails verification is deleted and judged absent.
type cookieSource struct {
	adapter *Adapter
	c       fiber.Ctx
	claims  *sessionClaims
	cleared bool
}

var _ guard.SessionSource = (*cookieSource)(nil)

func (a *Adapter) newCookieSource(c fiber.Ctx) *cookieSource {
	src := &cookieSource{adapter: a, c: c}
	raw := c.Cookies(a.access.Cookie.Name)
	if raw == "" {
		return src
	}
	claims, err := a.cookies.decode(raw)
	if err != nil {
		a.access.Logger.Debug("discarding session cookie", slog.String("error", err.Error()))
		src.ClearSession()
		return src
	}
	src.claims = claims
	return src
}

func (s *cookieSource) Current() (time.Time, bool) {
	if s.claims == nil {
		return time.Time{}, false
	}
	return s.claims.expiresAt(), true
}

func (s *cookieSource) ClearSession() {
	s.claims = nil
	if !s.cleared {
		s.cleared = true
		s.adapter.deleteSessionCookie(s.c)
	}
}
