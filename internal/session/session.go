// Package session keeps the signed-in identity in a signed cookie and puts
// it on the request context.  Handlers never read the cookie themselves;
// they call FromContext on the request context the middleware prepared.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-catalog/internal/utils"
)

// CookieName is the name of the cookie holding the session token.
const CookieName = "session"

// Identity is the authenticated caller.
type Identity struct {
	Username string
}

type ctxKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.Username != ""
}

// Current is FromContext for the request behind c.
func Current(c echo.Context) (Identity, bool) {
	return FromContext(c.Request().Context())
}

// Manager issues, reads and clears session cookies.
type Manager struct {
	secret string
	ttl    time.Duration
	secure bool
}

// NewManager returns a Manager signing cookies with secret.  ttl of zero
// issues browser-session cookies without expiry.  secure marks cookies
// HTTPS-only.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{secret: secret, ttl: ttl, secure: secure}
}

// Issue signs a token for username, sets the cookie on the response and
// attaches the identity to the current request so the rest of the request
// sees the caller as signed in.
func (m *Manager) Issue(c echo.Context, username string) error {
	raw, err := utils.NewSessionToken(m.secret, username, m.ttl)
	if err != nil {
		return err
	}
	ck := m.cookie(raw)
	if m.ttl > 0 {
		ck.Expires = time.Now().Add(m.ttl)
		ck.MaxAge = int(m.ttl / time.Second)
	}
	c.SetCookie(ck)
	r := c.Request()
	c.SetRequest(r.WithContext(WithIdentity(r.Context(), Identity{Username: username})))
	return nil
}

// Clear expires the session cookie and drops the identity from the request.
func (m *Manager) Clear(c echo.Context) {
	ck := m.cookie("")
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	c.SetCookie(ck)
	r := c.Request()
	c.SetRequest(r.WithContext(WithIdentity(r.Context(), Identity{})))
}

// Read returns the identity carried by r's session cookie.  A missing,
// tampered or expired cookie reports false.
func (m *Manager) Read(r *http.Request) (Identity, bool) {
	ck, err := r.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return Identity{}, false
	}
	user, err := utils.ParseSessionToken(m.secret, ck.Value)
	if err != nil {
		return Identity{}, false
	}
	return Identity{Username: user}, true
}

func (m *Manager) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
