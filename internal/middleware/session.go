package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-catalog/internal/session"
)

// LoadSession reads the session cookie and attaches the identity to the
// request context.  A cookie that fails verification is cleared and the
// request continues anonymously.
func LoadSession(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if id, ok := m.Read(r); ok {
				c.SetRequest(r.WithContext(session.WithIdentity(r.Context(), id)))
			} else if ck, err := r.Cookie(session.CookieName); err == nil && ck.Value != "" {
				m.Clear(c)
			}
			return next(c)
		}
	}
}

// RequireUser redirects anonymous callers to the sign-in page.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := session.Current(c); !ok {
				session.Flash(c, "Please sign in to continue")
				return c.Redirect(http.StatusSeeOther, "/signin")
			}
			return next(c)
		}
	}
}
