package middleware

// identity.go holds helpers shared across the middleware files.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-catalog/internal/session"
)

// currentUser returns the signed-in username, or "anon" for anonymous
// callers.  It keys the rate limiter and the per-user listing cache.
func currentUser(c echo.Context) string {
	if id, ok := session.Current(c); ok {
		return id.Username
	}
	return "anon"
}
