package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/media-catalog/internal/logging"
)

// ContextLogger stores a logger tagged with the request id on the request
// context, so logging.Ctx(ctx) in handlers and repositories carries it.
// It must run after echo's RequestID middleware.
func ContextLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			l := logging.Logger().With().Str("request_id", rid).Logger()
			r := c.Request()
			c.SetRequest(r.WithContext(logging.WithContext(r.Context(), l)))
			return next(c)
		}
	}
}

// RequestLogger logs one line per request through zerolog.
func RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ev := logging.Info()
			if v.Error != nil {
				ev = logging.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("user", currentUser(c)).
				Msg("request")
			return nil
		},
	})
}
