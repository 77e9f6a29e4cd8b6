package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-catalog/internal/logging"
	"github.com/iliyamo/media-catalog/internal/session"
)

// storeTimeout bounds the store work of a single request.
const storeTimeout = 5 * time.Second

func storeContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// render fills the values every page's layout expects and renders name.
// The caller's username is passed explicitly; templates never look it up.
func render(c echo.Context, status int, name string, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	user := ""
	if id, ok := session.Current(c); ok {
		user = id.Username
	}
	data["User"] = user
	data["Flashes"] = session.Flashes(c)
	if _, ok := data["Query"]; !ok {
		data["Query"] = ""
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	return c.Render(status, name, data)
}

func renderError(c echo.Context, status int, message string) error {
	return render(c, status, "error.html", echo.Map{
		"Status":  status,
		"Message": message,
	})
}

func notFound(c echo.Context) error {
	return renderError(c, http.StatusNotFound, "The requested document does not exist.")
}

func badRequest(c echo.Context) error {
	return renderError(c, http.StatusBadRequest, "The request could not be understood.")
}

// internalError logs err against the request and renders a generic 500.
func internalError(c echo.Context, err error, msg string) error {
	logging.Ctx(c.Request().Context()).Error().Err(err).Str("path", c.Path()).Msg(msg)
	return renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

func redirect(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}
