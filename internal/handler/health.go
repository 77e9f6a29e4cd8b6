package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness to load balancers and monitoring.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Home renders the landing page.
func Home(c echo.Context) error {
	return render(c, http.StatusOK, "index.html", nil)
}
