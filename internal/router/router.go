// Package router maps URLs to handlers and attaches per-route middleware.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-catalog/internal/handler"
	"github.com/iliyamo/media-catalog/internal/middleware"
	"github.com/iliyamo/media-catalog/internal/model"
)

var getPost = []string{http.MethodGet, http.MethodPost}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPages registers the landing page and character search.  cache is
// applied to search and only affects GETs.
func RegisterPages(e *echo.Echo, s *handler.SearchHandler, cache echo.MiddlewareFunc) {
	e.GET("/", handler.Home)
	e.GET("/home", handler.Home)
	e.Match(getPost, model.CharacterKind.SearchPath, s.Search, cache)
}

// RegisterAuth registers the account pages.  limiter guards the form
// submissions of sign-in and registration.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	e.GET("/register", a.Register)
	e.POST("/register", a.Register, limiter)
	e.GET("/signin", a.Signin)
	e.POST("/signin", a.Signin, limiter)
	e.GET("/signout", a.Signout)
	e.Match(getPost, "/profile/:username", a.Profile, middleware.RequireUser())
}

// RegisterCatalog registers the listing and the guarded add, edit and
// delete routes of one catalog collection.
func RegisterCatalog[T any](e *echo.Echo, h *handler.CatalogHandler[T], cache echo.MiddlewareFunc) {
	e.GET(h.Kind.ListPath(), h.List, cache)

	guard := middleware.RequireUser()
	e.Match(getPost, h.Kind.AddPath(), h.Add, guard)
	e.Match(getPost, h.Kind.EditRoute(), h.Edit, guard)
	e.GET(h.Kind.DeleteRoute(), h.Delete, guard)
}
