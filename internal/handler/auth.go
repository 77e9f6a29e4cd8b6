package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-catalog/internal/logging"
	"github.com/iliyamo/media-catalog/internal/model"
	"github.com/iliyamo/media-catalog/internal/repository"
	"github.com/iliyamo/media-catalog/internal/session"
	"github.com/iliyamo/media-catalog/internal/utils"
	"github.com/iliyamo/media-catalog/internal/validation"
)

// UserStore is the subset of repository.UserRepo the auth pages use.
type UserStore interface {
	Create(ctx context.Context, username, password string, cost int) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// AuthHandler bundles dependencies for the account pages.
type AuthHandler struct {
	Users      UserStore
	Sessions   *session.Manager
	BcryptCost int
}

func NewAuthHandler(users UserStore, sessions *session.Manager, cost int) *AuthHandler {
	return &AuthHandler{Users: users, Sessions: sessions, BcryptCost: cost}
}

const badCredentials = "Incorrect Username and/or Password"

type credentialsForm struct {
	Username string `form:"username" validate:"required,max=64"`
	Password string `form:"password" validate:"required,max=72"`
}

// bindCredentials binds and validates the form.  On failure it has already
// re-rendered page with status 400 and returns ok=false.
func bindCredentials(c echo.Context, page string) (credentialsForm, bool, error) {
	var f credentialsForm
	if err := c.Bind(&f); err != nil {
		return f, false, badRequest(c)
	}
	f.Username = repository.NormalizeUsername(f.Username)
	if verr := validation.ValidateStruct(f); verr != nil {
		return f, false, render(c, http.StatusBadRequest, page, echo.Map{
			"Username": f.Username,
			"Errors":   verr.Fields(),
		})
	}
	return f, true, nil
}

// Register shows the registration form and creates accounts.
func (h *AuthHandler) Register(c echo.Context) error {
	if c.Request().Method == http.MethodGet {
		return render(c, http.StatusOK, "register.html", nil)
	}
	f, ok, err := bindCredentials(c, "register.html")
	if !ok {
		return err
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	switch _, err := h.Users.GetByUsername(ctx, f.Username); {
	case err == nil:
		session.Flash(c, "Username already exists")
		return redirect(c, "/register")
	case !errors.Is(err, repository.ErrNotFound):
		return internalError(c, err, "lookup user failed")
	}

	if err := h.Users.Create(ctx, f.Username, f.Password, h.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			session.Flash(c, "Username already exists")
			return redirect(c, "/register")
		}
		return internalError(c, err, "create user failed")
	}
	if err := h.Sessions.Issue(c, f.Username); err != nil {
		return internalError(c, err, "issue session failed")
	}
	logging.Ctx(ctx).Info().Str("user", f.Username).Msg("user registered")

	session.Flash(c, "Registration Successful!")
	return redirect(c, profilePath(f.Username))
}

// Signin shows the sign-in form and verifies credentials.  An unknown user
// and a wrong password are indistinguishable to the caller.
func (h *AuthHandler) Signin(c echo.Context) error {
	if c.Request().Method == http.MethodGet {
		return render(c, http.StatusOK, "signin.html", nil)
	}
	f, ok, err := bindCredentials(c, "signin.html")
	if !ok {
		return err
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, f.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return internalError(c, err, "lookup user failed")
	}
	hash := ""
	if u != nil {
		hash = u.Password
	}
	if !utils.VerifyPassword(hash, f.Password) || u == nil {
		session.Flash(c, badCredentials)
		return redirect(c, "/signin")
	}

	if err := h.Sessions.Issue(c, u.Username); err != nil {
		return internalError(c, err, "issue session failed")
	}
	session.Flash(c, "Welcome, "+strings.TrimSpace(c.FormValue("username")))
	return redirect(c, profilePath(u.Username))
}

// Profile shows the signed-in user's own profile.  Asking for someone
// else's profile lands on the caller's own.
func (h *AuthHandler) Profile(c echo.Context) error {
	id, ok := session.Current(c)
	if !ok {
		return redirect(c, "/signin")
	}
	if !sameUser(c.Param("username"), id.Username) {
		return redirect(c, profilePath(id.Username))
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, id.Username)
	if errors.Is(err, repository.ErrNotFound) {
		h.Sessions.Clear(c)
		session.Flash(c, "Please sign in to continue")
		return redirect(c, "/signin")
	}
	if err != nil {
		return internalError(c, err, "lookup user failed")
	}
	return render(c, http.StatusOK, "profile.html", echo.Map{"Username": u.Username})
}

// Signout clears the session.  It is harmless without one.
func (h *AuthHandler) Signout(c echo.Context) error {
	h.Sessions.Clear(c)
	session.Flash(c, "You have been signed out")
	return redirect(c, "/signin")
}

// profilePath is the escaped profile URL of username.  Usernames are free
// text, so '?', '#' and '%' must not leak into the URL unescaped.
func profilePath(username string) string {
	return "/profile/" + url.PathEscape(username)
}

// sameUser reports whether the profile path parameter names username.  The
// parameter may arrive escaped or already decoded depending on the path.
func sameUser(param, username string) bool {
	if repository.NormalizeUsername(param) == username {
		return true
	}
	decoded, err := url.PathUnescape(param)
	return err == nil && repository.NormalizeUsername(decoded) == username
}
