package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterThenSignin(t *testing.T) {
	app := newTestApp(t)

	res := app.post("/register", url.Values{"username": {"  Alice "}, "password": {"wonderland"}})
	require.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/profile/alice", res.location)
	assert.True(t, app.hasSession())

	profile := app.follow(res)
	assert.Equal(t, http.StatusOK, profile.status)
	assert.Contains(t, profile.body, "Registration Successful!")
	assert.Contains(t, profile.body, "alice&#39;s profile")

	app.follow(app.get("/signout"))
	assert.False(t, app.hasSession())

	res = app.post("/signin", url.Values{"username": {"ALICE"}, "password": {"wonderland"}})
	require.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/profile/alice", res.location)
	assert.True(t, app.hasSession())
	assert.Contains(t, app.follow(res).body, "Welcome, ALICE")
}

func TestRegisterDuplicateIsCaseInsensitive(t *testing.T) {
	app := newTestApp(t)
	app.signUp("bob")
	app.follow(app.get("/signout"))

	res := app.post("/register", url.Values{"username": {"BOB"}, "password": {"other"}})
	require.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/register", res.location)
	assert.Contains(t, app.follow(res).body, "Username already exists")
	assert.Equal(t, 1, app.users.count())
	assert.False(t, app.hasSession())

	// The original password still works.
	res = app.post("/signin", url.Values{"username": {"bob"}, "password": {"pw-bob"}})
	assert.Equal(t, "/profile/bob", res.location)
}

func TestRegisterRequiresBothFields(t *testing.T) {
	app := newTestApp(t)

	res := app.post("/register", url.Values{"username": {"carol"}})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "password is required")
	assert.Contains(t, res.body, `value="carol"`)
	assert.Zero(t, app.users.count())
}

func TestSigninFailuresAreIndistinguishable(t *testing.T) {
	app := newTestApp(t)
	app.signUp("dave")
	app.follow(app.get("/signout"))

	wrong := app.post("/signin", url.Values{"username": {"dave"}, "password": {"nope"}})
	unknown := app.post("/signin", url.Values{"username": {"nobody"}, "password": {"nope"}})

	for _, res := range []response{wrong, unknown} {
		require.Equal(t, http.StatusSeeOther, res.status)
		assert.Equal(t, "/signin", res.location)
	}
	assert.False(t, app.hasSession())

	app.post("/signin", url.Values{"username": {"dave"}, "password": {"nope"}})
	page := app.get("/signin")
	assert.Contains(t, page.body, badCredentials)
}

func TestProfileRequiresSession(t *testing.T) {
	app := newTestApp(t)

	res := app.get("/profile/erin")
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/signin", res.location)
}

func TestProfileShowsOnlyOwn(t *testing.T) {
	app := newTestApp(t)
	app.signUp("frank")

	res := app.get("/profile/grace")
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/profile/frank", res.location)

	res = app.get("/profile/frank")
	assert.Equal(t, http.StatusOK, res.status)
	name, data := app.renderer.last()
	assert.Equal(t, "profile.html", name)
	assert.Equal(t, "frank", data["Username"])
	assert.Equal(t, "frank", data["User"])
}

func TestProfileOfRemovedUserClearsSession(t *testing.T) {
	app := newTestApp(t)
	app.signUp("heidi")
	app.users.remove("heidi")

	res := app.get("/profile/heidi")
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/signin", res.location)
	assert.False(t, app.hasSession())
}

func TestSignoutWithoutSession(t *testing.T) {
	app := newTestApp(t)

	res := app.get("/signout")
	require.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/signin", res.location)
	assert.Contains(t, app.follow(res).body, "You have been signed out")
}

func TestProfileRedirectEscapesUsername(t *testing.T) {
	for _, name := range []string{"bob?x", "50%off", "a#b c/d"} {
		t.Run(name, func(t *testing.T) {
			app := newTestApp(t)

			res := app.post("/register", url.Values{"username": {name}, "password": {"secret"}})
			require.Equal(t, http.StatusSeeOther, res.status)
			assert.Equal(t, "/profile/"+url.PathEscape(name), res.location)

			profile := app.follow(res)
			require.Equal(t, http.StatusOK, profile.status)
			assert.Contains(t, profile.body, "Registration Successful!")
			assert.Contains(t, profile.body, `href="/profile/`+url.PathEscape(name)+`"`)
			_, data := app.renderer.last()
			assert.Equal(t, name, data["Username"])

			app.follow(app.get("/signout"))
			res = app.post("/signin", url.Values{"username": {name}, "password": {"secret"}})
			require.Equal(t, http.StatusSeeOther, res.status)
			assert.Equal(t, http.StatusOK, app.follow(res).status)
		})
	}
}
