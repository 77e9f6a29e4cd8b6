package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/media-catalog/internal/middleware"
	"github.com/iliyamo/media-catalog/internal/model"
	"github.com/iliyamo/media-catalog/internal/queue"
	"github.com/iliyamo/media-catalog/internal/repository"
	"github.com/iliyamo/media-catalog/internal/session"
	"github.com/iliyamo/media-catalog/internal/utils"
	"github.com/iliyamo/media-catalog/internal/view"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]model.User{}} }

func (m *memUsers) Create(_ context.Context, username, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	name := repository.NormalizeUsername(username)
	if _, ok := m.users[name]; ok {
		return repository.ErrUsernameExists
	}
	m.users[name] = model.User{ID: primitive.NewObjectID(), Username: name, Password: hash}
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[repository.NormalizeUsername(username)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *memUsers) remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, name)
}

// memStore is an in-memory Store keeping insertion order.  keep copies
// fields the real repository leaves untouched on update.
type memStore[T any] struct {
	mu    sync.Mutex
	idOf  func(*T) *primitive.ObjectID
	keep  func(old, updated *T)
	order []string
	docs  map[string]T
}

func newMemStore[T any](idOf func(*T) *primitive.ObjectID) *memStore[T] {
	return &memStore[T]{idOf: idOf, docs: map[string]T{}}
}

func (s *memStore[T]) List(context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id])
	}
	return out, nil
}

func (s *memStore[T]) Get(_ context.Context, id string) (*T, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &doc, nil
}

func (s *memStore[T]) Create(_ context.Context, doc *T) (string, error) {
	oid := primitive.NewObjectID()
	*s.idOf(doc) = oid
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[oid.Hex()] = *doc
	s.order = append(s.order, oid.Hex())
	return oid.Hex(), nil
}

func (s *memStore[T]) Update(_ context.Context, id string, doc *T) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	updated := *doc
	*s.idOf(&updated) = oid
	if s.keep != nil {
		s.keep(&old, &updated)
	}
	s.docs[id] = updated
	return nil
}

func (s *memStore[T]) Delete(_ context.Context, id string) (bool, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return false, repository.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false, nil
	}
	delete(s.docs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// memCategories sorts like the repository does for the categories kind.
type memCategories struct{ *memStore[model.Category] }

func (s memCategories) List(ctx context.Context) ([]model.Category, error) {
	out, _ := s.memStore.List(ctx)
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryName < out[j].CategoryName })
	return out, nil
}

// memCharacters adds a substring search standing in for $text.
type memCharacters struct {
	*memStore[model.Character]
	queries []string
}

func (s *memCharacters) Search(ctx context.Context, q string) ([]model.Character, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	all, _ := s.List(ctx)
	var out []model.Character
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.CharacterName+" "+c.CharacterDescription), strings.ToLower(q)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memCharacters) searched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.CatalogChangedEvent
}

func (p *recordingPublisher) PublishCatalogChanged(_ context.Context, ev queue.CatalogChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) snapshot() []queue.CatalogChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.CatalogChangedEvent(nil), p.events...)
}

type recordingCache struct {
	mu     sync.Mutex
	routes []string
}

func (rc *recordingCache) Invalidate(_ context.Context, routes ...string) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.routes = append(rc.routes, routes...)
	return nil
}

// recordingRenderer renders through the real templates and remembers the
// last page and data.
type recordingRenderer struct {
	inner *view.Renderer
	mu    sync.Mutex
	name  string
	data  echo.Map
}

func (r *recordingRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	r.mu.Lock()
	r.name = name
	r.data, _ = data.(echo.Map)
	r.mu.Unlock()
	return r.inner.Render(w, name, data, c)
}

func (r *recordingRenderer) last() (string, echo.Map) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name, r.data
}

type testApp struct {
	t          *testing.T
	srv        *httptest.Server
	client     *http.Client
	users      *memUsers
	categories memCategories
	shows      *memStore[model.Show]
	films      *memStore[model.Film]
	characters *memCharacters
	events     *recordingPublisher
	cache      *recordingCache
	renderer   *recordingRenderer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	pages, err := view.New()
	require.NoError(t, err)

	app := &testApp{
		t:          t,
		users:      newMemUsers(),
		categories: memCategories{newMemStore(func(c *model.Category) *primitive.ObjectID { return &c.ID })},
		shows:      newMemStore(func(s *model.Show) *primitive.ObjectID { return &s.ID }),
		films:      newMemStore(func(f *model.Film) *primitive.ObjectID { return &f.ID }),
		characters: &memCharacters{memStore: newMemStore(func(c *model.Character) *primitive.ObjectID { return &c.ID })},
		events:     &recordingPublisher{},
		cache:      &recordingCache{},
		renderer:   &recordingRenderer{inner: pages},
	}
	app.shows.keep = func(old, updated *model.Show) {
		if updated.PostedBy == "" {
			updated.PostedBy = old.PostedBy
		}
	}

	sessions := session.NewManager("test-secret", time.Hour, false)
	e := echo.New()
	e.Renderer = app.renderer
	e.Use(middleware.LoadSession(sessions))

	getPost := []string{http.MethodGet, http.MethodPost}
	guard := middleware.RequireUser()

	e.GET("/", Home)
	e.GET("/healthz", Health)
	e.Match(getPost, "/search", NewSearchHandler(app.characters).Search)

	auth := NewAuthHandler(app.users, sessions, bcrypt.MinCost)
	e.Match(getPost, "/register", auth.Register)
	e.Match(getPost, "/signin", auth.Signin)
	e.GET("/signout", auth.Signout)
	e.Match(getPost, "/profile/:username", auth.Profile, guard)

	register := func(list, add, edit, del string, l, a, ed, d echo.HandlerFunc) {
		e.GET(list, l)
		e.Match(getPost, add, a, guard)
		e.Match(getPost, edit, ed, guard)
		e.GET(del, d, guard)
	}
	cats := NewCatalogHandler(model.CategoryKind, app.categories, nil, app.events, app.cache)
	register(model.CategoryKind.ListPath(), model.CategoryKind.AddPath(), model.CategoryKind.EditRoute(), model.CategoryKind.DeleteRoute(),
		cats.List, cats.Add, cats.Edit, cats.Delete)
	shows := NewCatalogHandler(model.ShowKind, app.shows, app.categories, app.events, app.cache)
	register(model.ShowKind.ListPath(), model.ShowKind.AddPath(), model.ShowKind.EditRoute(), model.ShowKind.DeleteRoute(),
		shows.List, shows.Add, shows.Edit, shows.Delete)
	films := NewCatalogHandler(model.FilmKind, app.films, app.categories, app.events, app.cache)
	register(model.FilmKind.ListPath(), model.FilmKind.AddPath(), model.FilmKind.EditRoute(), model.FilmKind.DeleteRoute(),
		films.List, films.Add, films.Edit, films.Delete)
	chars := NewCatalogHandler(model.CharacterKind, app.characters, app.categories, app.events, app.cache)
	register(model.CharacterKind.ListPath(), model.CharacterKind.AddPath(), model.CharacterKind.EditRoute(), model.CharacterKind.DeleteRoute(),
		chars.List, chars.Add, chars.Edit, chars.Delete)

	app.srv = httptest.NewServer(e)
	t.Cleanup(app.srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	app.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return app
}

type response struct {
	status   int
	location string
	body     string
}

func (a *testApp) do(method, path string, form url.Values) response {
	a.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, a.srv.URL+path, body)
	require.NoError(a.t, err)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	res, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(a.t, err)
	return response{status: res.StatusCode, location: res.Header.Get(echo.HeaderLocation), body: string(b)}
}

func (a *testApp) get(path string) response { return a.do(http.MethodGet, path, nil) }

func (a *testApp) post(path string, form url.Values) response {
	return a.do(http.MethodPost, path, form)
}

// follow GETs the redirect target of res, which renders pending flashes.
func (a *testApp) follow(res response) response {
	a.t.Helper()
	require.Equal(a.t, http.StatusSeeOther, res.status, res.body)
	return a.get(res.location)
}

func (a *testApp) signUp(username string) {
	a.t.Helper()
	res := a.post("/register", url.Values{"username": {username}, "password": {"pw-" + username}})
	require.Equal(a.t, http.StatusSeeOther, res.status)
	a.follow(res)
}

func (a *testApp) hasSession() bool {
	u, _ := url.Parse(a.srv.URL)
	for _, ck := range a.client.Jar.Cookies(u) {
		if ck.Name == session.CookieName && ck.Value != "" {
			return true
		}
	}
	return false
}
