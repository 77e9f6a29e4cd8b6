package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-catalog/internal/logging"
	"github.com/iliyamo/media-catalog/internal/model"
	"github.com/iliyamo/media-catalog/internal/queue"
	"github.com/iliyamo/media-catalog/internal/repository"
	"github.com/iliyamo/media-catalog/internal/service"
	"github.com/iliyamo/media-catalog/internal/session"
	"github.com/iliyamo/media-catalog/internal/validation"
)

// Store is the document store behind one catalog collection.
// repository.CatalogRepo satisfies it.
type Store[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, doc *T) (string, error)
	Update(ctx context.Context, id string, doc *T) error
	Delete(ctx context.Context, id string) (bool, error)
}

// CategoryLister provides the category choices offered on forms.
type CategoryLister interface {
	List(ctx context.Context) ([]model.Category, error)
}

// CacheInvalidator drops cached pages for routes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, routes ...string) error
}

// CatalogHandler serves the listing and the add, edit and delete forms of
// one catalog collection.
type CatalogHandler[T any] struct {
	Kind       model.Kind[T]
	Store      Store[T]
	Categories CategoryLister
	Events     service.EventPublisher
	Cache      CacheInvalidator

	// Invalidates lists the cached routes showing this collection.
	Invalidates []string
}

// NewCatalogHandler wires a handler for kind.  events and cache may be nil.
func NewCatalogHandler[T any](kind model.Kind[T], store Store[T], cats CategoryLister, events service.EventPublisher, cache CacheInvalidator) *CatalogHandler[T] {
	if store == nil {
		panic("nil store passed to NewCatalogHandler")
	}
	if kind.NeedsCategories && cats == nil {
		panic("kind " + kind.Singular + " needs a category lister")
	}
	if events == nil {
		events = service.NopPublisher{}
	}
	invalidates := []string{kind.ListPath()}
	if kind.SearchPath != "" {
		invalidates = append(invalidates, kind.SearchPath)
	}
	return &CatalogHandler[T]{
		Kind:        kind,
		Store:       store,
		Categories:  cats,
		Events:      events,
		Cache:       cache,
		Invalidates: invalidates,
	}
}

// List renders every document of the collection.
func (h *CatalogHandler[T]) List(c echo.Context) error {
	ctx, cancel := storeContext(c)
	defer cancel()

	items, err := h.Store.List(ctx)
	if err != nil {
		return internalError(c, err, "list "+h.Kind.Plural+" failed")
	}
	return render(c, http.StatusOK, h.Kind.ListTemplate, echo.Map{"Items": items})
}

// Add renders the empty form on GET and inserts the document on POST.
func (h *CatalogHandler[T]) Add(c echo.Context) error {
	ctx, cancel := storeContext(c)
	defer cancel()

	doc := new(T)
	if c.Request().Method == http.MethodGet {
		return h.renderForm(ctx, c, http.StatusOK, h.Kind.AddPath(), false, doc, nil)
	}

	user, _ := session.Current(c)
	if err := c.Bind(doc); err != nil {
		return badRequest(c)
	}
	h.Kind.Prepare(doc, user.Username)
	if verr := validation.ValidateStruct(doc); verr != nil {
		return h.renderForm(ctx, c, http.StatusBadRequest, h.Kind.AddPath(), false, doc, verr.Fields())
	}

	id, err := h.Store.Create(ctx, doc)
	if err != nil {
		return internalError(c, err, "create "+h.Kind.Singular+" failed")
	}
	h.changed(c, queue.ActionCreated, id, doc)

	session.Flash(c, h.Kind.Added())
	return redirect(c, h.Kind.ListPath())
}

// Edit renders the stored document on GET and overwrites it on POST.
func (h *CatalogHandler[T]) Edit(c echo.Context) error {
	ctx, cancel := storeContext(c)
	defer cancel()

	id := c.Param("id")
	action := h.Kind.EditPath(id)

	if c.Request().Method == http.MethodGet {
		doc, err := h.Store.Get(ctx, id)
		if err != nil {
			return h.storeError(c, err, "get "+h.Kind.Singular+" failed")
		}
		return h.renderForm(ctx, c, http.StatusOK, action, true, doc, nil)
	}

	doc := new(T)
	if err := c.Bind(doc); err != nil {
		return badRequest(c)
	}
	h.Kind.Prepare(doc, "")
	if verr := validation.ValidateStruct(doc); verr != nil {
		return h.renderForm(ctx, c, http.StatusBadRequest, action, true, doc, verr.Fields())
	}

	if err := h.Store.Update(ctx, id, doc); err != nil {
		return h.storeError(c, err, "update "+h.Kind.Singular+" failed")
	}
	h.changed(c, queue.ActionUpdated, id, doc)

	session.Flash(c, h.Kind.Singular+" successfully updated")
	return redirect(c, action)
}

// Delete removes the document and returns to the listing.  Deleting an id
// that does not exist still succeeds.
func (h *CatalogHandler[T]) Delete(c echo.Context) error {
	ctx, cancel := storeContext(c)
	defer cancel()

	id := c.Param("id")
	deleted, err := h.Store.Delete(ctx, id)
	if err != nil {
		return h.storeError(c, err, "delete "+h.Kind.Singular+" failed")
	}
	if deleted {
		h.changed(c, queue.ActionDeleted, id, nil)
	}

	session.Flash(c, h.Kind.Singular+" successfully deleted")
	return redirect(c, h.Kind.ListPath())
}

func (h *CatalogHandler[T]) renderForm(ctx context.Context, c echo.Context, status int, action string, editing bool, doc *T, errs map[string]string) error {
	data := echo.Map{
		"Action":  action,
		"Editing": editing,
		"Doc":     doc,
	}
	if errs != nil {
		data["Errors"] = errs
	}
	if h.Kind.NeedsCategories {
		cats, err := h.Categories.List(ctx)
		if err != nil {
			return internalError(c, err, "list categories failed")
		}
		data["Categories"] = cats
	}
	return render(c, status, h.Kind.FormTemplate, data)
}

// storeError maps repository errors to an error page.
func (h *CatalogHandler[T]) storeError(c echo.Context, err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return badRequest(c)
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c)
	default:
		return internalError(c, err, msg)
	}
}

// changed drops stale cached listings and publishes a change event.
// Neither failure affects the response.
func (h *CatalogHandler[T]) changed(c echo.Context, action, id string, doc *T) {
	ctx := c.Request().Context()
	log := logging.Ctx(ctx)

	if h.Cache != nil {
		if err := h.Cache.Invalidate(ctx, h.Invalidates...); err != nil {
			log.Warn().Err(err).Strs("routes", h.Invalidates).Msg("cache invalidation failed")
		}
	}

	name := ""
	if doc != nil && h.Kind.Label != nil {
		name = h.Kind.Label(doc)
	}
	actor, _ := session.Current(c)
	ev := queue.NewCatalogChangedEvent(h.Kind.Collection, action, id, name, actor.Username)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	go func() {
		defer cancel()
		if err := h.Events.PublishCatalogChanged(pubCtx, ev); err != nil {
			logging.Ctx(pubCtx).Warn().Err(err).Str("event", ev.ID).Msg("publish catalog event failed")
		}
	}()
}
