package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-catalog/internal/model"
)

// CharacterSearcher runs text searches over characters.
type CharacterSearcher interface {
	List(ctx context.Context) ([]model.Character, error)
	Search(ctx context.Context, query string) ([]model.Character, error)
}

// SearchHandler serves /search.
type SearchHandler struct {
	Characters CharacterSearcher
}

func NewSearchHandler(chars CharacterSearcher) *SearchHandler {
	return &SearchHandler{Characters: chars}
}

// Search renders the characters matching the query form field, or every
// character when the query is blank.
func (h *SearchHandler) Search(c echo.Context) error {
	query := strings.TrimSpace(c.FormValue("query"))

	ctx, cancel := storeContext(c)
	defer cancel()

	var (
		items []model.Character
		err   error
	)
	if query == "" {
		items, err = h.Characters.List(ctx)
	} else {
		items, err = h.Characters.Search(ctx, query)
	}
	if err != nil {
		return internalError(c, err, "search characters failed")
	}
	return render(c, http.StatusOK, model.CharacterKind.ListTemplate, echo.Map{
		"Items": items,
		"Query": query,
	})
}
