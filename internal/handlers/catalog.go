package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/crucial707/pokecollect/internal/models"
)

// SpeciesLister is implemented by *service.InventoryService.
type SpeciesLister interface {
	ListAllSpecies(ctx context.Context, prefix string) ([]models.Pokemon, error)
}

// CatalogHandler serves the public species list.
type CatalogHandler struct {
	Species SpeciesLister
	Views   *Renderer
}

// List handles GET /pokemon, optionally narrowed by ?q=<name prefix>.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	list, err := h.Species.ListAllSpecies(r.Context(), q)
	if err != nil {
		h.Views.ServerError(w, r, err)
		return
	}
	h.Views.Render(w, r, http.StatusOK, "species.html", Page{Title: "Pokedex", Form: q, Data: list})
}
