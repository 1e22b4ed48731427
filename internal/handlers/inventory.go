package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crucial707/pokecollect/internal/auth"
	"github.com/crucial707/pokecollect/internal/models"
	"github.com/crucial707/pokecollect/internal/service"
)

// Inventory is implemented by *service.InventoryService.
type Inventory interface {
	ListForUser(ctx context.Context, id auth.Identity) ([]models.UserMon, error)
	Add(ctx context.Context, id auth.Identity, in service.AddInput) (*models.UserMon, error)
	GetDetails(ctx context.Context, id auth.Identity, recordID int) (*models.UserMon, error)
	Edit(ctx context.Context, id auth.Identity, recordID int, in service.StatsInput) (*models.UserMon, error)
	ListAllSpecies(ctx context.Context, prefix string) ([]models.Pokemon, error)
	RecentActivity(ctx context.Context, id auth.Identity, limit int) ([]models.Activity, error)
}

// recentActivityLimit is how many history entries the list page shows.
const recentActivityLimit = 10

type inventoryPage struct {
	Mons     []models.UserMon
	Activity []models.Activity
}

// Flasher queues a message for the next rendered page. *session.Manager implements it.
type Flasher interface {
	AddFlash(ctx context.Context, w http.ResponseWriter, r *http.Request, msg string) error
}

// ==========================
// Inventory Handler
// ==========================

// InventoryHandler serves /user/pokemon. Routes are mounted behind
// middleware.RequireLogin; the identity in the context scopes every call.
type InventoryHandler struct {
	Inventory Inventory
	Flash     Flasher
	Views     *Renderer
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	mons, err := h.Inventory.ListForUser(r.Context(), id)
	if err != nil {
		h.Views.ServerError(w, r, err)
		return
	}
	activity, err := h.Inventory.RecentActivity(r.Context(), id, recentActivityLimit)
	if err != nil {
		h.Views.ServerError(w, r, err)
		return
	}
	h.Views.Render(w, r, http.StatusOK, "inventory.html", Page{
		Title: "My Pokemon",
		Data:  inventoryPage{Mons: mons, Activity: activity},
	})
}

// ==========================
// Add
// ==========================
func (h *InventoryHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.renderAdd(w, r, http.StatusOK, addForm{}, nil)
}

func (h *InventoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var in addForm
	if err := decodeForm(r, &in); err != nil {
		formError(w, err)
		return
	}

	stats, fields := in.stats().parse()
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "required"
	}
	if len(fields) > 0 {
		h.renderAdd(w, r, http.StatusUnprocessableEntity, in, fields)
		return
	}

	mon, err := h.Inventory.Add(r.Context(), id, service.AddInput{Species: in.Name, Stats: stats})
	var vErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrUnknownSpecies):
		h.renderAdd(w, r, http.StatusUnprocessableEntity, in, map[string]string{"name": "unknown Pokemon"})
		return
	case errors.As(err, &vErr):
		h.renderAdd(w, r, http.StatusUnprocessableEntity, in, vErr.Fields)
		return
	case err != nil:
		h.Views.ServerError(w, r, err)
		return
	}

	h.flash(w, r, "Added "+mon.PokemonName)
	http.Redirect(w, r, "/user/pokemon", http.StatusFound)
}

func (h *InventoryHandler) renderAdd(w http.ResponseWriter, r *http.Request, status int, form addForm, fields map[string]string) {
	species, err := h.Inventory.ListAllSpecies(r.Context(), "")
	if err != nil {
		h.Views.ServerError(w, r, err)
		return
	}
	var msg string
	if len(fields) > 0 {
		msg = "Please fix the highlighted fields"
	}
	h.Views.Render(w, r, status, "add.html", Page{
		Title:  "Add Pokemon",
		Error:  msg,
		Fields: fields,
		Form:   form,
		Data:   species,
	})
}

// ==========================
// Details
// ==========================
func (h *InventoryHandler) Details(w http.ResponseWriter, r *http.Request) {
	mon, ok := h.owned(w, r)
	if !ok {
		return
	}
	h.Views.Render(w, r, http.StatusOK, "details.html", Page{Title: mon.PokemonName, Data: mon})
}

// ==========================
// Edit
// ==========================
func (h *InventoryHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	mon, ok := h.owned(w, r)
	if !ok {
		return
	}
	h.Views.Render(w, r, http.StatusOK, "edit.html", Page{
		Title: "Edit " + mon.PokemonName,
		Form:  statsFormFrom(mon.Stats),
		Data:  mon,
	})
}

func (h *InventoryHandler) Edit(w http.ResponseWriter, r *http.Request) {
	mon, ok := h.owned(w, r)
	if !ok {
		return
	}
	var in statsForm
	if err := decodeForm(r, &in); err != nil {
		formError(w, err)
		return
	}

	stats, fields := in.parse()
	if len(fields) == 0 {
		id, _ := auth.FromContext(r.Context())
		_, err := h.Inventory.Edit(r.Context(), id, mon.ID, stats)
		var vErr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.Views.NotFound(w, r)
			return
		case errors.As(err, &vErr):
			fields = vErr.Fields
		case err != nil:
			h.Views.ServerError(w, r, err)
			return
		}
	}
	if len(fields) > 0 {
		h.Views.Render(w, r, http.StatusUnprocessableEntity, "edit.html", Page{
			Title:  "Edit " + mon.PokemonName,
			Error:  "Please fix the highlighted fields",
			Fields: fields,
			Form:   in,
			Data:   mon,
		})
		return
	}

	h.flash(w, r, "Updated "+mon.PokemonName)
	http.Redirect(w, r, "/user/pokemon", http.StatusFound)
}

// ==========================
// Helpers
// ==========================

// identity returns the caller, redirecting to login when the route was not
// mounted behind RequireLogin.
func (h *InventoryHandler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
	}
	return id, ok
}

// owned loads the {id} record for the caller; anything else is a 404.
func (h *InventoryHandler) owned(w http.ResponseWriter, r *http.Request) (*models.UserMon, bool) {
	id, ok := h.identity(w, r)
	if !ok {
		return nil, false
	}
	recordID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || recordID <= 0 {
		h.Views.NotFound(w, r)
		return nil, false
	}

	mon, err := h.Inventory.GetDetails(r.Context(), id, recordID)
	if errors.Is(err, service.ErrRecordNotFound) {
		h.Views.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		h.Views.ServerError(w, r, err)
		return nil, false
	}
	return mon, true
}

func (h *InventoryHandler) flash(w http.ResponseWriter, r *http.Request, msg string) {
	if h.Flash == nil {
		return
	}
	if err := h.Flash.AddFlash(r.Context(), w, r, msg); err != nil {
		slog.Warn("add flash failed",
			"request_id", chimw.GetReqID(r.Context()),
			"error", err)
	}
}
