package handlers

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// ServerError logs err with the request context and renders the generic error page.
func (v *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed",
		"request_id", chimw.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	v.Render(w, r, http.StatusInternalServerError, "error.html", Page{Title: "Error", Error: ErrMessageInternal})
}

// NotFound renders the 404 page.
func (v *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	v.Render(w, r, http.StatusNotFound, "error.html", Page{Title: "Not found", Error: "Pokemon not found"})
}
