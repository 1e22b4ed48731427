package handlers

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crucial707/pokecollect/internal/auth"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// FlashSource hands out the one-shot messages queued for a request's session.
type FlashSource interface {
	PopFlashes(ctx context.Context, r *http.Request) ([]string, error)
}

// Page is the data every template receives.
type Page struct {
	Title    string
	User     auth.Identity
	LoggedIn bool
	Flashes  []string
	Error    string
	Fields   map[string]string
	Next     string
	Form     any
	Data     any
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages   map[string]*template.Template
	flashes FlashSource
}

// NewRenderer parses every template up front. flashes may be nil.
func NewRenderer(flashes FlashSource) (*Renderer, error) {
	base, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/_*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	names, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template)
	for _, name := range names {
		file := path.Base(name)
		if file == "layout.html" || strings.HasPrefix(file, "_") {
			continue
		}
		t, err := template.Must(base.Clone()).ParseFS(templatesFS, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[file] = t
	}
	return &Renderer{pages: pages, flashes: flashes}, nil
}

// Static serves the embedded stylesheet under /static/.
func Static() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Render writes the named page with the given status. The page is buffered
// so a template failure still produces a clean 500.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	t, ok := v.pages[name]
	if !ok {
		slog.Error("unknown template", "template", name)
		http.Error(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	p.User, p.LoggedIn = auth.FromContext(r.Context())
	if v.flashes != nil {
		flashes, err := v.flashes.PopFlashes(r.Context(), r)
		if err != nil {
			slog.Warn("pop flashes failed",
				"request_id", chimw.GetReqID(r.Context()),
				"error", err)
		}
		p.Flashes = append(p.Flashes, flashes...)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		slog.Error("template execute",
			"request_id", chimw.GetReqID(r.Context()),
			"template", name,
			"error", err)
		http.Error(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
