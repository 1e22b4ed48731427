package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/pokecollect/internal/config"
	"github.com/crucial707/pokecollect/internal/handlers"
	"github.com/crucial707/pokecollect/internal/middleware"
	"github.com/crucial707/pokecollect/internal/repo"
	"github.com/crucial707/pokecollect/internal/service"
	"github.com/crucial707/pokecollect/internal/session"
)

// newRouter wires repositories, services and handlers over database and the
// session store, and returns the complete HTTP handler.
func newRouter(database *sql.DB, store session.Store, cfg config.Config) (http.Handler, error) {
	userRepo := repo.NewUserRepo(database)
	authSvc := service.NewAuthService(userRepo, cfg.BcryptCost)
	invSvc := service.NewInventoryService(
		repo.NewPokemonRepo(database),
		repo.NewUserMonRepo(database),
		repo.NewActivityRepo(database),
	)

	sessions := session.NewManager(store, []byte(cfg.SessionSecret), cfg.SessionTTL, cfg.UseTLS())
	views, err := handlers.NewRenderer(sessions)
	if err != nil {
		return nil, err
	}

	authHandler := &handlers.AuthHandler{Auth: authSvc, Sessions: sessions, Views: views}
	invHandler := &handlers.InventoryHandler{Inventory: invSvc, Flash: sessions, Views: views}
	catalogHandler := &handlers.CatalogHandler{Species: invSvc, Views: views}
	authLimiter := middleware.AuthRateLimiter(cfg.AuthRateLimitPerMin)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.UseTLS()))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// Health (no session, no templates)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", handlers.Static())

	loadSession := middleware.LoadSession(sessions, userRepo)
	r.NotFound(loadSession(http.HandlerFunc(views.NotFound)).ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(loadSession)

		// Public
		r.Get("/", authHandler.Root)
		r.Get("/login", authHandler.LoginForm)
		r.With(authLimiter.Middleware).Post("/login", authHandler.Login)
		r.Get("/signup", authHandler.SignupForm)
		r.With(authLimiter.Middleware).Post("/signup", authHandler.Signup)
		r.Get("/logout", authHandler.Logout)
		r.Get("/pokemon", catalogHandler.List)

		// Protected
		r.Route("/user/pokemon", func(r chi.Router) {
			r.Use(middleware.RequireLogin)
			r.Get("/", invHandler.List)
			r.Get("/add", invHandler.AddForm)
			r.Post("/add", invHandler.Add)
			r.Get("/{id}/details", invHandler.Details)
			r.Get("/{id}/edit", invHandler.EditForm)
			r.Post("/{id}/edit", invHandler.Edit)
		})
	})

	return r, nil
}
