package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/pokecollect/internal/catalog"
	"github.com/crucial707/pokecollect/internal/config"
	"github.com/crucial707/pokecollect/internal/db"
	"github.com/crucial707/pokecollect/internal/logging"
	"github.com/crucial707/pokecollect/internal/repo"
	"github.com/crucial707/pokecollect/internal/scheduler"
	"github.com/crucial707/pokecollect/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logging.Setup(cfg.LogFormat, cfg.Env)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Schema first, then the pool.
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer database.Close()
	slog.Info("connected to database")

	store, closeStore, err := sessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	importer := catalog.NewImporter(cfg.CatalogSourceURL, repo.NewPokemonRepo(database))
	if cfg.CatalogSeedOnStart {
		if _, err := importer.Run(ctx); err != nil {
			slog.Warn("catalog seed on start failed; serving the existing catalog", "error", err)
		}
	}
	if cfg.CatalogSyncCron != "" {
		if _, err := scheduler.Start(ctx, cfg.CatalogSyncCron, "catalog-sync", importer); err != nil {
			return err
		}
	}

	handler, err := newRouter(database, store, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web server listening", "addr", srv.Addr, "tls", cfg.UseTLS())
		if cfg.UseTLS() {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sessionStore returns the Redis store when REDIS_ADDR is set and the
// in-memory store otherwise.
func sessionStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Warn("REDIS_ADDR not set; sessions are kept in memory")
		return session.NewMemoryStore(), func() {}, nil
	}
	client, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("using redis session store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return session.NewRedisStore(client), func() { _ = client.Close() }, nil
}
