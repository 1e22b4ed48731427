package root

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/crucial707/pokecollect/internal/config"
	"github.com/crucial707/pokecollect/internal/db"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:   "pokedex",
	Short: "Pokecollect admin CLI",
	Long: `Administrative commands for the Pokecollect database: schema migrations,
catalog import and user seeding. Connection settings come from the same
environment variables (or .env file) as the web server.`,
	SilenceUsage: true,
}

// OpenDB connects to the configured database. Tests swap it for a sqlmock connection.
var OpenDB = func(ctx context.Context) (*sql.DB, config.Config, error) {
	cfg := config.Load()
	database, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	return database, cfg, err
}

// GetRoot returns the RootCmd.
func GetRoot() *cobra.Command {
	return RootCmd
}
