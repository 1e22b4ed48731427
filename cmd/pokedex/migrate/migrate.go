package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucial707/pokecollect/internal/config"
	"github.com/crucial707/pokecollect/internal/db"
)

// ==========================
// Init Migrate
// ==========================
func InitMigrate(rootCmd *cobra.Command) {
	rootCmd.AddCommand(migrateCmd())
}

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if !status {
				if err := db.Migrate(cfg.DatabaseURL); err != nil {
					return err
				}
			}
			v, dirty, err := db.Version(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "print the current version without migrating")

	return cmd
}
