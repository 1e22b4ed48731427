package users

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucial707/pokecollect/cmd/pokedex/output"
	"github.com/crucial707/pokecollect/cmd/pokedex/root"
	"github.com/crucial707/pokecollect/internal/repo"
	"github.com/crucial707/pokecollect/internal/service"
)

// SeedPassword is the password given to the seeded demo accounts.
const SeedPassword = "testpass"

// SeedUsernames are the demo accounts created by "users seed".
var SeedUsernames = []string{"test1", "test2"}

// ==========================
// Init Users
// ==========================
func InitUsers(rootCmd *cobra.Command) {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	usersCmd.AddCommand(
		seedUsersCmd(),
		createUserCmd(),
		listUsersCmd(),
	)

	rootCmd.AddCommand(usersCmd)
}

// ==========================
// SEED
// ==========================
func seedUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo accounts test1 and test2",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, cfg, err := root.OpenDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			svc := service.NewAuthService(repo.NewUserRepo(database), cfg.BcryptCost)
			for _, name := range SeedUsernames {
				_, err := svc.Register(ctx, service.Credentials{Username: name, Password: SeedPassword})
				switch {
				case errors.Is(err, service.ErrDuplicateUsername):
					fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, skipped\n", name)
				case err != nil:
					return fmt.Errorf("seed %s: %w", name, err)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", name)
				}
			}
			return nil
		},
	}
}

// ==========================
// CREATE
// ==========================
func createUserCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, cfg, err := root.OpenDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			svc := service.NewAuthService(repo.NewUserRepo(database), cfg.BcryptCost)
			user, err := svc.Register(ctx, service.Credentials{Username: username, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// ==========================
// LIST
// ==========================
func listUsersCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, _, err := root.OpenDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			list, err := repo.NewUserRepo(database).List(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				return output.RenderJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]interface{}, 0, len(list))
			for _, u := range list {
				rows = append(rows, []interface{}{u.ID, u.Username, u.CreatedAt.Format(time.DateOnly)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Username", "Created"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}
