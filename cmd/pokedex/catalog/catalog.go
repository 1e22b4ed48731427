package catalog

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucial707/pokecollect/cmd/pokedex/output"
	"github.com/crucial707/pokecollect/cmd/pokedex/root"
	"github.com/crucial707/pokecollect/internal/catalog"
	"github.com/crucial707/pokecollect/internal/repo"
)

// ==========================
// Init Catalog
// ==========================
func InitCatalog(rootCmd *cobra.Command) {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the species catalog",
	}

	catalogCmd.AddCommand(
		seedCatalogCmd(),
		listCatalogCmd(),
	)

	rootCmd.AddCommand(catalogCmd)
}

// ==========================
// SEED
// ==========================
func seedCatalogCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import species that are not in the catalog yet",
		Long: `Fetch pokemon_names.json and insert every species missing from the
pokemon table. Safe to run repeatedly. --source accepts a base URL, a URL to
the JSON file or a local file path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, cfg, err := root.OpenDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			if source == "" {
				source = cfg.CatalogSourceURL
			}
			n, err := catalog.NewImporter(source, repo.NewPokemonRepo(database)).Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new species\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "catalog source (default CATALOG_SOURCE_URL)")

	return cmd
}

// ==========================
// LIST
// ==========================
func listCatalogCmd() *cobra.Command {
	var search string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog species",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, _, err := root.OpenDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			list, err := repo.NewPokemonRepo(database).List(ctx, search)
			if err != nil {
				return err
			}

			if asJSON {
				return output.RenderJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]interface{}, 0, len(list))
			for _, p := range list {
				rows = append(rows, []interface{}{p.ID, p.Name})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only names starting with this prefix")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}
