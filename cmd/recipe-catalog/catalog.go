package main

import (
	"errors"
	"fmt"

	"recipe-catalog/internal/app"
	"recipe-catalog/internal/database"
	"recipe-catalog/internal/ghost"
	"recipe-catalog/internal/recipe"
	"recipe-catalog/internal/storage"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewDB(cmd.Context(), cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		n, err := recipe.NewRepository(db.SQL, db.Driver).Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Database is up to date (%d recipes).\n", n)
		return nil
	},
}

var importGhostCmd = &cobra.Command{
	Use:   "import-ghost",
	Short: "Copy recipes from the Ghost Content API into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.GhostURL == "" || cfg.GhostContentKey == "" {
			return errors.New("GHOST_API_URL and GHOST_CONTENT_API_KEY must be set")
		}

		db, err := database.NewDB(cmd.Context(), cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		src := ghost.NewProvider(ghost.NewClient(cfg))
		_, err = app.ImportRecipes(cmd.Context(), src, recipe.NewRepository(db.SQL, db.Driver))
		return err
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Write the configured catalog as JSON files, one per recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := app.LoadCatalog(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		store, err := storage.NewRecipeStore(args[0])
		if err != nil {
			return err
		}
		_, err = app.ExportRecipes(cmd.Context(), catalog.Provider(), store)
		return err
	},
}
