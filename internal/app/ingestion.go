package app

import (
	"context"
	"fmt"
	"log/slog"

	"recipe-catalog/internal/config"
	"recipe-catalog/internal/database"
	"recipe-catalog/internal/ghost"
	"recipe-catalog/internal/recipe"
	"recipe-catalog/internal/storage"
)

// LoadCatalog builds the catalog from the source named in cfg. The catalog is
// read once; database connections are closed before returning.
func LoadCatalog(ctx context.Context, cfg *config.Config) (*recipe.Catalog, error) {
	var provider recipe.Provider

	switch cfg.CatalogSource {
	case config.SourceDatabase:
		db, err := database.NewDB(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		provider = recipe.NewRepository(db.SQL, db.Driver)
	case config.SourceFiles:
		store, err := storage.NewRecipeStore(cfg.RecipeStoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file-based recipe store: %w", err)
		}
		provider = store
	case config.SourceGhost:
		provider = ghost.NewProvider(ghost.NewClient(cfg))
	default:
		provider = recipe.NewSeedProvider()
	}

	catalog, err := recipe.Load(ctx, provider)
	if err != nil {
		return nil, err
	}
	slog.Info("Catalog loaded", "source", cfg.CatalogSource, "recipes", catalog.Len())
	return catalog, nil
}

// ImportRecipes copies every recipe of src into the database, updating rows
// that already exist. It returns the number of recipes written.
func ImportRecipes(ctx context.Context, src recipe.Provider, repo *recipe.Repository) (int, error) {
	recipes, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list source recipes: %w", err)
	}

	fmt.Printf("Importing %d recipes...\n", len(recipes))
	saved := 0
	for _, rec := range recipes {
		if err := repo.Save(ctx, rec); err != nil {
			slog.Error("Failed to save recipe", "id", rec.ID, "title", rec.Title, "error", err)
			continue
		}
		saved++
		slog.Info("Recipe imported", "id", rec.ID, "title", rec.Title)
	}
	fmt.Printf("Import complete. Saved %d of %d recipes.\n", saved, len(recipes))

	if saved < len(recipes) {
		return saved, fmt.Errorf("failed to save %d recipes", len(recipes)-saved)
	}
	return saved, nil
}

// ExportRecipes writes every recipe of src as a JSON file into store.
func ExportRecipes(ctx context.Context, src recipe.Provider, store *storage.RecipeStore) (int, error) {
	recipes, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	for i, rec := range recipes {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := store.Save(rec); err != nil {
			return i, fmt.Errorf("failed to export recipe %d: %w", rec.ID, err)
		}
	}
	fmt.Printf("Exported %d recipes.\n", len(recipes))
	return len(recipes), nil
}
