package app

import (
	"context"
	"path/filepath"
	"testing"

	"recipe-catalog/internal/config"
	"recipe-catalog/internal/database"
	"recipe-catalog/internal/recipe"
	"recipe-catalog/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	recipes []recipe.Recipe
	err     error
}

func (m *mockProvider) List(ctx context.Context) ([]recipe.Recipe, error) {
	return m.recipes, m.err
}

func (m *mockProvider) Get(ctx context.Context, id int) (recipe.Recipe, error) {
	return recipe.Recipe{}, recipe.ErrNotFound
}

func TestImportRecipes(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "recipes.db")

	db, err := database.NewDB(ctx, "sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	repo := recipe.NewRepository(db.SQL, db.Driver)

	src := &mockProvider{recipes: []recipe.Recipe{
		{ID: 1, Title: "Carbonara v2", Difficulty: recipe.Medium, Category: "Main courses"},
		{ID: 4, Title: "Pancakes", Difficulty: recipe.Easy, Category: "Desserts", IsFavorite: true},
	}}

	n, err := ImportRecipes(ctx, src, repo)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Carbonara v2", rec.Title)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count, "3 seeded plus 1 new recipe")
}

func TestExportAndLoadFromFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := storage.NewRecipeStore(dir)
	require.NoError(t, err)

	n, err := ExportRecipes(ctx, recipe.NewSeedProvider(), store)
	require.NoError(t, err)
	assert.Equal(t, len(recipe.Seed), n)

	catalog, err := LoadCatalog(ctx, &config.Config{CatalogSource: config.SourceFiles, RecipeStoragePath: dir})
	require.NoError(t, err)
	assert.Equal(t, len(recipe.Seed), catalog.Len())
}

func TestLoadCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("Seed", func(t *testing.T) {
		catalog, err := LoadCatalog(ctx, &config.Config{CatalogSource: config.SourceSeed})
		require.NoError(t, err)
		assert.Equal(t, 3, catalog.Len())
	})

	t.Run("Database", func(t *testing.T) {
		cfg := &config.Config{
			CatalogSource:  config.SourceDatabase,
			DatabaseDriver: "sqlite",
			DatabaseURL:    filepath.Join(t.TempDir(), "recipes.db"),
		}
		catalog, err := LoadCatalog(ctx, cfg)
		require.NoError(t, err)

		rec, err := catalog.Get(2)
		require.NoError(t, err)
		assert.Equal(t, "Caesar Salad", rec.Title)
	})
}
