package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"recipe-catalog/internal/recipe"
)

// RecipeStore provides a file-based catalog: one JSON document per recipe,
// named <id>.json. Recipes are listed in id order.
type RecipeStore struct {
	basePath string
}

// NewRecipeStore creates a new RecipeStore and ensures the base directory exists.
func NewRecipeStore(basePath string) (*RecipeStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &RecipeStore{basePath: basePath}, nil
}

func (s *RecipeStore) path(id int) string {
	return filepath.Join(s.basePath, strconv.Itoa(id)+".json")
}

// Save stores a recipe, replacing any previous file for the same id.
func (s *RecipeStore) Save(rec recipe.Recipe) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	if err := os.WriteFile(s.path(rec.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// Load reads a single recipe file.
func (s *RecipeStore) Load(id int) (recipe.Recipe, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return recipe.Recipe{}, fmt.Errorf("recipe %d: %w", id, recipe.ErrNotFound)
		}
		return recipe.Recipe{}, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var rec recipe.Recipe
	if err := json.Unmarshal(data, &rec); err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}
	if rec.ID != id {
		return recipe.Recipe{}, fmt.Errorf("recipe file %d.json holds id %d", id, rec.ID)
	}
	return rec, nil
}

// Exists checks if a recipe file exists.
func (s *RecipeStore) Exists(id int) bool {
	_, err := os.Stat(s.path(id))
	return !os.IsNotExist(err)
}

// Remove deletes the recipe file; removing a missing recipe is not an error.
func (s *RecipeStore) Remove(id int) error {
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove recipe file: %w", err)
	}
	return nil
}

// List reads every recipe file, skipping files that do not parse.
func (s *RecipeStore) List(ctx context.Context) ([]recipe.Recipe, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob recipe files: %w", err)
	}

	var ids []int
	for _, m := range matches {
		id, err := strconv.Atoi(strings.TrimSuffix(filepath.Base(m), ".json"))
		if err != nil {
			slog.Warn("Skipping recipe file with non-numeric name", "path", m)
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	recipes := make([]recipe.Recipe, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.Load(id)
		if err != nil {
			slog.Warn("Skipping unreadable recipe file", "id", id, "error", err)
			continue
		}
		recipes = append(recipes, rec)
	}
	return recipes, nil
}

// Get implements recipe.Provider.
func (s *RecipeStore) Get(_ context.Context, id int) (recipe.Recipe, error) {
	return s.Load(id)
}
