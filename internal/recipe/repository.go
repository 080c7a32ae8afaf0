package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const recipeColumns = "id, title, description, image, cook_time, difficulty, category, is_favorite"

// Repository is a database-backed recipe Provider.
type Repository struct {
	db     *sql.DB
	driver string
}

// NewRepository creates a new Repository. driver selects the placeholder
// style: "postgres" uses $N, anything else uses ?.
func NewRepository(d *sql.DB, driver string) *Repository {
	return &Repository{db: d, driver: driver}
}

// Save inserts a recipe or updates the existing row with the same id.
// New rows are appended after the current last position.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	query := r.rebind(`
		INSERT INTO recipes (id, position, title, description, image, cook_time, difficulty, category, is_favorite)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM recipes), ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			image = excluded.image,
			cook_time = excluded.cook_time,
			difficulty = excluded.difficulty,
			category = excluded.category,
			is_favorite = excluded.is_favorite`)

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.Description, rec.Image, rec.CookTime,
		string(rec.Difficulty), rec.Category, rec.IsFavorite,
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe %d: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a recipe by its ID.
func (r *Repository) Get(ctx context.Context, id int) (Recipe, error) {
	row := r.db.QueryRowContext(ctx, r.rebind("SELECT "+recipeColumns+" FROM recipes WHERE id = ?"), id)
	rec, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recipe{}, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
		}
		return Recipe{}, fmt.Errorf("failed to get recipe by ID: %w", err)
	}
	return rec, nil
}

// List retrieves all recipes in catalog order.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+recipeColumns+" FROM recipes ORDER BY position, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recipes").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (Recipe, error) {
	var (
		rec        Recipe
		difficulty string
	)
	err := s.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.Image, &rec.CookTime,
		&difficulty, &rec.Category, &rec.IsFavorite)
	rec.Difficulty = Difficulty(difficulty)
	return rec, err
}

// rebind rewrites ? placeholders to $N for postgres.
func (r *Repository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}
