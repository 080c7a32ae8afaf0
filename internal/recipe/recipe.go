package recipe

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a recipe id is not part of the catalog.
var ErrNotFound = errors.New("recipe not found")

// Difficulty is the display level of a recipe. Values outside the three known
// levels are carried through unchanged so newer data keeps rendering.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Recipe represents a single catalog entry.
type Recipe struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	CookTime    string     `json:"cook_time"`
	Difficulty  Difficulty `json:"difficulty"`
	Category    string     `json:"category"`
	IsFavorite  bool       `json:"is_favorite,omitempty"`
}

// Provider supplies the recipes a Catalog is built from.
type Provider interface {
	List(ctx context.Context) ([]Recipe, error)
	Get(ctx context.Context, id int) (Recipe, error)
}

// Style is the badge styling for a difficulty level.
type Style string

const (
	StyleSecondary Style = "secondary"
	StyleAccent    Style = "accent"
	StylePrimary   Style = "primary"
	StyleMuted     Style = "muted"
)

// DifficultyStyle maps a difficulty to its badge style. Unknown levels fall
// back to StyleMuted.
func DifficultyStyle(d Difficulty) Style {
	switch d {
	case Easy:
		return StyleSecondary
	case Medium:
		return StyleAccent
	case Hard:
		return StylePrimary
	default:
		return StyleMuted
	}
}

// ParseDifficulty resolves a selector key ("easy") or a label ("Easy").
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, true
	case "medium":
		return Medium, true
	case "hard":
		return Hard, true
	}
	return "", false
}
