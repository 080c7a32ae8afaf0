package recipe

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Catalog is the ordered, immutable set of recipes loaded at startup.
type Catalog struct {
	recipes []Recipe
	byID    map[int]int
}

// NewCatalog builds a Catalog from recipes, keeping their order.
func NewCatalog(recipes []Recipe) (*Catalog, error) {
	c := &Catalog{
		recipes: make([]Recipe, len(recipes)),
		byID:    make(map[int]int, len(recipes)),
	}
	copy(c.recipes, recipes)
	for i, rec := range c.recipes {
		if _, dup := c.byID[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate recipe id %d (%q)", rec.ID, rec.Title)
		}
		c.byID[rec.ID] = i
	}
	return c, nil
}

// Load reads every recipe from p and freezes them into a Catalog.
func Load(ctx context.Context, p Provider) (*Catalog, error) {
	recipes, err := p.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return NewCatalog(recipes)
}

// List returns the catalog in load order. The slice is a copy.
func (c *Catalog) List() []Recipe {
	return c.collect(func(Recipe) bool { return true })
}

// Len returns the number of recipes.
func (c *Catalog) Len() int {
	return len(c.recipes)
}

// Get returns the recipe with the given id.
func (c *Catalog) Get(id int) (Recipe, error) {
	i, ok := c.byID[id]
	if !ok {
		return Recipe{}, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	return c.recipes[i], nil
}

// Favorites returns the favorited recipes in catalog order.
func (c *Catalog) Favorites() []Recipe {
	return c.collect(func(r Recipe) bool { return r.IsFavorite })
}

// FilterByCategory returns recipes whose category matches the selector key.
func (c *Catalog) FilterByCategory(key string) []Recipe {
	return c.Filter(Filter{Category: key})
}

// FilterByDifficulty returns recipes whose difficulty matches the selector key.
func (c *Catalog) FilterByDifficulty(key string) []Recipe {
	return c.Filter(Filter{Difficulty: key})
}

// Search returns recipes whose title or description contains query.
func (c *Catalog) Search(query string) []Recipe {
	return c.Filter(Filter{Query: query})
}

// Filter applies every criterion in f, preserving catalog order.
func (c *Catalog) Filter(f Filter) []Recipe {
	m := f.matcher()
	return c.collect(m.match)
}

func (c *Catalog) collect(keep func(Recipe) bool) []Recipe {
	out := make([]Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Provider exposes the catalog itself as a Provider, e.g. for exports.
func (c *Catalog) Provider() Provider {
	return catalogProvider{c}
}

type catalogProvider struct{ c *Catalog }

func (p catalogProvider) List(context.Context) ([]Recipe, error) { return p.c.List(), nil }

func (p catalogProvider) Get(_ context.Context, id int) (Recipe, error) { return p.c.Get(id) }

// Filter holds the selector values from the recipes tab.
type Filter struct {
	Query      string `json:"q,omitempty"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" && isAll(f.Category) && isAll(f.Difficulty)
}

// CategoryOption is a category selector entry.
type CategoryOption struct {
	Key   string
	Label string
}

// CategoryOptions are the category selector entries, "all" first.
var CategoryOptions = []CategoryOption{
	{Key: "all", Label: "All categories"},
	{Key: "main", Label: "Main courses"},
	{Key: "salads", Label: "Salads"},
	{Key: "desserts", Label: "Desserts"},
}

// DifficultyOptions are the difficulty selector keys, "all" first.
var DifficultyOptions = []string{"all", "easy", "medium", "hard"}

// CategoryLabel resolves a selector key to the category label it filters on.
// Keys that are not selector options are treated as labels.
func CategoryLabel(key string) string {
	for _, o := range CategoryOptions {
		if o.Key == key {
			return o.Label
		}
	}
	return key
}

type matcher struct {
	fold       cases.Caser
	query      string
	category   string
	difficulty string
}

func (f Filter) matcher() *matcher {
	m := &matcher{fold: cases.Fold()}
	if q := strings.TrimSpace(f.Query); q != "" {
		m.query = m.fold.String(q)
	}
	if !isAll(f.Category) {
		m.category = m.fold.String(CategoryLabel(strings.TrimSpace(f.Category)))
	}
	if !isAll(f.Difficulty) {
		if d, ok := ParseDifficulty(f.Difficulty); ok {
			m.difficulty = m.fold.String(string(d))
		} else {
			m.difficulty = m.fold.String(strings.TrimSpace(f.Difficulty))
		}
	}
	return m
}

func (m *matcher) match(r Recipe) bool {
	if m.category != "" && m.fold.String(r.Category) != m.category {
		return false
	}
	if m.difficulty != "" && m.fold.String(string(r.Difficulty)) != m.difficulty {
		return false
	}
	if m.query != "" &&
		!strings.Contains(m.fold.String(r.Title), m.query) &&
		!strings.Contains(m.fold.String(r.Description), m.query) {
		return false
	}
	return true
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}
