package recipe

import "context"

const imageBase = "https://cdn.poehali.dev/projects/023cfefc-78c5-4b49-9855-dcd28536b428/files/"

// Seed is the built-in catalog used when no other source is configured.
// The initial database migration inserts the same rows.
var Seed = []Recipe{
	{
		ID:          1,
		Title:       "Pasta Carbonara",
		Description: "Classic Italian pasta with bacon, egg and parmesan cheese",
		Image:       imageBase + "3692cad9-0de0-4718-943a-284f327d7ecf.jpg",
		CookTime:    "25 min",
		Difficulty:  Medium,
		Category:    "Main courses",
	},
	{
		ID:          2,
		Title:       "Caesar Salad",
		Description: "Fresh salad with chicken, crunchy croutons and Caesar dressing",
		Image:       imageBase + "b485718c-60a8-45d8-8a3b-06981406c14a.jpg",
		CookTime:    "15 min",
		Difficulty:  Easy,
		Category:    "Salads",
	},
	{
		ID:          3,
		Title:       "Chocolate Cake",
		Description: "Tender chocolate sponge with cream and fresh berries",
		Image:       imageBase + "96457618-6e78-46aa-a3b3-d1de998a45ec.jpg",
		CookTime:    "90 min",
		Difficulty:  Hard,
		Category:    "Desserts",
	},
}

// SeedProvider serves a fixed recipe list.
type SeedProvider struct {
	Recipes []Recipe
}

// NewSeedProvider returns a provider over the built-in Seed recipes.
func NewSeedProvider() *SeedProvider {
	return &SeedProvider{Recipes: Seed}
}

// List returns a copy of the recipes.
func (p *SeedProvider) List(context.Context) ([]Recipe, error) {
	out := make([]Recipe, len(p.Recipes))
	copy(out, p.Recipes)
	return out, nil
}

// Get returns the recipe with the given id.
func (p *SeedProvider) Get(_ context.Context, id int) (Recipe, error) {
	for _, r := range p.Recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return Recipe{}, ErrNotFound
}
