package ghost

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"recipe-catalog/internal/recipe"

	"github.com/PuerkitoBio/goquery"
)

// Provider exposes Ghost posts as catalog recipes. Recipe ids are the 1-based
// positions of the posts in publication order.
type Provider struct {
	client Client
}

// NewProvider creates a Provider backed by client.
func NewProvider(client Client) *Provider {
	return &Provider{client: client}
}

// List implements recipe.Provider.
func (p *Provider) List(ctx context.Context) ([]recipe.Recipe, error) {
	posts, err := p.client.FetchRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}

	recipes := make([]recipe.Recipe, 0, len(posts))
	for i, post := range posts {
		rec, err := ToRecipe(i+1, post)
		if err != nil {
			slog.Warn("Skipping ghost post", "post", post.ID, "title", post.Title, "error", err)
			continue
		}
		recipes = append(recipes, rec)
	}
	return recipes, nil
}

// Get implements recipe.Provider.
func (p *Provider) Get(ctx context.Context, id int) (recipe.Recipe, error) {
	recipes, err := p.List(ctx)
	if err != nil {
		return recipe.Recipe{}, err
	}
	for _, r := range recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return recipe.Recipe{}, fmt.Errorf("recipe %d: %w", id, recipe.ErrNotFound)
}

// ToRecipe maps a post to a recipe. Tags named Easy, Medium or Hard set the
// difficulty; the first other public tag is the category. Description, image,
// cook time and difficulty fall back to markup inside the post body.
func ToRecipe(id int, post Post) (recipe.Recipe, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(post.HTML))
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to parse post html: %w", err)
	}

	// Remove noise before reading text
	doc.Find("script, style, iframe, .ads, #ads").Remove()

	rec := recipe.Recipe{
		ID:          id,
		Title:       strings.TrimSpace(post.Title),
		Description: strings.TrimSpace(post.CustomExcerpt),
		Image:       post.FeatureImage,
		IsFavorite:  post.Featured,
	}

	for _, tag := range post.Tags {
		if tag.Visibility == "internal" || strings.HasPrefix(tag.Name, "#") {
			continue
		}
		if d, ok := recipe.ParseDifficulty(tag.Name); ok {
			if rec.Difficulty == "" {
				rec.Difficulty = d
			}
			continue
		}
		if rec.Category == "" {
			rec.Category = tag.Name
		}
	}

	if rec.Description == "" {
		rec.Description = cleanText(doc.Find("p").First().Text())
	}
	if rec.Image == "" {
		rec.Image, _ = doc.Find("img").First().Attr("src")
	}

	cook := doc.Find("[data-cook-time], .cook-time").First()
	if v, ok := cook.Attr("data-cook-time"); ok {
		rec.CookTime = strings.TrimSpace(v)
	} else {
		rec.CookTime = cleanText(cook.Text())
	}

	if rec.Difficulty == "" {
		level := cleanText(doc.Find(".difficulty").First().Text())
		if d, ok := recipe.ParseDifficulty(level); ok {
			rec.Difficulty = d
		} else {
			rec.Difficulty = recipe.Difficulty(level)
		}
	}

	if rec.Title == "" {
		return recipe.Recipe{}, fmt.Errorf("post %s has no title", post.ID)
	}
	return rec, nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
