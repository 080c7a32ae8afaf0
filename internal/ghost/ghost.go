package ghost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"recipe-catalog/internal/config"
)

// Tag is a Ghost post tag.
type Tag struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Visibility string `json:"visibility"`
}

// Post represents a single recipe post from the Ghost API.
type Post struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	HTML          string `json:"html"`
	CustomExcerpt string `json:"custom_excerpt"`
	FeatureImage  string `json:"feature_image"`
	Featured      bool   `json:"featured"`
	Tags          []Tag  `json:"tags"`
	UpdatedAt     string `json:"updated_at"`
}

// PostsResponse is the top-level structure of the Ghost API response for posts.
type PostsResponse struct {
	Posts []Post `json:"posts"`
}

// Client is an interface for the Ghost Content API.
type Client interface {
	FetchRecipes(ctx context.Context) ([]Post, error)
}

// ghostClient is the concrete implementation of the Ghost API client.
type ghostClient struct {
	httpClient *http.Client
	baseURL    string
	contentKey string
}

// NewClient creates a new Ghost API client.
func NewClient(cfg *config.Config) Client {
	return &ghostClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    cfg.GhostURL,
		contentKey: cfg.GhostContentKey,
	}
}

// FetchRecipes fetches all posts (recipes) with their tags, oldest first so
// positions stay stable as new posts are published.
func (c *ghostClient) FetchRecipes(ctx context.Context) ([]Post, error) {
	q := url.Values{}
	q.Set("key", c.contentKey)
	q.Set("include", "tags")
	q.Set("limit", "all")
	q.Set("order", "published_at asc")
	endpoint := fmt.Sprintf("%s/ghost/api/content/posts/?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Version", "v5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content api error: status %d", resp.StatusCode)
	}

	var postsResponse PostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&postsResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return postsResponse.Posts, nil
}
