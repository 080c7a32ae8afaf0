package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Catalog sources.
const (
	SourceSeed     = "seed"
	SourceDatabase = "database"
	SourceFiles    = "files"
	SourceGhost    = "ghost"
)

// Config holds the configuration for the application.
type Config struct {
	Port     string
	LogLevel slog.Level

	DatabaseDriver    string
	DatabaseURL       string
	CatalogSource     string
	RecipeStoragePath string

	GhostURL        string
	GhostContentKey string

	SessionSecret string
	SessionTTL    time.Duration
	PopularLimit  int
	Location      *time.Location

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			slog.Warn("Failed to load env file", "path", f, "error", err)
		}
	}
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable not set")
	}
	if len(sessionSecret) < 16 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 16 bytes")
	}

	cfg := &Config{
		Port:               getenv("PORT", "8080"),
		DatabaseDriver:     getenv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:        getenv("DATABASE_URL", "data/recipes.db"),
		CatalogSource:      strings.ToLower(getenv("CATALOG_SOURCE", SourceSeed)),
		RecipeStoragePath:  getenv("RECIPE_STORAGE_PATH", "data/recipes"),
		GhostURL:           strings.TrimRight(os.Getenv("GHOST_API_URL"), "/"),
		GhostContentKey:    os.Getenv("GHOST_CONTENT_API_KEY"),
		SessionSecret:      sessionSecret,
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", cfg.DatabaseDriver)
	}

	switch cfg.CatalogSource {
	case SourceSeed, SourceDatabase, SourceFiles:
	case SourceGhost:
		if cfg.GhostURL == "" {
			return nil, fmt.Errorf("GHOST_API_URL environment variable not set")
		}
		if cfg.GhostContentKey == "" {
			return nil, fmt.Errorf("GHOST_CONTENT_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("CATALOG_SOURCE must be one of seed, database, files, ghost; got %q", cfg.CatalogSource)
	}

	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL: %q", os.Getenv("SESSION_TTL"))
	}
	cfg.SessionTTL = ttl

	cfg.PopularLimit, err = strconv.Atoi(getenv("POPULAR_LIMIT", "0"))
	if err != nil || cfg.PopularLimit < 0 {
		return nil, fmt.Errorf("invalid POPULAR_LIMIT: %q", os.Getenv("POPULAR_LIMIT"))
	}

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg.TelegramAllowedUserIDs, err = parseIDs(os.Getenv("TELEGRAM_ALLOW_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_IDS: %w", err)
	}

	return cfg, nil
}

// TelegramEnabled reports whether the bot front end is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
