package config

import (
	"log/slog"
	"os"
)

// InitLogger installs a JSON slog handler on stdout as the default logger.
func InitLogger(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
