package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/guezito-dev/gigachads/internal/config"
)

// Setup installs the process-wide slog handler: text in development,
// JSON in production.
func Setup(cfg *config.Config) {
	slog.SetDefault(New(os.Stdout, cfg))
}

// New builds a logger writing to w using the handler and level derived from cfg.
func New(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel, cfg.IsProduction()),
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string, production bool) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if production {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
