package logger

import (
	"log/slog"
	"os"

	"github.com/studiosim/studio-engine/internal/config"
)

// Setup builds the process logger and installs it as the slog default.
// Production emits JSON, everything else human-readable text.
func Setup(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
