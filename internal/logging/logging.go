package logging

import (
	"io"
	"log/slog"
	"os"
)

// New builds the application logger and installs it as the slog default.
// format "json" selects JSON output for production; anything else is text
// with source locations for development.
func New(format string) *slog.Logger {
	logger := slog.New(newHandler(os.Stdout, format))
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, format string) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
}
