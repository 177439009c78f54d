package main

import (
	"log/slog"
	"os"

	"github.com/nfrund/exerbeasts/internal/app"
	"github.com/nfrund/exerbeasts/internal/config"
	"github.com/nfrund/exerbeasts/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	s := server.New(a)
	s.RegisterRoutes()
	if err := s.Start(cfg.Addr); err != nil {
		a.Logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
