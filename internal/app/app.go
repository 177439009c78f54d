// Package app builds the application object graph.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/config"
	"github.com/nfrund/exerbeasts/internal/module"
	"github.com/nfrund/exerbeasts/internal/pubsub"
	"github.com/nfrund/exerbeasts/internal/rendering"
	"github.com/nfrund/exerbeasts/internal/topicmgr"
	"github.com/nfrund/exerbeasts/internal/websocket"
	"github.com/samber/do/v2"
)

// App holds the resolved core services and the active modules.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Bus      *pubsub.WatermillBridge
	Topics   *topicmgr.Manager
	Renderer rendering.Renderer
	Bridge   *websocket.Bridge
	Catalog  *battle.Catalog
	Modules  []module.Module

	injector *do.RootScope
}

// New wires every service for cfg. Nothing is started yet.
func New(cfg *config.Config) (*App, error) {
	i := do.New()
	do.ProvideValue(i, cfg)
	Provide(i)

	a := &App{injector: i, Config: cfg}
	var err error
	if a.Logger, err = do.Invoke[*slog.Logger](i); err != nil {
		return nil, err
	}
	if a.Topics, err = do.Invoke[*topicmgr.Manager](i); err != nil {
		return nil, err
	}
	if a.Bus, err = do.Invoke[*pubsub.WatermillBridge](i); err != nil {
		return nil, err
	}
	if a.Renderer, err = do.Invoke[rendering.Renderer](i); err != nil {
		return nil, err
	}
	if a.Bridge, err = do.Invoke[*websocket.Bridge](i); err != nil {
		return nil, err
	}
	if a.Catalog, err = do.Invoke[*battle.Catalog](i); err != nil {
		return nil, err
	}
	if a.Modules, err = do.Invoke[[]module.Module](i); err != nil {
		return nil, err
	}
	return a, nil
}

// Shutdown closes the bus and releases every service that holds resources.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Bus.Close(); err != nil {
		a.Logger.Error("Failed to close message bus", "error", err)
	}
	report := a.injector.ShutdownWithContext(ctx)
	if report != nil && !report.Succeed {
		return fmt.Errorf("failed to shut down services: %v", report.Errors)
	}
	return nil
}
