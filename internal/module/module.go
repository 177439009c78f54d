package module

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/exerbeasts/internal/registry"
)

// Module is a self-contained feature of the server.
type Module interface {
	// Name is the unique module id. It also names the route group.
	Name() string

	// Register publishes the module's services. It runs for every module before any Boot.
	Register(reg *registry.Registry) error

	// Boot mounts routes and starts background work.
	Boot(ctx context.Context, router *echo.Group, reg *registry.Registry) error

	// Shutdown stops background work.
	Shutdown(ctx context.Context) error
}

// BaseModule provides no-op lifecycle methods for embedding.
type BaseModule struct{}

func (BaseModule) Register(*registry.Registry) error { return nil }

func (BaseModule) Boot(context.Context, *echo.Group, *registry.Registry) error { return nil }

func (BaseModule) Shutdown(context.Context) error { return nil }
