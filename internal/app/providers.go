package app

import (
	"context"
	"log/slog"

	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/config"
	"github.com/nfrund/exerbeasts/internal/logging"
	"github.com/nfrund/exerbeasts/internal/module"
	"github.com/nfrund/exerbeasts/internal/modules/arena"
	"github.com/nfrund/exerbeasts/internal/narration"
	"github.com/nfrund/exerbeasts/internal/pubsub"
	"github.com/nfrund/exerbeasts/internal/rendering"
	"github.com/nfrund/exerbeasts/internal/topicmgr"
	"github.com/nfrund/exerbeasts/internal/websocket"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"
)

// Provide registers the service providers. *config.Config must already be provided.
func Provide(i do.Injector) {
	do.Provide(i, provideLogger)
	do.Provide(i, provideTracing)
	do.Provide(i, provideTopics)
	do.Provide(i, provideBus)
	do.Provide(i, provideRenderer)
	do.Provide(i, provideBridge)
	do.Provide(i, provideCatalog)
	do.Provide(i, provideNarration)
	do.Provide(i, provideModules)
}

func provideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return logging.New(cfg.LogFormat), nil
}

// Tracing owns the bus tracer and flushes it on shutdown.
type Tracing struct {
	Tracer   trace.Tracer
	Enabled  bool
	shutdown func(context.Context) error
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}

func provideTracing(i do.Injector) (*Tracing, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tracer, shutdown, err := pubsub.SetupOTel(context.Background(), cfg.Tracing)
	if err != nil {
		return nil, err
	}
	return &Tracing{Tracer: tracer, Enabled: cfg.Tracing.Enabled, shutdown: shutdown}, nil
}

func provideTopics(i do.Injector) (*topicmgr.Manager, error) {
	manager := topicmgr.Default()
	if err := websocket.RegisterTopics(manager); err != nil {
		return nil, err
	}
	return manager, nil
}

func provideBus(i do.Injector) (*pubsub.WatermillBridge, error) {
	do.MustInvoke[*topicmgr.Manager](i)
	tracing := do.MustInvoke[*Tracing](i)
	logger := do.MustInvoke[*slog.Logger](i)
	if !tracing.Enabled {
		return pubsub.NewWatermillBridge(), nil
	}
	logger.Info("Bus tracing enabled", "service", do.MustInvoke[*config.Config](i).Tracing.ServiceName)
	return pubsub.NewWatermillBridgeWithTracer(tracing.Tracer), nil
}

func provideRenderer(do.Injector) (rendering.Renderer, error) {
	return rendering.NewUniversalRenderer(), nil
}

func provideBridge(i do.Injector) (*websocket.Bridge, error) {
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)
	return websocket.NewBridge(bus, bus, websocket.NewWhitelist()), nil
}

func provideCatalog(i do.Injector) (*battle.Catalog, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.CatalogPath == "" {
		return battle.DefaultCatalog(), nil
	}
	return battle.LoadCatalog(afero.NewOsFs(), cfg.CatalogPath)
}

func provideNarration(i do.Injector) (*narration.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)
	client := narration.NewClient(narration.Config{
		APIKey:   cfg.GeminiAPIKey,
		Endpoint: cfg.GeminiEndpoint,
	}, nil, logger)
	if !client.Enabled() {
		logger.Warn("GEMINI_API_KEY is not set; form feedback is disabled")
	}
	return client, nil
}

// provideModules lists the active application modules.
func provideModules(i do.Injector) ([]module.Module, error) {
	cfg := do.MustInvoke[*config.Config](i)
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)

	return []module.Module{
		arena.New(arena.Dependencies{
			Publisher:    bus,
			Subscriber:   bus,
			Renderer:     do.MustInvoke[rendering.Renderer](i),
			Bridge:       do.MustInvoke[*websocket.Bridge](i),
			Catalog:      do.MustInvoke[*battle.Catalog](i),
			Battle:       cfg.Battle,
			Analyzer:     do.MustInvoke[*narration.Client](i),
			FeedbackRate: cfg.FeedbackRate,
			SessionTTL:   cfg.SessionTTL,
			Logger:       do.MustInvoke[*slog.Logger](i),
		}),
	}, nil
}
