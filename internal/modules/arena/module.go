package arena

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/middleware"
	"github.com/nfrund/exerbeasts/internal/module"
	"github.com/nfrund/exerbeasts/internal/pubsub"
	"github.com/nfrund/exerbeasts/internal/registry"
	"github.com/nfrund/exerbeasts/internal/rendering"
	"github.com/nfrund/exerbeasts/internal/websocket"
)

// Services shared through the registry.
var (
	SessionsKey = registry.Key[*Sessions]("battle.sessions")
	ServiceKey  = registry.Key[*Service]("battle.service")
)

// Dependencies holds everything the battle module needs.
type Dependencies struct {
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
	Renderer   rendering.Renderer
	// Bridge is optional; without it exit commands cannot close client connections.
	Bridge    *websocket.Bridge
	Catalog   *battle.Catalog
	Battle    battle.Config
	Scheduler battle.Scheduler
	Analyzer  Analyzer
	// FeedbackRate limits POST /feedback per client IP. Zero disables the limit.
	FeedbackRate float64
	// SessionTTL closes battles left idle this long. Zero keeps them until closed.
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// Module hosts one battle per player.
type Module struct {
	module.BaseModule
	deps Dependencies

	sessions *Sessions
	service  *Service
	cancel   context.CancelFunc
}

var _ module.Module = (*Module)(nil)

// New creates the battle module.
func New(deps Dependencies) *Module {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = battle.DefaultCatalog()
	}
	return &Module{deps: deps}
}

// Name returns the module id, which is also its route group.
func (m *Module) Name() string {
	return "battle"
}

// Register creates the session table and publishes it.
func (m *Module) Register(reg *registry.Registry) error {
	m.sessions = NewSessions(SessionsConfig{
		Battle:       m.deps.Battle,
		Catalog:      m.deps.Catalog,
		Scheduler:    m.deps.Scheduler,
		NewPresenter: NewBusPresenter(m.deps.Publisher, m.deps.Logger),
		IdleTTL:      m.deps.SessionTTL,
		Logger:       m.deps.Logger,
	})

	var conns Connections
	if m.deps.Bridge != nil {
		conns = m.deps.Bridge
	}
	m.service = NewService(m.sessions, conns)

	registry.Set(reg, SessionsKey, m.sessions)
	registry.Set(reg, ServiceKey, m.service)
	return nil
}

// Boot starts the bus subscriber and mounts the HTTP routes.
func (m *Module) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	if m.deps.Bridge != nil {
		for _, action := range ClientActions() {
			if err := m.deps.Bridge.Whitelist().Allow(action); err != nil && !errors.Is(err, websocket.ErrActionAlreadyExists) {
				return err
			}
		}
	}

	ctx, m.cancel = context.WithCancel(ctx)
	sub := NewSubscriber(m.deps.Subscriber, m.deps.Publisher, m.deps.Renderer, m.service, m.deps.Catalog, m.deps.Logger)
	if err := sub.Start(ctx); err != nil {
		return err
	}
	go m.sessions.RunSweeper(ctx, sweepInterval(m.deps.SessionTTL))

	var limiter echo.MiddlewareFunc
	if m.deps.FeedbackRate > 0 {
		limiter = middleware.RateLimiter(m.deps.FeedbackRate)
	}
	NewHandler(m.service, m.deps.Renderer, m.deps.Catalog, m.deps.Analyzer).Register(g, limiter)

	m.deps.Logger.Info("Battle module booted", "moves", len(m.deps.Catalog.Moves()))
	return nil
}

// sweepInterval checks for idle battles a few times per TTL, at most once a second.
func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return max(ttl/4, time.Second)
}

// Shutdown stops every battle and the subscriber.
func (m *Module) Shutdown(context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.sessions != nil {
		m.sessions.CloseAll()
	}
	return nil
}
