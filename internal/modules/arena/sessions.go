package arena

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/exerbeasts/internal/battle"
)

// SessionsConfig configures every engine a Sessions creates.
type SessionsConfig struct {
	Battle  battle.Config
	Catalog *battle.Catalog
	// Scheduler is shared by all engines. Nil uses the wall clock.
	Scheduler battle.Scheduler
	// NewRNG returns the randomness for a new engine. Nil seeds from the clock.
	NewRNG func() battle.RNG
	// NewPresenter returns the presenter of a player's engine.
	NewPresenter func(playerID string) battle.Presenter
	// IdleTTL closes battles nobody touched for this long. Zero keeps them until closed.
	IdleTTL time.Duration
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

type session struct {
	engine   *battle.Engine
	lastSeen time.Time
}

// Sessions holds one independent battle per player.
type Sessions struct {
	cfg SessionsConfig

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessions creates an empty session table.
func NewSessions(cfg SessionsConfig) *Sessions {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sessions{
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// Get returns the player's engine, starting a fresh battle on first use.
func (s *Sessions) Get(playerID string) *battle.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[playerID]; ok {
		sess.lastSeen = s.cfg.Now()
		return sess.engine
	}

	deps := battle.Dependencies{
		Catalog:   s.cfg.Catalog,
		Scheduler: s.cfg.Scheduler,
		Logger:    s.cfg.Logger.With("player_id", playerID),
	}
	if s.cfg.NewRNG != nil {
		deps.RNG = s.cfg.NewRNG()
	}
	if s.cfg.NewPresenter != nil {
		deps.Presenter = s.cfg.NewPresenter(playerID)
	}
	e := battle.NewEngine(s.cfg.Battle, deps)
	s.sessions[playerID] = &session{engine: e, lastSeen: s.cfg.Now()}
	s.cfg.Logger.Info("Battle session started", "player_id", playerID, "sessions", len(s.sessions))
	return e
}

// Lookup returns the player's engine without creating one.
func (s *Sessions) Lookup(playerID string) (*battle.Engine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[playerID]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.cfg.Now()
	return sess.engine, true
}

// Snapshot returns the player's battle, or the opening state of a new one
// when the player has none. It never starts a session.
func (s *Sessions) Snapshot(playerID string) battle.Snapshot {
	if e, ok := s.Lookup(playerID); ok {
		return e.Snapshot()
	}
	return battle.NewEngine(s.cfg.Battle, battle.Dependencies{Catalog: s.cfg.Catalog, Logger: s.cfg.Logger}).Snapshot()
}

// Close stops and forgets the player's battle. It reports whether one existed.
func (s *Sessions) Close(playerID string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[playerID]
	delete(s.sessions, playerID)
	s.mu.Unlock()

	if !ok {
		return false
	}
	sess.engine.Close()
	s.cfg.Logger.Info("Battle session closed", "player_id", playerID)
	return true
}

// Sweep closes every battle idle for longer than IdleTTL and returns how many it closed.
func (s *Sessions) Sweep() int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.cfg.Now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var idle []*battle.Engine
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			idle = append(idle, sess.engine)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, e := range idle {
		e.Close()
	}
	if len(idle) > 0 {
		s.cfg.Logger.Info("Closed idle battle sessions", "closed", len(idle), "ttl", s.cfg.IdleTTL)
	}
	return len(idle)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Sessions) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.cfg.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// CloseAll stops every battle.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.engine.Close()
	}
}

// Count returns the number of live battles.
func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
