package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Boot registers every module, then boots each one under its own route group
// and starts the websocket bridge.
func (s *Server) Boot(ctx context.Context) error {
	for _, m := range s.App.Modules {
		if err := m.Register(s.Registry); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}
	if err := s.App.Bridge.Start(ctx); err != nil {
		return fmt.Errorf("start websocket bridge: %w", err)
	}
	for _, m := range s.App.Modules {
		if err := m.Boot(ctx, s.E.Group("/"+m.Name()), s.Registry); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
		s.App.Logger.Info("Module booted", "module", m.Name())
	}
	return nil
}

// Start runs the HTTP server until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Boot(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.App.Logger.Info("Starting server", "addr", addr)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("shutting down the server: %w", err)
		}
	case <-ctx.Done():
		s.App.Logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server first, then the modules and app services.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.E.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, m := range s.App.Modules {
		if err := m.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown module %s: %w", m.Name(), err))
		}
	}
	if err := s.App.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
