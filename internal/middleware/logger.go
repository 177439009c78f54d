package middleware

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
)

type contextKey string

const loggerKey = contextKey("logger")

// Logger puts a request-scoped logger carrying the request id and player id
// into the request context. Place it after RequestID and Player.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := slog.Default().With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
		if id := PlayerID(c); id != "" {
			logger = logger.With("player_id", id)
		}
		c.SetRequest(c.Request().WithContext(WithLogger(c.Request().Context(), logger)))
		return next(c)
	}
}

// WithLogger returns ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request logger, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
