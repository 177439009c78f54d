package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/pubsub"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

// Config holds all configuration for the application.
type Config struct {
	Addr          string
	SessionSecret string
	LogFormat     string

	// CatalogPath optionally replaces the embedded move catalog.
	CatalogPath string
	Battle      battle.Config
	// SessionTTL closes battles idle this long.
	SessionTTL time.Duration

	GeminiAPIKey   string
	GeminiEndpoint string
	// FeedbackRate is the per-client request rate of the feedback endpoint.
	FeedbackRate float64

	Tracing pubsub.TracingConfig
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// New loads .env if present and reads the process environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults for unset keys.
func FromLookup(lookup LookupFunc) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Addr:           get("APP_ADDR", ":8080"),
		SessionSecret:  get("SESSION_SECRET", ""),
		LogFormat:      get("LOG_FORMAT", "text"),
		CatalogPath:    get("BATTLE_CATALOG", ""),
		Battle:         battle.DefaultConfig(),
		SessionTTL:     30 * time.Minute,
		GeminiAPIKey:   get("GEMINI_API_KEY", ""),
		GeminiEndpoint: get("GEMINI_ENDPOINT", defaultGeminiEndpoint),
		FeedbackRate:   2,
		Tracing:        pubsub.DefaultTracingConfig(),
	}

	var errs []error
	duration := func(key string, dst *time.Duration) {
		raw, ok := lookup(key)
		if !ok || raw == "" {
			return
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, raw))
			return
		}
		*dst = d
	}
	duration("BATTLE_CONFIRM_DELAY", &cfg.Battle.ConfirmDelay)
	duration("BATTLE_ENEMY_DELAY", &cfg.Battle.EnemyDelay)
	duration("BATTLE_TURN_END_DELAY", &cfg.Battle.TurnEndDelay)
	duration("BATTLE_POSE_TIMEOUT", &cfg.Battle.PoseTimeout)
	duration("BATTLE_SESSION_TTL", &cfg.SessionTTL)

	if raw, ok := lookup("FEEDBACK_RATE"); ok && raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate <= 0 {
			errs = append(errs, fmt.Errorf("FEEDBACK_RATE: invalid rate %q", raw))
		} else {
			cfg.FeedbackRate = rate
		}
	}

	if raw, ok := lookup("PUBSUB_TRACING_ENABLED"); ok && raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("PUBSUB_TRACING_ENABLED: %w", err))
		}
		cfg.Tracing.Enabled = enabled
	}
	cfg.Tracing.ServiceName = get("PUBSUB_TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.ZipkinURL = get("PUBSUB_TRACING_ZIPKIN_URL", cfg.Tracing.ZipkinURL)

	if cfg.SessionSecret == "" {
		slog.Warn("SESSION_SECRET is not set; using an insecure development secret")
		cfg.SessionSecret = "exerbeasts-insecure-dev-secret"
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NarrationEnabled reports whether a feedback API key is configured.
func (c *Config) NarrationEnabled() bool {
	return c.GeminiAPIKey != ""
}
