package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// Empty DatabaseURL runs on in-memory stores seeded from the embedded venue list.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	DefaultProvider string `envconfig:"DEFAULT_PROVIDER" default:"demo"`

	SessionHashKeyB64  string `envconfig:"SESSION_HASH_KEY"`
	SessionBlockKeyB64 string `envconfig:"SESSION_BLOCK_KEY"`
	SessionHashKey     []byte `ignored:"true"`
	SessionBlockKey    []byte `ignored:"true"`

	// bcrypt hash of the operator API key; empty disables auth on /v1.
	APIKeyBcrypt string `envconfig:"API_KEY_BCRYPT"`

	OpenTableToken   string `envconfig:"OPENTABLE_TOKEN"`
	OpenTablePQHash  string `envconfig:"OPENTABLE_PQ_HASH"`
	OpenTableBaseURL string `envconfig:"OPENTABLE_BASE_URL"`

	ResyAPIKey    string `envconfig:"RESY_API_KEY"`
	ResyAuthToken string `envconfig:"RESY_AUTH_TOKEN"`
	ResyBaseURL   string `envconfig:"RESY_BASE_URL"`

	// Zero pings the providers once at startup only.
	ProviderHealthInterval time.Duration `envconfig:"PROVIDER_HEALTH_INTERVAL" default:"5m"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"booking.exchange"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	DevMode bool `envconfig:"DEV_MODE"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.DefaultProvider = strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	if cfg.DefaultProvider == "" {
		return cfg, fmt.Errorf("DEFAULT_PROVIDER must not be blank")
	}

	var err error
	if cfg.SessionHashKeyB64 != "" {
		cfg.SessionHashKey, err = decodeB64("SESSION_HASH_KEY", cfg.SessionHashKeyB64)
		if err != nil {
			return cfg, err
		}
	}
	if cfg.SessionBlockKeyB64 != "" {
		cfg.SessionBlockKey, err = decodeB64("SESSION_BLOCK_KEY", cfg.SessionBlockKeyB64)
		if err != nil {
			return cfg, err
		}
		switch len(cfg.SessionBlockKey) {
		case 16, 24, 32:
		default:
			return cfg, fmt.Errorf("SESSION_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(cfg.SessionBlockKey))
		}
	}
	return cfg, nil
}

// UsesDatabase reports whether the registry and ledger run on Postgres.
func (c Config) UsesDatabase() bool { return c.DatabaseURL != "" }

func decodeB64(k, v string) ([]byte, error) {
	if b, err := os.ReadFile(v); err == nil {
		// allow pointing to a file path for k8s secret mounts
		v = string(b)
	}
	v = strings.TrimSpace(v)
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
