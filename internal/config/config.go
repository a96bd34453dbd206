// Package config loads the server configuration from the environment.
package config

import (
	"encoding/base64"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the environment-driven server configuration.
type Config struct {
	Port      string `env:"PORT" envDefault:"3001"`
	PublicURL string `env:"PUBLIC_URL"`

	// X (Twitter) OAuth2 application credentials.
	XClientID     string `env:"X_CLIENT_ID"`
	XClientSecret string `env:"X_CLIENT_SECRET"`
	// XRedirectURI pins the callback URL; when empty it is derived from the
	// request host.
	XRedirectURI string `env:"X_REDIRECT_URI"`
	// XBearerToken is the app-only bearer token used for unauthenticated
	// provider lookups (follow verification).
	XBearerToken string `env:"X_BEARER_TOKEN"`

	// RedisURL selects the shared-cache backends when set; otherwise the
	// local file store and in-process state store are used.
	RedisURL string `env:"REDIS_URL"`
	DataFile string `env:"DATA_FILE" envDefault:"wendrops-data.json"`

	// AdminToken gates document writes. Empty disables writes.
	AdminToken string `env:"ADMIN_TOKEN"`

	// StateSealKey is the base64url-encoded 32-byte key sealing verifier
	// material stored in Redis. Required when RedisURL is set.
	StateSealKey string `env:"STATE_SEAL_KEY"`

	// VerifyRatePerMinute throttles the follow-verification endpoint.
	VerifyRatePerMinute int `env:"VERIFY_RATE_PER_MINUTE" envDefault:"30"`
}

// Load reads .env (when present) and parses the environment.
func Load() (Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RedisURL != "" && cfg.StateSealKey == "" {
		return Config{}, fmt.Errorf("STATE_SEAL_KEY is required when REDIS_URL is set")
	}
	return cfg, nil
}

// SealKey decodes the configured seal key.
func (c Config) SealKey() ([]byte, error) {
	key, err := base64.RawURLEncoding.DecodeString(c.StateSealKey)
	if err != nil {
		return nil, fmt.Errorf("decode STATE_SEAL_KEY: %w", err)
	}
	return key, nil
}
