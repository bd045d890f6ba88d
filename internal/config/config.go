package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Transport backends
const (
	TransportMemory = "memory"
	TransportRedis  = "redis"
)

// Config is the process configuration read from the environment
type Config struct {
	Transport    string        `env:"RPS_TRANSPORT" envDefault:"redis"`
	RedisURL     string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	PublishKey   string        `env:"RPS_PUBLISH_KEY"`
	SubscribeKey string        `env:"RPS_SUBSCRIBE_KEY"`
	IdentityFile string        `env:"RPS_IDENTITY_FILE"` // Empty means the default path under the home directory
	ResolveDelay time.Duration `env:"RPS_RESOLVE_DELAY" envDefault:"2s"`
	HTTPHost     string        `env:"RPS_HTTP_HOST" envDefault:"localhost"`
	HTTPPort     int           `env:"RPS_HTTP_PORT" envDefault:"8080"`
	LogLevel     slog.Level    `env:"RPS_LOG_LEVEL" envDefault:"INFO"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads and validates Config from the environment
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot
func (c Config) Validate() error {
	switch c.Transport {
	case TransportMemory, TransportRedis:
	default:
		return fmt.Errorf("invalid RPS_TRANSPORT %q: must be %q or %q", c.Transport, TransportMemory, TransportRedis)
	}
	if c.ResolveDelay <= 0 {
		return errors.New("RPS_RESOLVE_DELAY must be positive")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid RPS_HTTP_PORT %d", c.HTTPPort)
	}
	return nil
}
