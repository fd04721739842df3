// Package config provides configuration loading for the serving process.
// It uses koanf to merge an optional YAML file with environment variables;
// environment variables take precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Store backend selectors.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Defaults for non-secret configuration.
const (
	DefaultAddr          = ":8787"
	DefaultLogLevel      = "info"
	DefaultCORSOrigin    = "http://localhost:3000"
	DefaultSweepInterval = 60 * time.Second
	DefaultStore         = StoreMemory
)

// Config holds all configuration values for the server.
type Config struct {
	Addr          string        `koanf:"addr"`
	LogLevel      string        `koanf:"log_level"`
	CORSOrigin    string        `koanf:"cors_origin"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	Store         string        `koanf:"store"`
	RedisURL      string        `koanf:"redis_url"`
}

// Load reads configuration from an optional YAML file and the environment.
// An empty path skips the file layer.
func Load(configFilePath string) (*Config, error) {
	k := koanf.New(".")

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFilePath, err)
		}
	}

	cfg := &Config{
		Addr:          stringOr(k, "addr", "PRESENCE_ADDR", DefaultAddr),
		LogLevel:      stringOr(k, "log_level", "LOG_LEVEL", DefaultLogLevel),
		CORSOrigin:    stringOr(k, "cors_origin", "CORS_ORIGIN", DefaultCORSOrigin),
		Store:         stringOr(k, "store", "NONCE_STORE", DefaultStore),
		RedisURL:      stringOr(k, "redis_url", "REDIS_URL", ""),
		SweepInterval: DefaultSweepInterval,
	}

	if k.Exists("sweep_interval") {
		cfg.SweepInterval = k.Duration("sweep_interval")
	}
	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("SWEEP_INTERVAL: %w", err)
		}
		cfg.SweepInterval = d
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", cfg.SweepInterval)
	}

	switch cfg.Store {
	case StoreMemory:
	case StoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("store %q requires REDIS_URL", cfg.Store)
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}

	return cfg, nil
}

// stringOr resolves a value by precedence: environment, file, default.
func stringOr(k *koanf.Koanf, key, envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if v := k.String(key); v != "" {
		return v
	}
	return fallback
}
