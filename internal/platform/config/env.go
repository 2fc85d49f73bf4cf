// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Server is the configuration of cmd/server.
type Server struct {
	HTTPAddr      string        `env:"SANCHECK_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr      string        `env:"SANCHECK_GRPC_ADDR" envDefault:":9090"`
	ConfigDir     string        `env:"SANCHECK_CONFIG_DIR" envDefault:"./config"`
	Workers       int           `env:"SANCHECK_WORKERS" envDefault:"0"`
	LogLevel      string        `env:"SANCHECK_LOG_LEVEL" envDefault:"info"`
	WatchInterval time.Duration `env:"SANCHECK_WATCH_INTERVAL" envDefault:"2s"`
}

// LoadServer reads Server from the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if cfg.Workers < 0 {
		return Server{}, fmt.Errorf("parse env: SANCHECK_WORKERS must be >= 0, got %d", cfg.Workers)
	}
	if cfg.WatchInterval <= 0 {
		return Server{}, fmt.Errorf("parse env: SANCHECK_WATCH_INTERVAL must be positive, got %s", cfg.WatchInterval)
	}
	return cfg, nil
}
