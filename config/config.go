// Package config centralises runtime configuration helpers for walletgate services.
package config

import (
	"os"
	"strings"
	"time"
)

// Environment identifies the runtime environment where walletgate operates.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

// BridgeSettings configures the local wallet-bridge transport.
type BridgeSettings struct {
	URL              string
	HandshakeTimeout time.Duration
	RequestTimeout   time.Duration
	RequestsPerSec   float64
}

// DetectionSettings bounds the provider detection polling loop.
type DetectionSettings struct {
	Interval time.Duration
	Attempts uint
}

// Settings contains the walletgate configuration tree loaded from defaults and overrides.
type Settings struct {
	Environment Environment
	Bridge      BridgeSettings
	Detection   DetectionSettings
}

// Default returns the default walletgate configuration.
func Default() Settings {
	return Settings{
		Environment: EnvProd,
		Bridge: BridgeSettings{
			URL:              "ws://127.0.0.1:8547",
			HandshakeTimeout: 10 * time.Second,
			RequestTimeout:   30 * time.Second,
			RequestsPerSec:   20,
		},
		Detection: DetectionSettings{
			Interval: 500 * time.Millisecond,
			Attempts: 20,
		},
	}
}

// FromEnv loads configuration values from environment variables, overriding defaults.
func FromEnv() Settings {
	cfg := Default()
	if env := strings.TrimSpace(os.Getenv("WALLETGATE_ENV")); env != "" {
		cfg.Environment = Environment(strings.ToLower(env))
	}
	if v := strings.TrimSpace(os.Getenv("WALLETGATE_BRIDGE_URL")); v != "" {
		cfg.Bridge.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("WALLETGATE_BRIDGE_HANDSHAKE_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Bridge.HandshakeTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("WALLETGATE_BRIDGE_REQUEST_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Bridge.RequestTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("WALLETGATE_DETECT_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Detection.Interval = d
		}
	}
	return cfg
}
