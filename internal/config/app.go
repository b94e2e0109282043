// Package config manages application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with yaml support for "500ms"-style strings
// and bare integers interpreted as seconds.
type Duration time.Duration

// UnmarshalYAML supports duration strings and integer second counts.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = 0
		return nil
	}
	text := strings.TrimSpace(node.Value)
	if text == "" {
		*d = 0
		return nil
	}
	if parsed, err := time.ParseDuration(text); err == nil {
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := node.Decode(&seconds); err != nil {
		return fmt.Errorf("invalid duration %q", text)
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// WalletSpec describes one wallet adapter to materialise.
type WalletSpec struct {
	Name           string         `yaml:"name"`
	Kind           string         `yaml:"kind"`
	Timeout        Duration       `yaml:"timeout"`
	DetectInterval Duration       `yaml:"detectInterval"`
	DetectAttempts uint           `yaml:"detectAttempts"`
	Config         map[string]any `yaml:"config"`
}

// EventbusConfig sets in-memory event bus sizing characteristics.
type EventbusConfig struct {
	BufferSize    int `yaml:"bufferSize"`
	FanoutWorkers int `yaml:"fanoutWorkers"`
}

// DetectionConfig sizes the worker pool running provider detection tasks.
type DetectionConfig struct {
	Workers int `yaml:"workers"`
	Queue   int `yaml:"queue"`
}

// TelemetryConfig carries OpenTelemetry exporter settings.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	OTLPInsecure bool   `yaml:"otlpInsecure"`
}

// AppConfig is the root application configuration tree.
type AppConfig struct {
	Environment string          `yaml:"environment"`
	Eventbus    EventbusConfig  `yaml:"eventbus"`
	Detection   DetectionConfig `yaml:"detection"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Wallets     []WalletSpec    `yaml:"wallets"`
}

// DefaultAppConfig returns the configuration used when no file is present.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Environment: "development",
		Eventbus:    EventbusConfig{BufferSize: 64, FanoutWorkers: 4},
		Detection:   DetectionConfig{Workers: 2, Queue: 8},
		Telemetry:   TelemetryConfig{Enabled: false, OTLPEndpoint: "", OTLPInsecure: false},
		Wallets:     nil,
	}
}

// Load reads and validates the application configuration at path.
func Load(path string) (AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg := DefaultAppConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// LoadOrDefault loads the configuration file when present; a missing file
// yields the defaults and false.
func LoadOrDefault(path string) (AppConfig, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppConfig(), false, nil
		}
		return AppConfig{}, false, err
	}
	return cfg, true, nil
}

// Validate checks structural invariants of the configuration.
func (c AppConfig) Validate() error {
	seen := make(map[string]struct{}, len(c.Wallets))
	for i, spec := range c.Wallets {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return fmt.Errorf("wallet %d: name required", i)
		}
		if strings.TrimSpace(spec.Kind) == "" {
			return fmt.Errorf("wallet %q: kind required", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("wallet %q: duplicate name", name)
		}
		seen[name] = struct{}{}
	}
	if c.Eventbus.BufferSize < 0 {
		return fmt.Errorf("eventbus bufferSize must be >= 0")
	}
	if c.Detection.Workers < 0 {
		return fmt.Errorf("detection workers must be >= 0")
	}
	return nil
}
