package bridge

import (
	"context"
	"time"

	rootcfg "github.com/coachpo/walletgate/config"
	"github.com/coachpo/walletgate/internal/wallet"
)

// RegisterFactory registers the bridge provider with the wallet registry.
// Wallet config keys override the process-level bridge settings.
func RegisterFactory(reg *wallet.Registry) {
	reg.Register("bridge", func(_ context.Context, cfg map[string]any) (wallet.Locator, error) {
		settings := rootcfg.FromEnv().Bridge

		clientCfg := ClientConfig{
			URL:              settings.URL,
			HandshakeTimeout: settings.HandshakeTimeout,
			RequestTimeout:   settings.RequestTimeout,
			RequestsPerSec:   settings.RequestsPerSec,
		}
		if url, ok := cfg["url"].(string); ok && url != "" {
			clientCfg.URL = url
		}
		if d, ok := durationFromConfig(cfg, "handshakeTimeout"); ok {
			clientCfg.HandshakeTimeout = d
		}
		if d, ok := durationFromConfig(cfg, "requestTimeout"); ok {
			clientCfg.RequestTimeout = d
		}
		if rps, ok := floatFromConfig(cfg, "requestsPerSec"); ok {
			clientCfg.RequestsPerSec = rps
		}
		return NewLocator(clientCfg), nil
	})
}

func durationFromConfig(cfg map[string]any, key string) (time.Duration, bool) {
	switch value := cfg[key].(type) {
	case string:
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, false
		}
		return d, true
	case int:
		return time.Duration(value) * time.Second, true
	case float64:
		return time.Duration(value) * time.Second, true
	default:
		return 0, false
	}
}

func floatFromConfig(cfg map[string]any, key string) (float64, bool) {
	switch value := cfg[key].(type) {
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case float64:
		return value, true
	default:
		return 0, false
	}
}
