package fake

import (
	"context"
	"time"

	"github.com/coachpo/walletgate/internal/wallet"
)

// RegisterFactory registers the fake provider with the wallet registry.
func RegisterFactory(reg *wallet.Registry) {
	reg.Register("fake", func(_ context.Context, cfg map[string]any) (wallet.Locator, error) {
		opts := Options{}
		if name, ok := cfg["name"].(string); ok {
			opts.Name = name
		}
		if addr, ok := cfg["address"].(string); ok {
			opts.Address = addr
		}
		if key, ok := cfg["publicKey"].(string); ok {
			opts.PublicKey = key
		}
		if n, ok := intFromConfig(cfg, "injectAfter"); ok {
			opts.InjectAfter = n
		}
		if latency, ok := durationFromConfig(cfg, "latency"); ok {
			opts.Latency = latency
		}
		return NewLocator(opts), nil
	})
}

func intFromConfig(cfg map[string]any, key string) (int, bool) {
	switch value := cfg[key].(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case float64:
		return int(value), true
	default:
		return 0, false
	}
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
