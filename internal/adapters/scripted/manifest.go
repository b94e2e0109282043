package scripted

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/coachpo/walletgate/internal/wallet"
)

// RegisterFactory registers the scripted provider with the wallet registry.
// The wallet config supplies either inline "script" source or a "path" to a
// JavaScript file.
func RegisterFactory(reg *wallet.Registry) {
	reg.Register("scripted", func(_ context.Context, cfg map[string]any) (wallet.Locator, error) {
		name := "wallet.js"
		source := ""

		if inline, ok := cfg["script"].(string); ok && strings.TrimSpace(inline) != "" {
			source = inline
		} else if path, ok := cfg["path"].(string); ok && strings.TrimSpace(path) != "" {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("scripted wallet: read %q: %w", path, err)
			}
			name = path
			source = string(raw)
		}
		if source == "" {
			return nil, errors.New("scripted wallet: config requires script or path")
		}

		provider, err := NewProviderFromSource(name, source)
		if err != nil {
			return nil, err
		}
		return wallet.StaticLocator(provider), nil
	})
}
