package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesWalletSpecs(t *testing.T) {
	path := writeConfig(t, `
environment: dev
eventbus:
  bufferSize: 32
  fanoutWorkers: 2
detection:
  workers: 3
  queue: 16
wallets:
  - name: petra
    kind: bridge
    timeout: 5s
    detectInterval: 250ms
    detectAttempts: 8
    config:
      url: ws://127.0.0.1:8547
  - name: local
    kind: fake
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "dev" {
		t.Fatalf("unexpected environment %q", cfg.Environment)
	}
	if cfg.Eventbus.BufferSize != 32 || cfg.Eventbus.FanoutWorkers != 2 {
		t.Fatalf("unexpected eventbus config: %+v", cfg.Eventbus)
	}
	if len(cfg.Wallets) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(cfg.Wallets))
	}
	petra := cfg.Wallets[0]
	if petra.Kind != "bridge" || petra.Timeout.Std() != 5*time.Second {
		t.Fatalf("unexpected spec: %+v", petra)
	}
	if petra.DetectInterval.Std() != 250*time.Millisecond || petra.DetectAttempts != 8 {
		t.Fatalf("unexpected detection settings: %+v", petra)
	}
	if petra.Config["url"] != "ws://127.0.0.1:8547" {
		t.Fatalf("unexpected wallet config: %+v", petra.Config)
	}
}

func TestLoadDurationAcceptsIntegerSeconds(t *testing.T) {
	path := writeConfig(t, `
wallets:
  - name: petra
    kind: bridge
    timeout: 15
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Wallets[0].Timeout.Std() != 15*time.Second {
		t.Fatalf("expected 15s, got %s", cfg.Wallets[0].Timeout.Std())
	}
}

func TestLoadRejectsDuplicateWalletNames(t *testing.T) {
	path := writeConfig(t, `
wallets:
  - name: petra
    kind: bridge
  - name: petra
    kind: fake
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestLoadRejectsMissingKind(t *testing.T) {
	path := writeConfig(t, `
wallets:
  - name: petra
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected missing kind error")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, loaded, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load or default: %v", err)
	}
	if loaded {
		t.Fatal("expected loaded=false for missing file")
	}
	if cfg.Eventbus.BufferSize != DefaultAppConfig().Eventbus.BufferSize {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOrDefaultSurfacesParseErrors(t *testing.T) {
	path := writeConfig(t, "wallets: [")
	if _, _, err := LoadOrDefault(path); err == nil {
		t.Fatal("expected parse error to surface")
	}
}
