package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coachpo/walletgate/internal/config"
	"github.com/coachpo/walletgate/lib/async"
)

func managerFixture(t *testing.T) (*Manager, *stubProvider) {
	t.Helper()
	provider := &stubProvider{address: "0xA", publicKey: "0xB"}

	reg := NewRegistry()
	reg.Register("fake", func(context.Context, map[string]any) (Locator, error) {
		return StaticLocator(provider), nil
	})

	pool, err := async.NewPool(2, 8)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return NewManager(reg, nil, pool, nil), provider
}

func waitForInstalled(t *testing.T, a *Adapter) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !a.ReadyState().Usable() {
		if time.Now().After(deadline) {
			t.Fatalf("adapter never became usable, state=%s", a.ReadyState())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestManagerStartMaterialisesAdapters(t *testing.T) {
	m, _ := managerFixture(t)

	specs := []config.WalletSpec{
		{Name: "petra", Kind: "fake", DetectInterval: config.Duration(time.Millisecond), DetectAttempts: 2},
		{Name: "martian", Kind: "fake", DetectInterval: config.Duration(time.Millisecond), DetectAttempts: 2},
	}
	if err := m.Start(context.Background(), specs); err != nil {
		t.Fatalf("start: %v", err)
	}

	if got := len(m.Adapters()); got != 2 {
		t.Fatalf("expected 2 adapters, got %d", got)
	}
	adapter, ok := m.Adapter("petra")
	if !ok {
		t.Fatal("petra adapter missing")
	}
	waitForInstalled(t, adapter)
}

func TestManagerStartRejectsDuplicateNames(t *testing.T) {
	m, _ := managerFixture(t)

	specs := []config.WalletSpec{
		{Name: "petra", Kind: "fake"},
		{Name: "petra", Kind: "fake"},
	}
	if err := m.Start(context.Background(), specs); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestManagerStartUnknownKind(t *testing.T) {
	m, _ := managerFixture(t)

	err := m.Start(context.Background(), []config.WalletSpec{{Name: "ghost", Kind: "missing"}})
	if err == nil {
		t.Fatal("expected unknown kind error")
	}
}

func TestManagerDisconnectAll(t *testing.T) {
	m, provider := managerFixture(t)

	specs := []config.WalletSpec{
		{Name: "petra", Kind: "fake", DetectInterval: config.Duration(time.Millisecond), DetectAttempts: 2},
	}
	if err := m.Start(context.Background(), specs); err != nil {
		t.Fatalf("start: %v", err)
	}
	adapter, _ := m.Adapter("petra")
	waitForInstalled(t, adapter)
	if err := adapter.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := m.DisconnectAll(context.Background()); err != nil {
		t.Fatalf("disconnect all: %v", err)
	}
	if adapter.Connected() {
		t.Fatal("adapter should be disconnected")
	}
	if got := provider.disconnectCalls.Load(); got != 1 {
		t.Fatalf("provider disconnect invoked %d times, want 1", got)
	}
}

func TestManagerDisconnectAllNeverFails(t *testing.T) {
	// Provider disconnect failures are reported through events, not errors, so
	// the aggregate is always nil.
	provider := &stubProvider{address: "0xA", publicKey: "0xB", disconnectErr: errors.New("bridge gone")}
	reg := NewRegistry()
	reg.Register("fake", func(context.Context, map[string]any) (Locator, error) {
		return StaticLocator(provider), nil
	})
	m := NewManager(reg, nil, nil, nil)

	if err := m.Start(context.Background(), []config.WalletSpec{{Name: "petra", Kind: "fake"}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	adapter, _ := m.Adapter("petra")
	if err := adapter.RunDetection(context.Background()); err != nil {
		t.Fatalf("detection: %v", err)
	}
	if err := adapter.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := m.DisconnectAll(context.Background()); err != nil {
		t.Fatalf("disconnect all should swallow provider failures: %v", err)
	}
}
