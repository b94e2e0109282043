package wallet

import (
	"context"
	"errors"
	"testing"
)

func TestRegistryCreateResolvesFactory(t *testing.T) {
	reg := NewRegistry()
	reg.Register("fake", func(_ context.Context, cfg map[string]any) (Locator, error) {
		if cfg["address"] != "0xA" {
			t.Fatalf("factory config not forwarded: %+v", cfg)
		}
		return StaticLocator(&stubProvider{address: "0xA"}), nil
	})

	locator, err := reg.Create(context.Background(), "fake", map[string]any{"address": "0xA"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if locator == nil {
		t.Fatal("expected locator")
	}
}

func TestRegistryCreateUnknownKind(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Create(context.Background(), "missing", nil); err == nil {
		t.Fatal("expected error for unregistered kind")
	}
}

func TestRegistryCreateWrapsFactoryError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("bad config")
	reg.Register("fake", func(context.Context, map[string]any) (Locator, error) {
		return nil, boom
	})
	_, err := reg.Create(context.Background(), "fake", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped factory error, got %v", err)
	}
}

func TestRegistryRegisterNilFactoryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil factory")
		}
	}()
	NewRegistry().Register("fake", nil)
}

func TestRegistryKinds(t *testing.T) {
	reg := NewRegistry()
	reg.Register("fake", func(context.Context, map[string]any) (Locator, error) { return nil, nil })
	reg.Register("bridge", func(context.Context, map[string]any) (Locator, error) { return nil, nil })

	kinds := reg.Kinds()
	if len(kinds) != 2 {
		t.Fatalf("expected 2 kinds, got %v", kinds)
	}
}
