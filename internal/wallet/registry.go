package wallet

import (
	"context"
	"fmt"
	"sync"
)

// Factory constructs a provider locator from a wallet specification's config map.
type Factory func(ctx context.Context, cfg map[string]any) (Locator, error)

// Registry maintains locator factories keyed by provider kind.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new locator factory registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:        sync.RWMutex{},
		factories: make(map[string]Factory),
	}
}

// Register registers a locator factory for the given provider kind.
func (r *Registry) Register(kind string, factory Factory) {
	if factory == nil {
		panic("wallet locator factory required")
	}
	r.mu.Lock()
	r.factories[kind] = factory
	r.mu.Unlock()
}

// Kinds lists the registered provider kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		out = append(out, kind)
	}
	return out
}

// Create builds a locator for the requested kind.
func (r *Registry) Create(ctx context.Context, kind string, cfg map[string]any) (Locator, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("wallet kind %q not registered", kind)
	}
	locator, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s locator: %w", kind, err)
	}
	return locator, nil
}
