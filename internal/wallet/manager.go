package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/coachpo/walletgate/internal/bus/eventbus"
	"github.com/coachpo/walletgate/internal/config"
	"github.com/coachpo/walletgate/internal/observability"
	"github.com/coachpo/walletgate/lib/async"
)

// Manager owns adapter instances materialised from the wallet specifications.
type Manager struct {
	mu       sync.RWMutex
	registry *Registry
	bus      eventbus.Bus
	log      observability.Logger
	pool     *async.Pool
	adapters map[string]*Adapter
}

// NewManager creates a manager running detection tasks on the supplied pool.
func NewManager(reg *Registry, bus eventbus.Bus, pool *async.Pool, logger observability.Logger) *Manager {
	if reg == nil {
		reg = NewRegistry()
	}
	if logger == nil {
		logger = observability.Log()
	}
	return &Manager{
		mu:       sync.RWMutex{},
		registry: reg,
		bus:      bus,
		log:      logger,
		pool:     pool,
		adapters: make(map[string]*Adapter),
	}
}

// Registry exposes the underlying locator factory registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Start materialises all adapters from the supplied specifications and
// schedules their detection tasks.
func (m *Manager) Start(ctx context.Context, specs []config.WalletSpec) error {
	for _, spec := range specs {
		if err := m.addAdapter(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) addAdapter(ctx context.Context, spec config.WalletSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.adapters[spec.Name]; exists {
		return fmt.Errorf("wallet %q already exists", spec.Name)
	}

	locator, err := m.registry.Create(ctx, spec.Kind, spec.Config)
	if err != nil {
		return err
	}

	adapter := NewAdapter(Options{
		Name:           spec.Name,
		Timeout:        spec.Timeout.Std(),
		DetectInterval: spec.DetectInterval.Std(),
		DetectAttempts: spec.DetectAttempts,
		Locator:        locator,
		Bus:            m.bus,
		Logger:         m.log,
	})
	m.adapters[spec.Name] = adapter

	if m.pool != nil {
		if err := m.pool.Submit(ctx, adapter.RunDetection); err != nil {
			return fmt.Errorf("schedule detection for %q: %w", spec.Name, err)
		}
	}
	return nil
}

// Adapters returns a copy of the adapter map.
func (m *Manager) Adapters() map[string]*Adapter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*Adapter, len(m.adapters))
	for name, adapter := range m.adapters {
		out[name] = adapter
	}
	return out
}

// Adapter resolves an adapter by wallet name.
func (m *Manager) Adapter(name string) (*Adapter, bool) {
	m.mu.RLock()
	adapter, ok := m.adapters[name]
	m.mu.RUnlock()
	return adapter, ok
}

// DisconnectAll disconnects every managed adapter, aggregating failures.
func (m *Manager) DisconnectAll(ctx context.Context) error {
	m.mu.RLock()
	adapters := make([]*Adapter, 0, len(m.adapters))
	for _, adapter := range m.adapters {
		adapters = append(adapters, adapter)
	}
	m.mu.RUnlock()

	errs := make([]error, 0, len(adapters))
	for _, adapter := range adapters {
		if err := adapter.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect %s: %w", adapter.Name(), err))
		}
	}
	return observability.AggregateErrors("disconnect_all", errs)
}
