// Package eventbus defines pub/sub interfaces for wallet lifecycle events.
package eventbus

import (
	"context"
	"time"

	"github.com/coachpo/walletgate/errs"
	"github.com/coachpo/walletgate/internal/schema"
)

// EventType names a wallet lifecycle event.
type EventType string

const (
	// EventConnect is emitted after a connection attempt completes upstream.
	EventConnect EventType = "connect"
	// EventDisconnect is emitted whenever a disconnect finishes, regardless of provider outcome.
	EventDisconnect EventType = "disconnect"
	// EventError is emitted alongside every surfaced operation failure.
	EventError EventType = "error"
	// EventReadyStateChange is emitted when provider detection transitions the ready state.
	EventReadyStateChange EventType = "readyStateChange"
)

// Event is a typed lifecycle notification published by an adapter.
type Event struct {
	Type    EventType
	Wallet  string
	Address string
	State   schema.ReadyState
	Code    errs.Code
	Message string
	Time    time.Time
}

// SubscriptionID uniquely identifies a bus subscription.
type SubscriptionID string

// Bus delivers lifecycle events to interested subscribers.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(ctx context.Context, typ EventType) (SubscriptionID, <-chan Event, error)
	Unsubscribe(id SubscriptionID)
	Close()
}

// MemoryConfig configures the in-memory bus buffers.
type MemoryConfig struct {
	BufferSize    int
	FanoutWorkers int
}

func (c MemoryConfig) normalize() MemoryConfig {
	if c.BufferSize <= 0 {
		c.BufferSize = 64
	}
	if c.FanoutWorkers <= 0 {
		c.FanoutWorkers = 4
	}
	return c
}
