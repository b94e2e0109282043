package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/coachpo/walletgate/errs"
	"github.com/coachpo/walletgate/internal/schema"
)

func TestNewMemoryBus(t *testing.T) {
	bus := NewMemoryBus(MemoryConfig{BufferSize: 10, FanoutWorkers: 2})
	if bus == nil {
		t.Fatal("expected non-nil bus")
	}
	bus.Close()
}

func TestMemoryBusPublishNoSubscribers(t *testing.T) {
	bus := NewMemoryBus(MemoryConfig{BufferSize: 10})
	defer bus.Close()

	err := bus.Publish(context.Background(), Event{Type: EventConnect, Wallet: "petra"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMemoryBusPublishEmptyType(t *testing.T) {
	bus := NewMemoryBus(MemoryConfig{BufferSize: 10})
	defer bus.Close()

	err := bus.Publish(context.Background(), Event{Wallet: "petra"})
	if !errs.Is(err, errs.CodeInvalid) {
		t.Fatalf("expected invalid_request, got %v", err)
	}
}

func TestMemoryBusDeliversToSubscriber(t *testing.T) {
	bus := NewMemoryBus(MemoryConfig{BufferSize: 10, FanoutWorkers: 2})
	defer bus.Close()

	ctx := context.Background()
	id, ch, err := bus.Subscribe(ctx, EventConnect)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer bus.Unsubscribe(id)

	evt := Event{Type: EventConnect, Wallet: "petra", Address: "0xA", Time: time.Now()}
	if err := bus.Publish(ctx, evt); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.Wallet != "petra" || got.Address != "0xA" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestMemoryBusTypeIsolation(t *testing.T) {
	bus := NewMemoryBus(MemoryConfig{BufferSize: 10})
	defer bus.Close()

	ctx := context.Background()
	id, ch, err := bus.Subscribe(ctx, EventError)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer bus.Unsubscribe(id)

	if err := bus.Publish(ctx, Event{Type: EventDisconnect, Wallet: "petra"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-ch:
		t.Fatalf("error subscriber received foreign event: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewMemoryBus(MemoryConfig{BufferSize: 10})
	defer bus.Close()

	id, ch, err := bus.Subscribe(context.Background(), EventReadyStateChange)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	bus.Unsubscribe(id)

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}

	// Publishing after unsubscribe must not block or error.
	if err := bus.Publish(context.Background(), Event{Type: EventReadyStateChange, State: schema.ReadyStateInstalled}); err != nil {
		t.Fatalf("publish after unsubscribe: %v", err)
	}
}

func TestMemoryBusSubscriberContextCancellation(t *testing.T) {
	bus := NewMemoryBus(MemoryConfig{BufferSize: 10})
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	_, ch, err := bus.Subscribe(ctx, EventConnect)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel after context cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancellation")
	}
}

func TestMemoryBusBackpressureDropsOldest(t *testing.T) {
	bus := NewMemoryBus(MemoryConfig{BufferSize: 1, FanoutWorkers: 1})
	defer bus.Close()

	ctx := context.Background()
	id, ch, err := bus.Subscribe(ctx, EventError)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer bus.Unsubscribe(id)

	first := Event{Type: EventError, Wallet: "petra", Message: "first"}
	second := Event{Type: EventError, Wallet: "petra", Message: "second"}
	if err := bus.Publish(ctx, first); err != nil {
		t.Fatalf("publish first: %v", err)
	}
	if err := bus.Publish(ctx, second); err != nil {
		t.Fatalf("publish second: %v", err)
	}

	select {
	case got := <-ch:
		if got.Message != "second" {
			t.Fatalf("expected newest event to survive, got %q", got.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for surviving event")
	}
}

func TestMemoryBusSubscribeAfterClose(t *testing.T) {
	bus := NewMemoryBus(MemoryConfig{BufferSize: 10})
	bus.Close()

	if _, _, err := bus.Subscribe(context.Background(), EventConnect); !errs.Is(err, errs.CodeUnavailable) {
		t.Fatalf("expected unavailable after close, got %v", err)
	}
}
