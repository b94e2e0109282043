package eventbus

import (
	"context"
	"sync"

	"github.com/google/uuid"
	concpool "github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/walletgate/errs"
)

// MemoryBus is an in-memory implementation of the lifecycle event bus.
type MemoryBus struct {
	cfg MemoryConfig

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.RWMutex
	subscribers  map[EventType]map[SubscriptionID]*subscriber
	shutdownOnce sync.Once

	publishedCounter metric.Int64Counter
	subscriberGauge  metric.Int64UpDownCounter
	droppedCounter   metric.Int64Counter
}

type subscriber struct {
	ctx    context.Context
	cancel context.CancelFunc
	ch     chan Event
	once   sync.Once
}

// NewMemoryBus constructs a memory-backed lifecycle event bus.
func NewMemoryBus(cfg MemoryConfig) *MemoryBus {
	cfg = cfg.normalize()
	ctx, cancel := context.WithCancel(context.Background())
	bus := new(MemoryBus)
	bus.cfg = cfg
	bus.ctx = ctx
	bus.cancel = cancel
	bus.subscribers = make(map[EventType]map[SubscriptionID]*subscriber)

	meter := otel.Meter("walletgate/eventbus")
	bus.publishedCounter, _ = meter.Int64Counter("eventbus.events.published",
		metric.WithDescription("Number of lifecycle events published to the bus"),
		metric.WithUnit("{event}"))
	bus.subscriberGauge, _ = meter.Int64UpDownCounter("eventbus.subscribers",
		metric.WithDescription("Number of active subscribers"),
		metric.WithUnit("{subscriber}"))
	bus.droppedCounter, _ = meter.Int64Counter("eventbus.delivery.dropped",
		metric.WithDescription("Number of events dropped due to subscriber backpressure"),
		metric.WithUnit("{event}"))

	return bus
}

// Publish fans the event out to all subscribers of its type.
func (b *MemoryBus) Publish(ctx context.Context, evt Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if evt.Type == "" {
		return errs.New("eventbus", errs.CodeInvalid, errs.WithMessage("event type required"))
	}

	b.mu.RLock()
	subMap := b.subscribers[evt.Type]
	subscribers := make([]*subscriber, 0, len(subMap))
	for _, sub := range subMap {
		subscribers = append(subscribers, sub)
	}
	b.mu.RUnlock()

	if b.publishedCounter != nil {
		b.publishedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event_type", string(evt.Type)),
			attribute.String("wallet", evt.Wallet)))
	}

	if len(subscribers) == 0 {
		return nil
	}

	workerLimit := b.cfg.FanoutWorkers
	if workerLimit <= 0 {
		workerLimit = 1
	}

	p := concpool.New().WithMaxGoroutines(workerLimit)
	for _, sub := range subscribers {
		sub := sub
		p.Go(func() {
			b.deliver(ctx, sub, evt)
		})
	}
	p.Wait()
	return nil
}

// Subscribe registers for events of the given type and returns a subscription ID and channel.
func (b *MemoryBus) Subscribe(ctx context.Context, typ EventType) (SubscriptionID, <-chan Event, error) {
	if typ == "" {
		return "", nil, errs.New("eventbus", errs.CodeInvalid, errs.WithMessage("event type required"))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-b.ctx.Done():
		return "", nil, errs.New("eventbus", errs.CodeUnavailable, errs.WithMessage("bus closed"))
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := new(subscriber)
	sub.ctx = ctx
	sub.cancel = cancel
	sub.ch = make(chan Event, b.cfg.BufferSize)

	id := SubscriptionID(uuid.NewString())

	b.mu.Lock()
	if _, ok := b.subscribers[typ]; !ok {
		b.subscribers[typ] = make(map[SubscriptionID]*subscriber)
	}
	b.subscribers[typ][id] = sub
	b.mu.Unlock()

	if b.subscriberGauge != nil {
		b.subscriberGauge.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event_type", string(typ))))
	}

	go b.observe(typ, id, sub)
	return id, sub.ch, nil
}

// Unsubscribe removes the subscription and closes its channel.
func (b *MemoryBus) Unsubscribe(id SubscriptionID) {
	if id == "" {
		return
	}
	b.mu.Lock()
	for typ, subs := range b.subscribers {
		if sub, ok := subs[id]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.subscribers, typ)
			}
			b.mu.Unlock()
			if b.subscriberGauge != nil {
				b.subscriberGauge.Add(context.Background(), -1, metric.WithAttributes(
					attribute.String("event_type", string(typ))))
			}
			sub.close()
			return
		}
	}
	b.mu.Unlock()
}

// Close shuts down the bus and all subscriptions.
func (b *MemoryBus) Close() {
	b.shutdownOnce.Do(func() {
		b.cancel()
		b.mu.Lock()
		for typ, subs := range b.subscribers {
			for id, sub := range subs {
				if sub != nil {
					sub.close()
				}
				delete(subs, id)
			}
			delete(b.subscribers, typ)
		}
		b.mu.Unlock()
	})
}

func (b *MemoryBus) observe(typ EventType, id SubscriptionID, sub *subscriber) {
	<-sub.ctx.Done()
	b.mu.Lock()
	subs := b.subscribers[typ]
	if subs != nil {
		if stored, ok := subs[id]; ok && stored == sub {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.subscribers, typ)
			}
		}
	}
	b.mu.Unlock()
	sub.close()
}

// deliver pushes the event to a subscriber, dropping the oldest buffered event
// when the channel is saturated so slow observers cannot stall publishers.
func (b *MemoryBus) deliver(ctx context.Context, sub *subscriber, evt Event) {
	if sub.ctx.Err() != nil {
		return
	}
	select {
	case <-b.ctx.Done():
		return
	case <-ctx.Done():
		return
	case <-sub.ctx.Done():
		return
	case sub.ch <- evt:
		return
	default:
	}

	select {
	case <-sub.ch:
	default:
	}
	if b.droppedCounter != nil {
		b.droppedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event_type", string(evt.Type)),
			attribute.String("wallet", evt.Wallet)))
	}
	select {
	case sub.ch <- evt:
	default:
	}
}

func (s *subscriber) close() {
	s.once.Do(func() {
		s.cancel()
		close(s.ch)
	})
}
