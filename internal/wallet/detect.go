package wallet

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/coachpo/walletgate/internal/bus/eventbus"
	"github.com/coachpo/walletgate/internal/observability"
	"github.com/coachpo/walletgate/internal/schema"
)

// RunDetection polls the locator for provider presence over a fixed interval
// with a bounded number of attempts. The first successful detection installs
// the provider, moves the ready state to Installed, and emits a single
// readyStateChange event; the transition never reverses. Exhausting the
// attempt limit leaves the adapter in NotDetected and is not an error.
func (a *Adapter) RunDetection(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a.mu.Lock()
	state := a.readyState
	locator := a.locator
	a.mu.Unlock()

	if locator == nil || state == schema.ReadyStateUnsupported {
		return nil
	}
	if state == schema.ReadyStateInstalled {
		return nil
	}

	backoffCfg := backoff.NewConstantBackOff(a.detectInterval)

	for attempt := uint(0); attempt < a.detectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		provider, err := locator.Detect(ctx)
		if err != nil {
			a.log.Debug("provider detection attempt failed",
				observability.String("wallet", a.name),
				observability.Err(err))
		} else if provider != nil {
			a.installProvider(ctx, provider)
			return nil
		}

		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop {
			sleep = a.detectInterval
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}

	a.log.Debug("provider not detected within attempt limit",
		observability.String("wallet", a.name))
	return nil
}

func (a *Adapter) installProvider(ctx context.Context, p Provider) {
	a.mu.Lock()
	if a.readyState == schema.ReadyStateInstalled {
		a.mu.Unlock()
		return
	}
	a.provider = p
	a.readyState = schema.ReadyStateInstalled
	a.mu.Unlock()

	a.metrics.RecordReadyState(ctx, a.name, schema.ReadyStateInstalled.String())
	a.emit(ctx, eventbus.Event{Type: eventbus.EventReadyStateChange, State: schema.ReadyStateInstalled})
	a.log.Info("wallet provider detected", observability.String("wallet", a.name))
}
