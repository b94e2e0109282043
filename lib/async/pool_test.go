package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coachpo/walletgate/errs"
)

func TestNewPoolRejectsZeroWorkers(t *testing.T) {
	if _, err := NewPool(0, 1); !errs.Is(err, errs.CodeInvalid) {
		t.Fatalf("expected invalid_request, got %v", err)
	}
}

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p, err := NewPool(2, 4)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer p.Close()

	var ran atomic.Int32
	done := make(chan struct{})
	err = p.Submit(context.Background(), func(context.Context) error {
		ran.Add(1)
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	if ran.Load() != 1 {
		t.Fatalf("expected one execution, got %d", ran.Load())
	}
}

func TestPoolSubmitNilTask(t *testing.T) {
	p, err := NewPool(1, 0)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer p.Close()

	if err := p.Submit(context.Background(), nil); !errs.Is(err, errs.CodeInvalid) {
		t.Fatalf("expected invalid_request for nil task, got %v", err)
	}
}

func TestPoolSubmitAfterClose(t *testing.T) {
	p, err := NewPool(1, 0)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	p.Close()

	err = p.Submit(context.Background(), func(context.Context) error { return nil })
	if !errs.Is(err, errs.CodeUnavailable) {
		t.Fatalf("expected unavailable after close, got %v", err)
	}
}

func TestPoolShutdownWaitsForInflight(t *testing.T) {
	p, err := NewPool(1, 1)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	var finished atomic.Bool
	release := make(chan struct{})
	if err := p.Submit(context.Background(), func(context.Context) error {
		<-release
		finished.Store(true)
		return nil
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !finished.Load() {
		t.Fatal("shutdown returned before in-flight task completed")
	}
}
