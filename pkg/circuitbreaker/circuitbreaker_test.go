package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestOpensAfterThreshold(t *testing.T) {
	cb := New(Config{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Hour, ResetTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) || called {
		t.Fatalf("expected ErrOpen without calling fn, got %v (called=%v)", err, called)
	}
	if cb.GetState() != StateOpen {
		t.Errorf("state = %s", cb.GetState())
	}
}

func TestHalfOpenRecovers(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: 10 * time.Millisecond, ResetTimeout: time.Hour})
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errBoom })
	if err := cb.Execute(ctx, func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected open, got %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if err := cb.Execute(ctx, func() error { return nil }); err != nil {
		t.Fatalf("half-open call: %v", err)
	}
	if err := cb.Execute(ctx, func() error { return nil }); err != nil {
		t.Fatalf("closed call: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %s", cb.GetState())
	}
}

func TestSuccessResetsFailures(t *testing.T) {
	cb := New(Config{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Hour, ResetTimeout: time.Hour})
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errBoom })
	_ = cb.Execute(ctx, func() error { return nil })
	_ = cb.Execute(ctx, func() error { return errBoom })
	if err := cb.Execute(ctx, func() error { return nil }); err != nil {
		t.Fatalf("breaker opened on non-consecutive failures: %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	cb := New(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := cb.Execute(ctx, func() error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestStateString(t *testing.T) {
	if StateHalfOpen.String() != "half-open" || StateOpen.String() != "open" || StateClosed.String() != "closed" {
		t.Error("unexpected state names")
	}
	if New(DefaultConfig()).GetStats()["state"] != "closed" {
		t.Error("new breaker should be closed")
	}
}
