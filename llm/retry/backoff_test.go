package retry

import (
	"context"
	"testing"
	"time"
)

func TestNoDelay_ReturnsImmediately(t *testing.T) {
	t.Parallel()

	policy := NoDelay()
	start := time.Now()
	if err := policy.Wait(context.Background(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("NoDelay waited %v", elapsed)
	}
}

func TestNilPolicy_ReturnsImmediately(t *testing.T) {
	t.Parallel()

	var policy *Policy
	if err := policy.Wait(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBackoff_DelayGrowsAndCaps(t *testing.T) {
	t.Parallel()

	policy := &Policy{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     400 * time.Millisecond,
		Multiplier:   2.0,
	}

	if d := policy.delayFor(1); d != 100*time.Millisecond {
		t.Fatalf("attempt 1: expected 100ms, got %v", d)
	}
	if d := policy.delayFor(2); d != 200*time.Millisecond {
		t.Fatalf("attempt 2: expected 200ms, got %v", d)
	}
	if d := policy.delayFor(10); d != 400*time.Millisecond {
		t.Fatalf("attempt 10: expected cap 400ms, got %v", d)
	}
}

func TestBackoff_JitterStaysAboveInitial(t *testing.T) {
	t.Parallel()

	policy := &Policy{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
	for i := 0; i < 50; i++ {
		if d := policy.delayFor(2); d < 100*time.Millisecond {
			t.Fatalf("jittered delay %v below initial delay", d)
		}
	}
}

func TestWait_CanceledContext(t *testing.T) {
	t.Parallel()

	policy := &Policy{InitialDelay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := policy.Wait(ctx, 1); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
