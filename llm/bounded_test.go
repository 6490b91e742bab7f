package llm_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/firstpixel/agent-workflow/llm"
	"github.com/firstpixel/agent-workflow/testutil/mocks"
)

func TestBoundedLimitsConcurrency(t *testing.T) {
	t.Parallel()

	var current, peak atomic.Int32
	inner := mocks.NewProvider().WithGenerateFunc(
		func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return &llm.GenerateResponse{Output: "ok"}, nil
		})

	bounded := llm.Bounded(inner, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := bounded.Generate(context.Background(), &llm.GenerateRequest{}); err != nil {
				t.Errorf("Generate: %v", err)
			}
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > 2 {
		t.Fatalf("peak concurrency %d exceeds bound 2", p)
	}
	if inner.CallCount() != 8 {
		t.Fatalf("expected 8 calls, got %d", inner.CallCount())
	}
}

func TestBoundedRespectsContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	inner := mocks.NewProvider().WithGenerateFunc(
		func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
			<-release
			return &llm.GenerateResponse{Output: "ok"}, nil
		})
	bounded := llm.Bounded(inner, 1)

	go func() {
		_, _ = bounded.Generate(context.Background(), &llm.GenerateRequest{})
	}()
	// Give the first call time to take the only slot.
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := bounded.Generate(ctx, &llm.GenerateRequest{}); err == nil {
		t.Fatal("expected context error while waiting for a slot")
	}
	close(release)
}

func TestBoundedZeroIsPassthrough(t *testing.T) {
	t.Parallel()

	inner := mocks.NewProvider().WithResponse("ok")
	if got := llm.Bounded(inner, 0); got != llm.Provider(inner) {
		t.Fatal("bound <= 0 should return the provider unchanged")
	}
}

func TestRateLimitedThrottles(t *testing.T) {
	t.Parallel()

	inner := mocks.NewProvider().WithResponse("ok")
	limited := llm.RateLimited(inner, 100, 1)

	start := time.Now()
	for i := 0; i < 4; i++ {
		if _, err := limited.Generate(context.Background(), &llm.GenerateRequest{}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	// 4 calls at 100 rps with burst 1 needs at least 30ms.
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("calls completed in %v, limiter not applied", elapsed)
	}
}

func TestRateLimitedCanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	inner := mocks.NewProvider().WithResponse("ok")
	limited := llm.RateLimited(inner, 0.1, 1)

	if _, err := limited.Generate(context.Background(), &llm.GenerateRequest{}); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := limited.Generate(ctx, &llm.GenerateRequest{}); err == nil {
		t.Fatal("expected error while waiting on limiter")
	}
}
