package llm

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Bounded wraps a provider so at most n Generate calls run concurrently.
// Useful in front of local backends that degrade under parallel load.
// Waiting respects the call's context.
func Bounded(p Provider, n int64) Provider {
	if n <= 0 {
		return p
	}
	return &boundedProvider{inner: p, sem: semaphore.NewWeighted(n)}
}

type boundedProvider struct {
	inner Provider
	sem   *semaphore.Weighted
}

func (b *boundedProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.sem.Release(1)
	return b.inner.Generate(ctx, req)
}

func (b *boundedProvider) Name() string {
	return b.inner.Name()
}
