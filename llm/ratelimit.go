package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitedProvider throttles calls to an underlying Provider with a
// token-bucket limiter. Waiting respects the caller's context, so a
// canceled run never blocks on the limiter.
type rateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// RateLimited wraps a Provider so that at most rps requests per second are
// issued, with the given burst. A non-positive rps returns the provider
// unchanged.
func RateLimited(p Provider, rps float64, burst int) Provider {
	if rps <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (p *rateLimitedProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	return p.inner.Generate(ctx, req)
}

func (p *rateLimitedProvider) Name() string {
	return p.inner.Name()
}
