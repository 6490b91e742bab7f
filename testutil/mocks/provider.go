// Package mocks provides configurable test doubles for the llm interfaces.
package mocks

import (
	"context"
	"sync"

	"github.com/firstpixel/agent-workflow/llm"
)

// Provider is a configurable mock generation backend. Configure it with
// the With* builders, then inspect recorded calls after the run. All
// methods are safe for concurrent use.
type Provider struct {
	mu         sync.Mutex
	name       string
	response   string
	err        error
	generateFn func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error)
	failFirst  int
	failErr    error
	calls      []*llm.GenerateRequest
}

// NewProvider creates a mock provider that echoes its configured response.
func NewProvider() *Provider {
	return &Provider{name: "mock"}
}

// WithName sets the provider name.
func (p *Provider) WithName(name string) *Provider {
	p.name = name
	return p
}

// WithResponse sets a fixed output returned by every call.
func (p *Provider) WithResponse(output string) *Provider {
	p.response = output
	return p
}

// WithError makes every call fail with err.
func (p *Provider) WithError(err error) *Provider {
	p.err = err
	return p
}

// WithGenerateFunc installs a custom handler, overriding the fixed
// response and error.
func (p *Provider) WithGenerateFunc(fn func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error)) *Provider {
	p.generateFn = fn
	return p
}

// FailFirst makes the first n calls fail with err before the configured
// behavior takes over.
func (p *Provider) FailFirst(n int, err error) *Provider {
	p.failFirst = n
	p.failErr = err
	return p
}

// Generate implements llm.Provider.
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	n := len(p.calls)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= p.failFirst {
		return nil, p.failErr
	}
	if p.generateFn != nil {
		return p.generateFn(ctx, req)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &llm.GenerateResponse{Output: p.response}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string {
	return p.name
}

// CallCount reports how many times Generate was invoked.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// Calls returns a copy of the recorded requests in call order.
func (p *Provider) Calls() []*llm.GenerateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*llm.GenerateRequest, len(p.calls))
	copy(out, p.calls)
	return out
}

// LastCall returns the most recent request, or nil before any call.
func (p *Provider) LastCall() *llm.GenerateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return nil
	}
	return p.calls[len(p.calls)-1]
}
