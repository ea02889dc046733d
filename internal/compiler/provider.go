package compiler

import (
	"context"
	"sync"
	"time"
)

// Factory builds a Compiler.
type Factory func(ctx context.Context) (*Compiler, error)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithFailureBackoff makes Get return the last build error for d after a
// failed build instead of building again.
func WithFailureBackoff(d time.Duration) ProviderOption {
	return func(p *Provider) { p.backoff = d }
}

// Provider builds the Compiler on first use and keeps it. A failed build is
// retried once the backoff has passed, so installing an engine after startup
// is picked up by a later request.
type Provider struct {
	build   Factory
	backoff time.Duration
	now     func() time.Time

	mu       sync.Mutex
	c        *Compiler
	err      error
	failedAt time.Time
}

func NewProvider(build Factory, opts ...ProviderOption) *Provider {
	p := &Provider{build: build, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Get returns the cached Compiler or builds one.
func (p *Provider) Get(ctx context.Context) (*Compiler, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.c != nil {
		return p.c, nil
	}
	if p.err != nil && p.now().Sub(p.failedAt) < p.backoff {
		return nil, p.err
	}
	c, err := p.build(ctx)
	if err != nil {
		// A canceled request says nothing about the engines.
		if ctx.Err() == nil {
			p.err, p.failedAt = err, p.now()
		}
		return nil, err
	}
	p.c, p.err = c, nil
	return c, nil
}

// Current returns the Compiler if one has been built, else nil.
func (p *Provider) Current() *Compiler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.c
}
