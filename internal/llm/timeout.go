package llm

import (
	"context"
	"time"
)

type timeoutProvider struct {
	inner Provider
	d     time.Duration
}

// WithTimeout bounds every Generate call by d. A non-positive d returns
// p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, d: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string { return t.inner.ModelID() }
