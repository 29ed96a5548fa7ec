package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryProvider re-sends a request after transient failures. A malformed
// completion earns one extra attempt only, since the model tends to
// repeat itself.
type RetryProvider struct {
	inner  Provider
	policy RetryConfig

	// OnRetry, when set, observes each scheduled retry before the wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// WithRetry wraps p. A policy with MaxAttempts below 1 still makes one
// call.
func WithRetry(p Provider, policy RetryConfig) Provider {
	policy.MaxAttempts = max(policy.MaxAttempts, 1)
	if policy.Multiplier <= 0 {
		policy.Multiplier = 1
	}
	return &RetryProvider{inner: p, policy: policy}
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	wait := r.policy.InitialWait
	sawInvalid := false
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= r.policy.MaxAttempts || !IsTransient(err) {
			return nil, err
		}
		var inv *ErrInvalidResponse
		if errors.As(err, &inv) {
			if sawInvalid {
				return nil, err
			}
			sawInvalid = true
		}

		pause := jitter(wait)
		var rl *ErrRateLimit
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			pause = rl.RetryAfter
		}
		if r.OnRetry != nil {
			r.OnRetry(attempt, pause, err)
		}
		if err := sleep(ctx, pause); err != nil {
			return nil, err
		}
		wait = time.Duration(float64(wait) * r.policy.Multiplier)
		if r.policy.MaxWait > 0 {
			wait = min(wait, r.policy.MaxWait)
		}
	}
}

// jitter spreads d by up to 20% either way.
func jitter(d time.Duration) time.Duration {
	spread := float64(d) * 0.2
	return max(d+time.Duration(spread*(2*rand.Float64()-1)), 0)
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
