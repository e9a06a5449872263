package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Operation is a unit of work guarded by a policy.
type Operation func(ctx context.Context) error

// Retry re-runs a failing operation immediately, without backoff.
type Retry struct {
	// MaxRetries is the number of additional attempts after the first one.
	MaxRetries int
	// OnRetry is called before every additional attempt.
	OnRetry func(attempt int, err error)
}

func NewRetry(maxRetries int) *Retry {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retry{MaxRetries: maxRetries}
}

// Do runs op until it succeeds or the retry budget is spent. Calls marked
// as a circuit breaker trial get exactly one attempt.
func (r *Retry) Do(ctx context.Context, op Operation) error {
	if op == nil {
		return errors.New("resilience: nil operation")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	attempts := 1
	if r != nil && !IsTrial(ctx) {
		attempts += r.MaxRetries
	}

	var lastErr error
	attempt := 1
	operation := func() (struct{}, error) {
		if err := ctx.Err(); err != nil {
			return struct{}{}, backoff.Permanent(errors.Join(lastErr, err))
		}
		lastErr = op(ctx)
		return struct{}{}, lastErr
	}
	notify := func(err error, _ time.Duration) {
		attempt++
		if r != nil && r.OnRetry != nil {
			r.OnRetry(attempt, err)
		}
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&backoff.ZeroBackOff{}),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(notify),
	)
	return err
}

type trialKey struct{}

// WithTrial marks ctx as carrying a half-open trial call.
func WithTrial(ctx context.Context) context.Context {
	return context.WithValue(ctx, trialKey{}, true)
}

// IsTrial reports whether ctx was marked by WithTrial.
func IsTrial(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(trialKey{}).(bool)
	return v
}
