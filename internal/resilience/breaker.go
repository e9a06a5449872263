package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned for calls short-circuited by an open breaker.
var ErrCircuitOpen = errors.New("circuit_open")

// State is the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

func stateOf(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// CircuitOpenError carries the failure that tripped the breaker.
type CircuitOpenError struct {
	// Rejection is gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
	Rejection error
	Cause     error
}

func (e *CircuitOpenError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %v", ErrCircuitOpen, e.Rejection)
	}
	return fmt.Sprintf("%s: %v: %v", ErrCircuitOpen, e.Rejection, e.Cause)
}

func (e *CircuitOpenError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Rejection}
	}
	return []error{e.Rejection, e.Cause}
}

func (e *CircuitOpenError) Is(target error) bool { return target == ErrCircuitOpen }

type BreakerConfig struct {
	Name             string
	FailureThreshold int
	BreakDuration    time.Duration
	// OnStateChange is called while gobreaker holds its lock; it must not
	// call back into Execute or State.
	OnStateChange func(from, to State)
}

func (c BreakerConfig) normalize() BreakerConfig {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 1
	}
	if c.BreakDuration <= 0 {
		c.BreakDuration = time.Minute
	}
	return c
}

// abandonedError marks a failure caused by the caller going away. gobreaker
// sees it as a success so it never trips the breaker.
type abandonedError struct{ err error }

func (e *abandonedError) Error() string { return e.err.Error() }
func (e *abandonedError) Unwrap() error { return e.err }

// CircuitBreaker adapts gobreaker to context-aware operations. Every caller
// of the same instance shares one breaker; only one half-open trial is
// admitted at a time.
type CircuitBreaker struct {
	mu      sync.Mutex
	cb      *gobreaker.CircuitBreaker[struct{}]
	cfg     BreakerConfig
	lastErr error
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	b := &CircuitBreaker{cfg: cfg.normalize()}
	b.cb = b.build(b.cfg)
	return b
}

func (b *CircuitBreaker) build(cfg BreakerConfig) *gobreaker.CircuitBreaker[struct{}] {
	threshold := uint32(cfg.FailureThreshold)
	onChange := cfg.OnStateChange
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			var abandoned *abandonedError
			return err == nil || errors.As(err, &abandoned)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if onChange != nil {
				onChange(stateOf(from), stateOf(to))
			}
		},
	})
}

func (b *CircuitBreaker) current() *gobreaker.CircuitBreaker[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cb
}

// Execute runs op under the breaker. The half-open trial receives a context
// marked with WithTrial.
func (b *CircuitBreaker) Execute(ctx context.Context, op Operation) error {
	if op == nil {
		return errors.New("resilience: nil operation")
	}

	cb := b.current()
	_, err := cb.Execute(func() (struct{}, error) {
		runCtx := ctx
		if cb.State() == gobreaker.StateHalfOpen {
			runCtx = WithTrial(ctx)
		}
		opErr := op(runCtx)
		if opErr != nil && ctx.Err() != nil {
			return struct{}{}, &abandonedError{err: opErr}
		}
		return struct{}{}, opErr
	})
	if err == nil {
		return nil
	}

	var abandoned *abandonedError
	if errors.As(err, &abandoned) {
		return abandoned.err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.mu.Lock()
		cause := b.lastErr
		b.mu.Unlock()
		return &CircuitOpenError{Rejection: err, Cause: cause}
	}

	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()
	return err
}

// State returns the current state. An open breaker whose break duration
// has elapsed reports half_open.
func (b *CircuitBreaker) State() State {
	return stateOf(b.current().State())
}

func (b *CircuitBreaker) BreakDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg.BreakDuration
}

func (b *CircuitBreaker) FailureThreshold() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg.FailureThreshold
}

// Reconfigure swaps in a breaker built from threshold and duration. The
// new breaker starts closed. Unchanged settings leave the breaker alone.
func (b *CircuitBreaker) Reconfigure(threshold int, duration time.Duration) {
	b.mu.Lock()
	next := b.cfg
	next.FailureThreshold = threshold
	next.BreakDuration = duration
	next = next.normalize()
	if next.FailureThreshold == b.cfg.FailureThreshold && next.BreakDuration == b.cfg.BreakDuration {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	b.replace(next)
}

// Reset forces the breaker back to closed.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	cfg := b.cfg
	b.mu.Unlock()
	b.replace(cfg)
}

func (b *CircuitBreaker) replace(cfg BreakerConfig) {
	from := b.State()

	b.mu.Lock()
	b.cfg = cfg
	b.cb = b.build(cfg)
	b.lastErr = nil
	b.mu.Unlock()

	if cfg.OnStateChange != nil && from != StateClosed {
		cfg.OnStateChange(from, StateClosed)
	}
}
