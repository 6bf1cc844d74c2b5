package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker fails fast without
// invoking the wrapped call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the circuit breaker state
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half-open"
)

// CircuitBreaker guards a call against a persistently failing
// collaborator. After FailureThreshold consecutive failures it opens
// and fails fast for the Cooldown window; the first call after the
// window runs as a half-open trial. Trial success closes the breaker
// and resets the counter, trial failure reopens it.
type CircuitBreaker struct {
	FailureThreshold int
	Cooldown         time.Duration
	Logger           *zap.Logger

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	now         func() time.Time
}

// NewCircuitBreaker creates a closed breaker with the given threshold
// and cooldown window.
func NewCircuitBreaker(failureThreshold int, cooldown time.Duration, logger *zap.Logger) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		FailureThreshold: failureThreshold,
		Cooldown:         cooldown,
		Logger:           logger,
		state:            StateClosed,
		now:              time.Now,
	}
}

// State returns the breaker's current state, accounting for an
// expired cooldown.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.now().Sub(cb.lastFailure) >= cb.Cooldown {
		return StateHalfOpen
	}
	return cb.state
}

// Do runs fn through the breaker. While open it returns ErrCircuitOpen
// without invoking fn.
func (cb *CircuitBreaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	cb.mu.Lock()
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) < cb.Cooldown {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		if cb.Logger != nil {
			cb.Logger.Info("circuit breaker half-open, allowing trial call")
		}
	case StateHalfOpen:
		// Only one trial call at a time.
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.state == StateHalfOpen || cb.failures >= cb.FailureThreshold {
			if cb.state != StateOpen && cb.Logger != nil {
				cb.Logger.Warn("circuit breaker opened",
					zap.Int("consecutive_failures", cb.failures),
					zap.Duration("cooldown", cb.Cooldown))
			}
			cb.state = StateOpen
		}
		return err
	}

	if cb.state == StateHalfOpen && cb.Logger != nil {
		cb.Logger.Info("circuit breaker closed after successful trial")
	}
	cb.state = StateClosed
	cb.failures = 0
	return nil
}
