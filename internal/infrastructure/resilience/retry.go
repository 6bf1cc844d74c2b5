package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Retry is an explicit retry policy with exponential backoff. The
// delay is multiplied by Backoff after every failed attempt.
type Retry struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     float64

	// OnRetry is invoked before each retry with the attempt number
	// that just failed and its error. Optional.
	OnRetry func(attempt int, err error)

	Logger *zap.Logger
}

// NewRetry creates a retry policy with the default 3 attempts, 1s
// initial delay and a backoff factor of 2.
func NewRetry(logger *zap.Logger) *Retry {
	return &Retry{
		MaxAttempts: 3,
		Delay:       time.Second,
		Backoff:     2.0,
		Logger:      logger,
	}
}

// Do runs fn, retrying on error until MaxAttempts is reached. The
// last error is returned once attempts are exhausted. Waiting between
// attempts respects ctx cancellation.
func (r *Retry) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.Delay
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	if r.Backoff > 0 {
		bo.Multiplier = r.Backoff
	}

	attempt := 0
	operation := func() error {
		attempt++
		return fn(ctx)
	}
	notify := func(err error, wait time.Duration) {
		if r.Logger != nil {
			r.Logger.Warn("call failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Duration("delay", wait),
				zap.Error(err))
		}
		if r.OnRetry != nil {
			r.OnRetry(attempt, err)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)
	err := backoff.RetryNotify(operation, policy, notify)
	if err != nil && r.Logger != nil {
		r.Logger.Error("call failed, attempts exhausted",
			zap.Int("attempts", attempt),
			zap.Error(err))
	}
	return err
}
