package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetry tells Blocking that the call should be tried again.
var ErrRetry = errors.New("retry")

// Backoff blocks until the next attempt.
//
// It should return ctx.Err() when the context is done before the next attempt.
type Backoff func(context.Context) error

// StaticBackoff waits for the interval for each attempt.
func StaticBackoff(interval time.Duration) Backoff {
	return ExponentialBackoff(interval, 1, interval)
}

// ExponentialBackoff waits for initialInterval, then the interval grows r times for each attempt.
//
// The interval does not exceed max.
func ExponentialBackoff(initialInterval time.Duration, r float64, max time.Duration) Backoff {
	interval := initialInterval
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * r)
		if max < interval {
			interval = max
		}
		return nil
	}
}

// Blocking calls f until it succeeds or fails with other than ErrRetry.
//
// f is called at once, and b is used between attempts.
//
// # Returns
//
// - T: value returned by the last call of f.
//
// - error: error from the last call of f, or from b when the context is done.
func Blocking[T any](ctx context.Context, b Backoff, f func(context.Context) (T, error)) (T, error) {
	for {
		last, err := f(ctx)
		if err == nil || !errors.Is(err, ErrRetry) {
			return last, err
		}
		if err := b(ctx); err != nil {
			return last, err
		}
	}
}
