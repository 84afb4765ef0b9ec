// Package retry runs operations with exponential backoff.
//
// Adapters share it so transient infrastructure failures (throttled
// publishes, dropped connections, 5xx webhook responses) are retried the
// same way everywhere.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxRetries is the maximum number of retry attempts (0 means the
	// operation runs once).
	MaxRetries int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps exponential growth.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied after each retry (default 2.0).
	BackoffFactor float64

	// Jitter adds rand(0, backoff) to each wait.
	Jitter bool

	// IsRetryable decides whether an error is worth another attempt.
	// Nil retries every error.
	IsRetryable func(error) bool

	// OnRetry is called before each wait. attempt is 1-indexed.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultPolicy returns a policy suited to in-process infrastructure calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
	}
}

func (p Policy) withDefaults() Policy {
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = 2.0
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 10 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 100 * time.Millisecond
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.IsRetryable == nil {
		p.IsRetryable = func(error) bool { return true }
	}
	return p
}

// Backoff returns the base wait before the given retry attempt (1-indexed),
// without jitter.
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	backoff := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * p.BackoffFactor)
		if backoff >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return backoff
}

// Do executes fn, retrying retryable failures according to p.
// It returns the result of the first successful call, the first
// non-retryable error, or the last error once retries are exhausted.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	p = p.withDefaults()

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := p.Backoff(attempt)
			if p.Jitter {
				wait += time.Duration(rand.Int63n(int64(wait)))
			}

			if p.OnRetry != nil {
				p.OnRetry(attempt, lastErr, wait)
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, fmt.Errorf("context cancelled while retrying: %w", ctx.Err())
			case <-timer.C:
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !p.IsRetryable(err) {
			return zero, err
		}
	}

	if p.MaxRetries == 0 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("operation failed after %d retries: %w", p.MaxRetries, lastErr)
}

// DoVoid is like Do for operations without a result.
func DoVoid(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
