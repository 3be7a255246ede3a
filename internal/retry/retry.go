// Package retry provides a reusable retry policy with exponential backoff
// and error classification shared by both remote clients.
package retry

import (
	"context"
	"errors"
	"time"
)

// TransientError wraps a failure that is likely temporary (network error,
// timeout, 5xx) and safe to retry after a backoff.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// RateLimitError wraps a rate-limit rejection carrying the wait the server
// asked for. The wait is honored exactly, not multiplied into the backoff.
type RateLimitError struct {
	Err  error
	Wait time.Duration
}

func (e *RateLimitError) Error() string { return e.Err.Error() }
func (e *RateLimitError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. Returns nil for nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	return &TransientError{Err: err}
}

// IsTransient reports whether err (or any error in its chain) should be
// retried after a backoff. Rate-limited errors are transient too; they
// just carry their own wait.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var rl *RateLimitError

	return errors.As(err, &rl)
}

// Wait returns the server-specified wait if err is a rate-limit error.
func Wait(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.Wait, true
	}

	return 0, false
}

// Policy bounds a retry loop: attempt ceiling, exponential backoff base
// and the cap that keeps total stall time finite.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Default is the policy both clients use: 5 attempts, 2s base doubling per
// attempt, capped at 5 minutes.
func Default() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		MaxDelay:    5 * time.Minute,
	}
}

// delay computes the backoff before attempt n (0-based): base * 2^n,
// capped at MaxDelay. Shift-based so it cannot overflow for sane n.
func (p Policy) delay(attempt int) time.Duration {
	const maxShift = 16

	if attempt > maxShift {
		attempt = maxShift
	}

	d := p.BaseDelay << uint(attempt)
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}

	return d
}

// Do runs fn until it succeeds, fails permanently, exhausts the attempt
// ceiling, or ctx is cancelled. Permanent failures return immediately
// without a retry. Rate-limit failures wait exactly the server-specified
// duration; other transient failures wait the exponential backoff. Every
// wait is interruptible by ctx.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !IsTransient(lastErr) {
			return lastErr
		}

		if attempt == p.MaxAttempts-1 {
			break
		}

		wait, rateLimited := Wait(lastErr)
		if !rateLimited {
			wait = p.delay(attempt)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// DoWithResult is Do for calls that return a value.
func DoWithResult[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var result T

	err := p.Do(ctx, func() error {
		r, err := fn()
		if err != nil {
			return err
		}

		result = r

		return nil
	})

	return result, err
}
