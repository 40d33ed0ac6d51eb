package httputil

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/slizzai/slizzai/pkg/errors"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network errors, timeouts, 5xx responses) with
// this type so that [Retry] and [Do] attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Policy bounds a retried operation.
type Policy struct {
	Attempts int           // total attempts, at least 1
	Delay    time.Duration // wait before the second attempt; doubles after each failure
	Timeout  time.Duration // per-attempt deadline; zero means none

	// OnRetry, if set, is called before each wait with the number of the
	// attempt that just failed (starting at 1) and its error.
	OnRetry func(attempt int, err error)
}

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Do(ctx, Policy{Attempts: attempts, Delay: delay}, func(context.Context) error {
		return fn()
	})
}

// Do runs fn under p. Each attempt gets its own context, bounded by
// p.Timeout when set; an attempt that hits that deadline is retryable.
// When the parent context ends, Do returns ctx.Err() without further
// attempts. If every attempt fails the last error is returned, still
// wrapped in [RetryableError], so callers can tell exhaustion apart from
// a permanent failure with [IsRetryable].
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := range attempts {
		err := attempt(ctx, p.Timeout, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			if p.OnRetry != nil {
				p.OnRetry(i+1, err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(delay, err)):
				delay *= 2
			}
		}
	}
	return lastErr
}

// backoff returns the wait before the next attempt: delay, or the
// server's Retry-After when err carries a longer one.
func backoff(delay time.Duration, err error) time.Duration {
	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) && rl.RetryAfter > 0 {
		return max(delay, time.Duration(rl.RetryAfter)*time.Second)
	}
	return delay
}

func attempt(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(actx)
	if err != nil && ctx.Err() == nil && actx.Err() == context.DeadlineExceeded && !isRetryable(err) {
		err = &RetryableError{Err: fmt.Errorf("attempt timed out after %s: %w", timeout, err)}
	}
	return err
}

// IsRetryable reports whether err is marked as transient.
func IsRetryable(err error) bool {
	return isRetryable(err)
}

func isRetryable(err error) bool {
	return stderrors.As(err, new(*RetryableError))
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// CheckStatus maps an HTTP status code onto the retry policy: 2xx is
// success, 5xx and 429 are retryable, anything else is permanent.
func CheckStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500, code == http.StatusTooManyRequests:
		return &RetryableError{Err: &StatusError{StatusCode: code}}
	default:
		return &StatusError{StatusCode: code}
	}
}
