// Package httputil provides the retry and status helpers shared by the
// tile pipeline's external calls.
//
// # Retry
//
// [Retry] runs an operation up to a fixed number of times with exponential
// backoff. Only errors wrapped in [RetryableError] are retried; anything
// else is returned immediately:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return callRenderer(ctx)
//	})
//
// [Do] adds a per-attempt deadline and an attempt callback on top of the
// same loop. It is what the pipeline uses for render and enhancement
// calls, where each attempt must carry its own timeout:
//
//	err := httputil.Do(ctx, httputil.Policy{Attempts: 3, Delay: time.Second, Timeout: 5 * time.Minute},
//	    func(ctx context.Context) error { return enhance(ctx) })
//
// An attempt that exceeds its deadline is treated as transient.
// When a failed attempt carries a RateLimitedError (pkg/errors) with a
// Retry-After, the next wait is at least that long.
//
// # Status codes
//
// [CheckStatus] classifies HTTP responses: 2xx succeeds, 5xx and 429 are
// retryable, everything else is a permanent failure.
//
// # Defaults
//
//   - Attempts: 3
//   - Initial delay: 1 second, doubling after each failure
//   - Per-attempt timeout: none unless set
package httputil
