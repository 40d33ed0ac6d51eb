package httputil

import (
	"context"
	"errors"
	"testing"
	"time"

	perrors "github.com/slizzai/slizzai/pkg/errors"
)

var errTransient = errors.New("transient")

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errTransient}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	perm := errors.New("bad request")
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return perm
	})
	if !errors.Is(err, perm) {
		t.Fatalf("Retry() error = %v, want %v", err, perm)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryExhaustedKeepsRetryableMarker(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: errTransient}
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !IsRetryable(err) || !errors.Is(err, errTransient) {
		t.Errorf("Retry() error = %v, want retryable transient", err)
	}
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), 0, time.Millisecond, func() error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return &RetryableError{Err: errTransient}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Retry() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoPerAttemptTimeoutIsRetryable(t *testing.T) {
	calls := 0
	var retried []int
	p := Policy{
		Attempts: 2,
		Delay:    time.Millisecond,
		Timeout:  10 * time.Millisecond,
		OnRetry:  func(attempt int, _ error) { retried = append(retried, attempt) },
	}
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		if _, ok := ctx.Deadline(); !ok {
			t.Error("attempt context has no deadline")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(retried) != 1 || retried[0] != 1 {
		t.Errorf("OnRetry attempts = %v, want [1]", retried)
	}
}

func TestDoTimeoutExhausted(t *testing.T) {
	err := Do(context.Background(), Policy{Attempts: 2, Delay: time.Millisecond, Timeout: 5 * time.Millisecond},
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	if !IsRetryable(err) {
		t.Fatalf("Do() error = %v, want retryable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, want DeadlineExceeded in chain", err)
	}
}

func TestBackoffHonoursRetryAfter(t *testing.T) {
	rateLimited := func(secs int) error {
		return &RetryableError{Err: &perrors.RateLimitedError{RetryAfter: secs}}
	}
	tests := []struct {
		name  string
		delay time.Duration
		err   error
		want  time.Duration
	}{
		{"plain transient", time.Second, errTransient, time.Second},
		{"retry-after longer", time.Second, rateLimited(7), 7 * time.Second},
		{"retry-after shorter", 10 * time.Second, rateLimited(2), 10 * time.Second},
		{"retry-after missing", 2 * time.Second, rateLimited(0), 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := backoff(tt.delay, tt.err); got != tt.want {
				t.Errorf("backoff() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDoWaitsForRetryAfter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	err := Do(ctx, Policy{Attempts: 3, Delay: time.Millisecond}, func(context.Context) error {
		calls++
		return &RetryableError{Err: &perrors.RateLimitedError{RetryAfter: 60}}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Do() error = %v, want the context to end during the Retry-After wait", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		code      int
		wantErr   bool
		retryable bool
	}{
		{200, false, false},
		{204, false, false},
		{400, true, false},
		{404, true, false},
		{429, true, true},
		{500, true, true},
		{503, true, true},
	}
	for _, tt := range tests {
		err := CheckStatus(tt.code)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckStatus(%d) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			continue
		}
		if IsRetryable(err) != tt.retryable {
			t.Errorf("CheckStatus(%d) retryable = %v, want %v", tt.code, IsRetryable(err), tt.retryable)
		}
		var se *StatusError
		if tt.wantErr && (!errors.As(err, &se) || se.StatusCode != tt.code) {
			t.Errorf("CheckStatus(%d) = %v, want *StatusError", tt.code, err)
		}
	}
}
