package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "new",
			err:  New(ErrCodeInvalidConfig, "fib_modulus must be >= %d, got %d", 2, 1),
			want: "INVALID_CONFIG: fib_modulus must be >= 2, got 1",
		},
		{
			name: "wrapped",
			err:  Wrap(ErrCodeNetwork, errors.New("connection refused"), "POST %s", "http://sampler/supersample"),
			want: "NETWORK_ERROR: POST http://sampler/supersample: connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeInternal, cause, "write tile_003.png")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

type codedErr struct{ code Code }

func (e codedErr) Error() string { return string(e.code) }
func (e codedErr) Code() Code    { return e.code }

func TestIs(t *testing.T) {
	abort := fmt.Errorf("run aborted: %w", Wrap(ErrCodeTransientService, codedErr{ErrCodeTimeout}, "enhance failed after retries"))

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"direct", New(ErrCodeBudgetExceeded, "used 0.0003 of 0.0002"), ErrCodeBudgetExceeded, true},
		{"other code", New(ErrCodeBudgetExceeded, "x"), ErrCodeInterrupted, false},
		{"outer layer", abort, ErrCodeTransientService, true},
		{"inner coder", abort, ErrCodeTimeout, true},
		{"unrelated", abort, ErrCodeCodecOverflow, false},
		{"plain error", errors.New("plain"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"error", New(ErrCodeSignalUnavailable, "no thermal zones"), ErrCodeSignalUnavailable},
		{"outermost wins", Wrap(ErrCodeTransientService, New(ErrCodeNetwork, "reset"), "render"), ErrCodeTransientService},
		{"coder", codedErr{ErrCodeCodecIntegrity}, ErrCodeCodecIntegrity},
		{"behind fmt wrap", fmt.Errorf("tile 4: %w", codedErr{ErrCodeCodecOverflow}), ErrCodeCodecOverflow},
		{"rate limited", &RateLimitedError{RetryAfter: 3}, ErrCodeRateLimited},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(ErrCodeInvalidConfig, "water_limit is required"), "water_limit is required"},
		{fmt.Errorf("load: %w", New(ErrCodeInvalidPath, "output directory cannot be empty")), "output directory cannot be empty"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRateLimitedError(t *testing.T) {
	if got := (&RateLimitedError{RetryAfter: 30}).Error(); got != "rate limited: retry after 30 seconds" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&RateLimitedError{}).Error(); got != "rate limited" {
		t.Errorf("Error() = %q", got)
	}
}
