package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSpinnerDrawsAndClears(t *testing.T) {
	var buf bytes.Buffer
	s := startSpinner(context.Background(), &buf, "Drawing timeline...")
	time.Sleep(3 * spinnerInterval)
	s.stop()

	out := buf.String()
	if !strings.Contains(out, "Drawing timeline...") {
		t.Errorf("spinner output %q does not contain the label", out)
	}
	clear := "\r" + strings.Repeat(" ", len("Drawing timeline...")+4) + "\r"
	if !strings.HasSuffix(out, clear) {
		t.Errorf("spinner did not clear its line: %q", out[max(0, len(out)-40):])
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := startSpinner(context.Background(), &bytes.Buffer{}, "x")
	s.stop()
	s.stop()
}

func TestSpinnerEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := startSpinner(ctx, &bytes.Buffer{}, "x")
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after its context ended")
	}
	s.stop()
}

func TestWithSpinner(t *testing.T) {
	prev := spinnerOut
	spinnerOut = &bytes.Buffer{}
	t.Cleanup(func() { spinnerOut = prev })

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "Timeline written"},
		{"failure", errors.New("dot: syntax error"), "Drawing failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureStdout(t)
			err := withSpinner(context.Background(), "Drawing timeline...", "Timeline written", "Drawing failed",
				func(context.Context) error { return tt.err })
			if !errors.Is(err, tt.err) {
				t.Errorf("withSpinner() error = %v, want %v", err, tt.err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}
