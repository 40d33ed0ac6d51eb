package cli

import (
	"bytes"
	"strings"
	"testing"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func TestFormatLitres(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "0.000000 L"},
		{0.00025, "0.000250 L"},
		{1234.5, "1,234.500000 L"},
	}
	for _, tt := range tests {
		if got := formatLitres(tt.v); got != tt.want {
			t.Errorf("formatLitres(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestPrintRunStats(t *testing.T) {
	buf := captureStdout(t)

	printRunStats(3, 24, 2, 1.5, 0)
	printRunStats(1200, 2000, 0, 0, 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	for _, want := range []string{"3/24 tiles", "1.50 tiles/s", "2 retries", "uncached"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
	for _, want := range []string{"1,200/2,000 tiles", "4 cached"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("line %q missing %q", lines[1], want)
		}
	}
	if strings.Contains(lines[1], "retries") {
		t.Errorf("zero retries should be omitted: %q", lines[1])
	}
}

func TestStatusLines(t *testing.T) {
	buf := captureStdout(t)

	printSuccess("Run %s completed", "abc")
	printError("Run %s aborted: %s", "abc", "BUDGET_EXCEEDED")
	printKeyValue("water", "0.000250 L")

	out := buf.String()
	for _, want := range []string{"✓ Run abc completed", "✗ Run abc aborted: BUDGET_EXCEEDED", "water", "0.000250 L"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
