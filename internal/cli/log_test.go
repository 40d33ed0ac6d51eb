package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		emit    func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("tile complete") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("budget charged") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("budget charged") }, true},
		{"warn at info", log.InfoLevel, func(l *log.Logger) { l.Warn("retrying") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v (output %q)", got, tt.wantLog, buf.String())
			}
		})
	}
}

func TestNewLoggerKeyValues(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("tile complete", "tile", 7, "u", 0.13)

	out := buf.String()
	for _, want := range []string{"tile complete", "tile=7", "u=0.13"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestStopwatchDone(t *testing.T) {
	var buf bytes.Buffer
	sw := newStopwatch(newLogger(&buf, log.InfoLevel))
	sw.now = func() time.Time { return sw.start.Add(1234567 * time.Microsecond) }

	if got := sw.elapsed(); got != 1235*time.Millisecond {
		t.Errorf("elapsed() = %v, want 1.235s", got)
	}

	sw.done("cache cleared", "entries", 3)
	out := buf.String()
	for _, want := range []string{"cache cleared", "entries=3", "elapsed=1.235s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
