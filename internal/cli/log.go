// Package cli implements the slizzai command-line interface.
//
// # Commands
//
// The main commands are:
//   - run: Execute a tile production run from a configuration file
//   - sampler: Serve the local super-sampling service
//   - runs: List and inspect persisted run records
//   - cache: Manage the enhancement result cache
//   - config: Validate a configuration file
//   - uv: Print the tile coordinate sequence
//   - completion: Shell completion scripts (cobra's built-in command)
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is created once and handed to the pipeline explicitly.
//
// # Exit Status
//
// [ExitCode] maps a command error onto the process exit status so scripts
// can tell configuration errors, service failures, interruption and other
// aborts apart.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// timeFormat renders log timestamps as "HH:MM:SS.cc".
const timeFormat = "15:04:05.00"

// newLogger creates the CLI logger. It writes to w and drops messages
// below level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Level:           level,
	})
}

// stopwatch logs how long a CLI operation took. Not safe for concurrent use.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
	now    func() time.Time
}

func newStopwatch(l *log.Logger) *stopwatch {
	return &stopwatch{logger: l, start: time.Now(), now: time.Now}
}

// elapsed returns the time since the stopwatch started, rounded to the
// millisecond.
func (s *stopwatch) elapsed() time.Duration {
	return s.now().Sub(s.start).Round(time.Millisecond)
}

// done logs msg at Info with an "elapsed" field and any extra key/value
// pairs.
func (s *stopwatch) done(msg string, keyvals ...any) {
	s.logger.Info(msg, append(keyvals, "elapsed", s.elapsed())...)
}
