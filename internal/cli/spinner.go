package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	spinnerOut    io.Writer = os.Stderr
	spinnerFrames           = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

const spinnerInterval = 80 * time.Millisecond

// spinner animates a one-line indicator until stop is called or its
// context ends. Only the animation goroutine writes to out.
type spinner struct {
	out   io.Writer
	label string
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func startSpinner(ctx context.Context, out io.Writer, label string) *spinner {
	s := &spinner{
		out:   out,
		label: label,
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go s.loop(ctx)
	return s
}

func (s *spinner) loop(ctx context.Context) {
	defer close(s.done)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-tick.C:
			fmt.Fprintf(s.out, "\r%s %s", styleSpinner.Render(spinnerFrames[frame%len(spinnerFrames)]), StyleDim.Render(s.label))
			continue
		case <-ctx.Done():
		case <-s.quit:
		}
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.label)+4))
		return
	}
}

// stop ends the animation and clears the line. It may be called more than once.
func (s *spinner) stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}

// withSpinner runs fn behind a spinner and prints ok or failed when it returns.
func withSpinner(ctx context.Context, label, ok, failed string, fn func(context.Context) error) error {
	s := startSpinner(ctx, spinnerOut, label)
	err := fn(ctx)
	s.stop()
	if err != nil {
		printError("%s", failed)
		return err
	}
	printSuccess("%s", ok)
	return nil
}
