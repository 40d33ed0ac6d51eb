package pipeline

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/slizzai/slizzai/pkg/budget"
	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/observability"
	"github.com/slizzai/slizzai/pkg/scheduler"
)

// Orchestrator drives one run. Its query methods are safe for concurrent
// use; Begin, Tick and Run must be called from a single goroutine.
type Orchestrator struct {
	opts   Options
	collab Collaborators
	gen    *scheduler.Generator
	gate   *budget.Gate
	log    *log.Logger
	hooks  observability.PipelineHooks

	mu       sync.Mutex
	state    State
	coords   []scheduler.UV
	next     int
	outputs  []*TileOutput // indexed by tile, nil until completed
	retries  int
	started  time.Time
	finished time.Time
	abort    *AbortError
}

// New validates opts and builds an idle orchestrator with a fresh
// generator and gate.
func New(opts Options, collab Collaborators) (*Orchestrator, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := collab.validate(); err != nil {
		return nil, err
	}
	gen, err := scheduler.New(opts.Modulus)
	if err != nil {
		return nil, err
	}
	gate, err := budget.New(opts.Budget)
	if err != nil {
		return nil, err
	}
	if opts.RunID == "" {
		opts.RunID = uuid.Must(uuid.NewV7()).String()
	}
	return &Orchestrator{
		opts:   opts,
		collab: collab,
		gen:    gen,
		gate:   gate,
		log:    opts.Logger.With("run", opts.RunID),
		hooks:  opts.Hooks,
	}, nil
}

// RunID returns the run's identifier.
func (o *Orchestrator) RunID() string { return o.opts.RunID }

// Options returns the validated options.
func (o *Orchestrator) Options() Options { return o.opts }

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Ledger returns the gate's current usage.
func (o *Orchestrator) Ledger() budget.Ledger { return o.gate.Ledger() }

// Begin moves the run to Running: it creates the output directory and
// assigns every tile its coordinate.
func (o *Orchestrator) Begin(ctx context.Context) error {
	o.mu.Lock()
	if err := transition(o.state, StateRunning); err != nil {
		o.mu.Unlock()
		return err
	}
	if err := os.MkdirAll(o.opts.OutputDir, 0o755); err != nil {
		o.mu.Unlock()
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory %s", o.opts.OutputDir)
	}
	o.coords = o.gen.Assign(o.opts.NumTiles)
	o.outputs = make([]*TileOutput, o.opts.NumTiles)
	o.next = o.opts.StartTile
	o.started = time.Now()
	o.state = StateRunning
	o.mu.Unlock()

	o.log.Info("run started",
		"tiles", o.opts.NumTiles,
		"start", o.opts.StartTile,
		"workers", o.opts.Workers,
		"limit", o.opts.Budget.Limit)
	o.hooks.OnRunStart(ctx, o.opts.RunID, o.opts.NumTiles)
	return nil
}

// Tick processes exactly one tile and reports whether the run is over.
// When it returns done, err is the run's terminal error (nil for
// Completed). Ticking a finished run returns the same result again.
func (o *Orchestrator) Tick(ctx context.Context) (done bool, err error) {
	o.mu.Lock()
	switch o.state {
	case StateIdle:
		o.mu.Unlock()
		return false, errors.New(errors.ErrCodeInvalidState, "tick before begin")
	case StateCompleted, StateAborted:
		err := o.terminalErrLocked()
		o.mu.Unlock()
		return true, err
	}
	if o.next >= len(o.coords) {
		o.mu.Unlock()
		return true, o.finish(ctx, nil)
	}
	if ctx.Err() != nil {
		o.mu.Unlock()
		return true, o.finish(ctx, errors.Wrap(errors.ErrCodeInterrupted, ctx.Err(), "run interrupted"))
	}
	idx := o.next
	o.next++
	o.mu.Unlock()

	if err := o.completeTile(ctx, idx); err != nil {
		return true, o.finish(ctx, err)
	}

	o.mu.Lock()
	last := o.next >= len(o.coords)
	o.mu.Unlock()
	if last {
		return true, o.finish(ctx, nil)
	}
	return false, nil
}

// Run executes the remaining tiles and returns the final report. It
// begins the run first if needed. The error is the report's Err: nil
// when the run completed, an *AbortError otherwise.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	if o.State() == StateIdle {
		if err := o.Begin(ctx); err != nil {
			return nil, err
		}
	}

	var err error
	if o.opts.Workers > 1 {
		err = o.finish(ctx, o.runPool(ctx))
	} else {
		err = o.runSequential(ctx)
	}
	r := o.Report()
	return &r, err
}

func (o *Orchestrator) runSequential(ctx context.Context) error {
	for {
		done, err := o.Tick(ctx)
		if done {
			return err
		}
		// A cancelled wait is picked up by the next Tick.
		_ = sleep(ctx, o.opts.LoopDelay)
	}
}

// runPool dispatches tiles to at most Workers goroutines. Dispatch stops
// at the first failure, a refused gate check or cancellation; tiles
// already in flight run to completion. It returns the first failure.
func (o *Orchestrator) runPool(ctx context.Context) error {
	var (
		g       errgroup.Group
		failMu  sync.Mutex
		failure error
	)
	fail := func(err error) {
		failMu.Lock()
		if failure == nil {
			failure = err
		}
		failMu.Unlock()
	}
	failed := func() bool {
		failMu.Lock()
		defer failMu.Unlock()
		return failure != nil
	}
	g.SetLimit(o.opts.Workers)

	o.mu.Lock()
	start, end := o.next, len(o.coords)
	o.next = end
	o.mu.Unlock()

	for idx := start; idx < end; idx++ {
		if idx > start {
			_ = sleep(ctx, o.opts.LoopDelay)
		}
		if ctx.Err() != nil {
			fail(errors.Wrap(errors.ErrCodeInterrupted, ctx.Err(), "run interrupted"))
			break
		}
		if failed() {
			break
		}
		if err := o.gate.Check(); err != nil {
			fail(err)
			break
		}
		g.Go(func() error {
			if err := o.completeTile(ctx, idx); err != nil {
				fail(err)
			}
			return nil
		})
	}
	_ = g.Wait()

	failMu.Lock()
	defer failMu.Unlock()
	return failure
}

// completeTile produces one tile, records it and checks the gate.
func (o *Orchestrator) completeTile(ctx context.Context, idx int) error {
	out, err := o.processTile(ctx, idx)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.outputs[idx] = out
	o.mu.Unlock()
	return o.gate.Check()
}

// finish moves a running run to its terminal state. A nil cause completes
// the run; anything else aborts it.
func (o *Orchestrator) finish(ctx context.Context, cause error) error {
	o.mu.Lock()
	if o.state.Terminal() {
		err := o.terminalErrLocked()
		o.mu.Unlock()
		return err
	}
	to := StateCompleted
	if cause != nil {
		to = StateAborted
	}
	if err := transition(o.state, to); err != nil {
		o.mu.Unlock()
		return err
	}
	o.state = to
	o.finished = time.Now()
	completed := o.completedLocked()
	if cause != nil {
		o.abort = &AbortError{
			Reason:    reason(cause),
			LastTile:  o.lastTileLocked(),
			Completed: completed,
			Ledger:    o.gate.Ledger(),
			Err:       cause,
		}
	}
	err := o.terminalErrLocked()
	elapsed := o.finished.Sub(o.started)
	o.mu.Unlock()

	switch {
	case err == nil:
		o.log.Info("run completed", "tiles", completed, "duration", elapsed)
	case o.abort.Reason == errors.ErrCodeInterrupted:
		o.log.Warn("run interrupted", "completed", completed, "last_tile", o.abort.LastTile)
	default:
		o.log.Error("run aborted",
			"code", o.abort.Reason,
			"completed", completed,
			"last_tile", o.abort.LastTile,
			"used", o.abort.Ledger.Used,
			"limit", o.abort.Ledger.Limit,
			"err", cause)
	}
	o.hooks.OnRunComplete(ctx, o.opts.RunID, to.String(), completed, elapsed, err)
	return err
}

// Report returns a snapshot of the run. It can be called at any time;
// Stats.Duration runs up to now until the run finishes.
func (o *Orchestrator) Report() Report {
	o.mu.Lock()
	defer o.mu.Unlock()

	var tiles []TileOutput
	for _, t := range o.outputs {
		if t != nil {
			tiles = append(tiles, *t)
		}
	}
	r := Report{
		RunID:      o.opts.RunID,
		State:      o.state,
		NumTiles:   o.opts.NumTiles,
		Modulus:    o.opts.Modulus,
		OutputDir:  o.opts.OutputDir,
		Tiles:      tiles,
		Completed:  len(tiles),
		LastTile:   o.lastTileLocked(),
		Ledger:     o.gate.Ledger(),
		StartedAt:  o.started,
		FinishedAt: o.finished,
	}
	if o.abort != nil {
		r.AbortCode = o.abort.Reason
		r.Err = o.abort
	}

	var elapsed time.Duration
	if !o.started.IsZero() {
		end := o.finished
		if end.IsZero() {
			end = time.Now()
		}
		elapsed = end.Sub(o.started)
	}
	r.Stats = computeStats(tiles, o.retries, elapsed)
	return r
}

func (o *Orchestrator) terminalErrLocked() error {
	if o.abort == nil {
		return nil
	}
	return o.abort
}

func (o *Orchestrator) completedLocked() int {
	n := 0
	for _, t := range o.outputs {
		if t != nil {
			n++
		}
	}
	return n
}

// lastTileLocked returns the end of the contiguous run of completed tiles
// starting at StartTile. Tiles before StartTile count as done.
func (o *Orchestrator) lastTileLocked() int {
	last := o.opts.StartTile - 1
	for i := o.opts.StartTile; i < len(o.outputs) && o.outputs[i] != nil; i++ {
		last = i
	}
	return last
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
