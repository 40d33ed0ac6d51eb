// Package pipeline runs tile production jobs.
//
// An [Orchestrator] composes the coordinate generator, the payload codec
// and the resource budget gate with three external collaborators (a
// geometry source, a render source and an enhancement service) into one
// bounded production loop. Each tile goes through the same steps in the
// same order:
//
//  1. take the tile's coordinate (all coordinates are assigned up front)
//  2. fetch the tile's payload from the [GeometrySource]
//  3. round-trip the payload through the codec and check its fidelity
//  4. reserve budget for the tile on the gate
//  5. render the tile, then enhance it, each with a per-attempt timeout
//     and bounded retry
//  6. write tile_NNN.png and final_NNN.png to the output directory
//  7. check the gate
//
// with a pacing delay between tiles.
//
// # States
//
// A run moves Idle → Running → Completed or Aborted. Integrity failures,
// budget exhaustion, unrecoverable service failures and cancellation all
// abort the run. Tiles completed before the abort stay on disk, and the
// returned [AbortError] reports the last completed tile and the ledger so
// the run can be audited or resumed with Options.StartTile.
//
// # Driving a run
//
// [Orchestrator.Run] executes the whole job. Hosts that own their own loop
// (a game engine tick, a UI event loop) call [Orchestrator.Begin] once and
// then [Orchestrator.Tick] repeatedly; each Tick processes exactly one tile:
//
//	orch, err := pipeline.New(opts, pipeline.Collaborators{
//	    Geometry: geometry.Uniform{Seed: 1},
//	    Render:   render.Procedural{},
//	    Enhance:  client,
//	})
//	report, err := orch.Run(ctx)
//
// With Options.Workers > 1, Run processes tiles on a bounded worker pool.
// Coordinates are still assigned before dispatch and the gate serializes
// budget reservations, so the coordinate of every tile index and the
// budget guarantee are the same as in sequential mode.
package pipeline

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/slizzai/slizzai/pkg/budget"
	"github.com/slizzai/slizzai/pkg/codec"
	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/httputil"
	"github.com/slizzai/slizzai/pkg/observability"
	"github.com/slizzai/slizzai/pkg/scheduler"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultNumTiles is the number of tiles per run.
	DefaultNumTiles = 24

	// DefaultLoopDelay is the pacing delay between tiles.
	DefaultLoopDelay = 100 * time.Millisecond

	// DefaultTolerance is the codec round-trip tolerance.
	DefaultTolerance = codec.DefaultTolerance

	// DefaultWorkers processes tiles sequentially.
	DefaultWorkers = 1

	// DefaultRetryAttempts is the number of attempts per external call.
	DefaultRetryAttempts = 3

	// DefaultRetryDelay is the wait before the first retry.
	DefaultRetryDelay = time.Second

	// DefaultCallTimeout bounds one attempt of an external call.
	DefaultCallTimeout = 300 * time.Second

	// MaxWorkers bounds the worker pool.
	MaxWorkers = 64
)

// =============================================================================
// Collaborators
// =============================================================================

// GeometrySource produces the payload of a tile.
type GeometrySource interface {
	Delta(ctx context.Context, index int, uv scheduler.UV) ([]float64, error)
}

// RenderSource renders the raw image of a tile.
type RenderSource interface {
	RenderTile(ctx context.Context, uv scheduler.UV) ([]byte, error)
}

// EnhancementService produces the enhanced version of a raw tile.
// Errors wrapped in *httputil.RetryableError are retried.
type EnhancementService interface {
	Enhance(ctx context.Context, image []byte) ([]byte, error)
}

// Collaborators are the external systems a run drives.
type Collaborators struct {
	Geometry GeometrySource
	Render   RenderSource
	Enhance  EnhancementService
}

func (c Collaborators) validate() error {
	switch {
	case c.Geometry == nil:
		return errors.New(errors.ErrCodeInvalidConfig, "no geometry source")
	case c.Render == nil:
		return errors.New(errors.ErrCodeInvalidConfig, "no render source")
	case c.Enhance == nil:
		return errors.New(errors.ErrCodeInvalidConfig, "no enhancement service")
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// RetryOptions bounds retries of render and enhancement calls.
type RetryOptions struct {
	Attempts int           `json:"attempts"`
	Delay    time.Duration `json:"delay"`
}

// Options configures one run.
//
// NumTiles and LoopDelay are used as given, including zero; the config
// layer supplies DefaultNumTiles and DefaultLoopDelay when they are unset.
// Other zero values are replaced by their defaults.
type Options struct {
	OutputDir string        `json:"output_dir"`
	NumTiles  int           `json:"num_tiles"`
	Modulus   uint64        `json:"fib_modulus,omitempty"`
	LoopDelay time.Duration `json:"loop_delay"`
	Tolerance float64       `json:"tolerance,omitempty"`
	Workers   int           `json:"workers,omitempty"`

	// StartTile skips tiles below this index, for resuming a run.
	// Coordinates are still assigned from the seed so every index keeps
	// its coordinate.
	StartTile int `json:"start_tile,omitempty"`

	Retry       RetryOptions  `json:"retry"`
	CallTimeout time.Duration `json:"call_timeout,omitempty"`

	// Budget configures the run's gate. A fresh gate is built per run.
	Budget budget.Options `json:"-"`

	// Runtime options (not serialized)
	RunID  string                      `json:"-"` // generated when empty
	Logger *log.Logger                 `json:"-"`
	Hooks  observability.PipelineHooks `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateOutputDir(o.OutputDir); err != nil {
		return err
	}
	if o.NumTiles < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "num_tiles must be >= 0, got %d", o.NumTiles)
	}
	if o.StartTile < 0 || o.StartTile > o.NumTiles {
		return errors.New(errors.ErrCodeInvalidConfig, "start tile %d outside [0, %d]", o.StartTile, o.NumTiles)
	}
	if o.LoopDelay < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "loop_delay must be >= 0, got %s", o.LoopDelay)
	}

	if o.Modulus == 0 {
		o.Modulus = scheduler.DefaultModulus
	}
	if o.Modulus < scheduler.MinModulus || o.Modulus > scheduler.MaxModulus {
		return errors.New(errors.ErrCodeInvalidConfig, "fib_modulus must be in [%d, %d], got %d", scheduler.MinModulus, scheduler.MaxModulus, o.Modulus)
	}

	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Tolerance < 0 || math.IsNaN(o.Tolerance) {
		return errors.New(errors.ErrCodeInvalidConfig, "tolerance must be > 0, got %g", o.Tolerance)
	}

	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers < 1 || o.Workers > MaxWorkers {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be in [1, %d], got %d", MaxWorkers, o.Workers)
	}

	if o.Retry.Attempts == 0 {
		o.Retry.Attempts = DefaultRetryAttempts
	}
	if o.Retry.Attempts < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "retry attempts must be >= 1, got %d", o.Retry.Attempts)
	}
	if o.Retry.Delay == 0 {
		o.Retry.Delay = DefaultRetryDelay
	}
	if o.Retry.Delay < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "retry delay must be >= 0, got %s", o.Retry.Delay)
	}
	if o.CallTimeout == 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.CallTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "call timeout must be > 0, got %s", o.CallTimeout)
	}

	if err := o.Budget.ValidateAndSetDefaults(); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Hooks == nil {
		o.Hooks = observability.NoopPipelineHooks{}
	}
	o.validated = true
	return nil
}

func (o *Options) retryPolicy() httputil.Policy {
	return httputil.Policy{
		Attempts: o.Retry.Attempts,
		Delay:    o.Retry.Delay,
		Timeout:  o.CallTimeout,
	}
}
