// Package budget implements the resource budget gate.
//
// A [Gate] accumulates a simulated consumable resource (a cooling-water
// proxy, in litres) from a sampled signal (a temperature, in °C) and
// enforces a hard ceiling. Each sample adds
//
//	max(0, reading - Baseline) * Rate
//
// to the ledger. Usage never decreases and the exceeded condition is
// terminal: a new run must build a new Gate.
//
// When the primary [SignalSource] is unavailable the gate reads the
// configured Fallback source, typically a [ConstantSignalSource]. There
// is no implicit default: with no fallback an unavailable signal is an
// error.
package budget

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/slizzai/slizzai/pkg/errors"
)

const (
	// DefaultBaseline is the reading below which no usage accrues, in °C.
	DefaultBaseline = 30.0

	// DefaultRate is the usage per degree above baseline, in L/°C.
	DefaultRate = 0.00005

	// DefaultFallbackCelsius is the reading used by the standard fallback.
	DefaultFallbackCelsius = 35.0
)

// Ledger is a snapshot of the gate's accumulated usage.
type Ledger struct {
	Used  float64 `json:"used" bson:"used"`
	Limit float64 `json:"limit" bson:"limit"`
}

// Exceeded reports whether usage has reached the limit.
func (l Ledger) Exceeded() bool { return l.Used >= l.Limit }

// Remaining returns the usage left before the limit, never negative.
func (l Ledger) Remaining() float64 { return math.Max(0, l.Limit-l.Used) }

// Options configures a [Gate].
type Options struct {
	Limit    float64      // required, > 0
	Baseline *float64     // DefaultBaseline when nil; an explicit 0 is kept
	Rate     *float64     // DefaultRate when nil; an explicit 0 is kept
	Source   SignalSource // UnavailableSource when nil
	Fallback SignalSource // nil means no fallback
}

// Float returns a pointer to v, for the optional fields of [Options].
func Float(v float64) *float64 { return &v }

// ValidateAndSetDefaults fills unset values and checks the ranges.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Limit <= 0 || math.IsNaN(o.Limit) || math.IsInf(o.Limit, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "water limit must be a positive number, got %g", o.Limit)
	}
	if o.Baseline == nil {
		o.Baseline = Float(DefaultBaseline)
	}
	if math.IsNaN(*o.Baseline) || math.IsInf(*o.Baseline, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "signal baseline must be finite, got %g", *o.Baseline)
	}
	if o.Rate == nil {
		o.Rate = Float(DefaultRate)
	}
	if !(*o.Rate >= 0) || math.IsInf(*o.Rate, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "signal rate must be >= 0, got %g", *o.Rate)
	}
	if o.Source == nil {
		o.Source = UnavailableSource{}
	}
	return nil
}

// Gate is safe for concurrent use.
type Gate struct {
	opts     Options
	baseline float64
	rate     float64

	mu   sync.Mutex
	used float64
}

// New creates a gate with zero usage.
func New(opts Options) (*Gate, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Gate{opts: opts, baseline: *opts.Baseline, rate: *opts.Rate}, nil
}

// Apply records one reading and returns the usage it added. Readings at
// or below the baseline add nothing, as does NaN.
func (g *Gate) Apply(reading float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.applyLocked(reading)
}

func (g *Gate) applyLocked(reading float64) float64 {
	delta := math.Max(0, reading-g.baseline) * g.rate
	if math.IsNaN(delta) || delta <= 0 {
		return 0
	}
	g.used += delta
	return delta
}

// Update samples the signal and records it. It returns the usage added.
func (g *Gate) Update(ctx context.Context) (float64, error) {
	reading, err := g.read(ctx)
	if err != nil {
		return 0, err
	}
	return g.Apply(reading), nil
}

// Check returns *ExceededError once usage has reached the limit.
func (g *Gate) Check() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkLocked()
}

func (g *Gate) checkLocked() error {
	if g.used >= g.opts.Limit {
		return &ExceededError{Used: g.used, Limit: g.opts.Limit}
	}
	return nil
}

// Admit reserves budget for one tile. Under a single lock it fails if the
// budget is already exceeded, and otherwise samples the signal and
// records the tile's usage, so no two callers can both pass on the same
// remaining budget. The charge that crosses the limit is admitted; the
// next call to Check or Admit reports the overrun.
func (g *Gate) Admit(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkLocked(); err != nil {
		return err
	}
	reading, err := g.read(ctx)
	if err != nil {
		return err
	}
	g.applyLocked(reading)
	return nil
}

// Ledger returns a snapshot of the current usage.
func (g *Gate) Ledger() Ledger {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Ledger{Used: g.used, Limit: g.opts.Limit}
}

// Options returns the gate's effective options.
func (g *Gate) Options() Options { return g.opts }

func (g *Gate) read(ctx context.Context) (float64, error) {
	reading, err := g.opts.Source.Read(ctx)
	if err == nil {
		return reading, nil
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if g.opts.Fallback == nil {
		return 0, errors.Wrap(errors.ErrCodeSignalUnavailable, err, "signal source has no reading and no fallback is configured")
	}
	reading, ferr := g.opts.Fallback.Read(ctx)
	if ferr != nil {
		return 0, errors.Wrap(errors.ErrCodeSignalUnavailable, ferr, "fallback signal source failed")
	}
	return reading, nil
}

// ExceededError reports that the ledger reached its limit.
type ExceededError struct {
	Used  float64
	Limit float64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: used %.6g of %.6g", e.Used, e.Limit)
}

// Code returns BUDGET_EXCEEDED.
func (e *ExceededError) Code() errors.Code { return errors.ErrCodeBudgetExceeded }
