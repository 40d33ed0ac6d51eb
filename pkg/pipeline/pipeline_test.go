package pipeline

import (
	"testing"
	"time"

	"github.com/slizzai/slizzai/pkg/budget"
	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/scheduler"
)

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{
		OutputDir: t.TempDir(),
		NumTiles:  3,
		Budget:    budget.Options{Limit: 1},
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}

	if opts.Modulus != scheduler.DefaultModulus {
		t.Errorf("Modulus = %d, want %d", opts.Modulus, scheduler.DefaultModulus)
	}
	if opts.Tolerance != DefaultTolerance {
		t.Errorf("Tolerance = %g, want %g", opts.Tolerance, DefaultTolerance)
	}
	if opts.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", opts.Workers, DefaultWorkers)
	}
	if opts.Retry.Attempts != DefaultRetryAttempts || opts.Retry.Delay != DefaultRetryDelay {
		t.Errorf("Retry = %+v, want %d attempts after %s", opts.Retry, DefaultRetryAttempts, DefaultRetryDelay)
	}
	if opts.CallTimeout != DefaultCallTimeout {
		t.Errorf("CallTimeout = %s, want %s", opts.CallTimeout, DefaultCallTimeout)
	}
	if opts.Logger == nil || opts.Hooks == nil {
		t.Error("Logger and Hooks should default to non-nil")
	}
	if opts.Budget.Baseline == nil || *opts.Budget.Baseline != budget.DefaultBaseline {
		t.Errorf("Budget.Baseline = %v, want %g", opts.Budget.Baseline, budget.DefaultBaseline)
	}
	// NumTiles and LoopDelay are used as given.
	if opts.NumTiles != 3 || opts.LoopDelay != 0 {
		t.Errorf("NumTiles=%d LoopDelay=%s, want 3 and 0", opts.NumTiles, opts.LoopDelay)
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{OutputDir: t.TempDir(), NumTiles: 1, Budget: budget.Options{Limit: 1}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if first.Modulus != opts.Modulus || first.Retry != opts.Retry || first.Tolerance != opts.Tolerance {
		t.Errorf("second call changed options: %+v -> %+v", first, opts)
	}
}

func TestValidateAndSetDefaultsRejects(t *testing.T) {
	dir := t.TempDir()
	valid := func() Options {
		return Options{OutputDir: dir, NumTiles: 2, Budget: budget.Options{Limit: 1}}
	}
	tests := []struct {
		name   string
		modify func(*Options)
		code   errors.Code
	}{
		{"empty output dir", func(o *Options) { o.OutputDir = "" }, errors.ErrCodeInvalidPath},
		{"negative tiles", func(o *Options) { o.NumTiles = -1 }, errors.ErrCodeInvalidConfig},
		{"start past end", func(o *Options) { o.StartTile = 3 }, errors.ErrCodeInvalidConfig},
		{"negative start", func(o *Options) { o.StartTile = -1 }, errors.ErrCodeInvalidConfig},
		{"negative delay", func(o *Options) { o.LoopDelay = -time.Second }, errors.ErrCodeInvalidConfig},
		{"modulus one", func(o *Options) { o.Modulus = 1 }, errors.ErrCodeInvalidConfig},
		{"modulus above 2^53", func(o *Options) { o.Modulus = scheduler.MaxModulus + 1 }, errors.ErrCodeInvalidConfig},
		{"negative tolerance", func(o *Options) { o.Tolerance = -1 }, errors.ErrCodeInvalidConfig},
		{"too many workers", func(o *Options) { o.Workers = MaxWorkers + 1 }, errors.ErrCodeInvalidConfig},
		{"negative workers", func(o *Options) { o.Workers = -2 }, errors.ErrCodeInvalidConfig},
		{"negative attempts", func(o *Options) { o.Retry.Attempts = -1 }, errors.ErrCodeInvalidConfig},
		{"negative call timeout", func(o *Options) { o.CallTimeout = -time.Second }, errors.ErrCodeInvalidConfig},
		{"no water limit", func(o *Options) { o.Budget.Limit = 0 }, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid()
			tt.modify(&opts)
			err := opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateIdle, StateRunning, true},
		{StateRunning, StateCompleted, true},
		{StateRunning, StateAborted, true},
		{StateIdle, StateCompleted, false},
		{StateIdle, StateAborted, false},
		{StateRunning, StateIdle, false},
		{StateRunning, StateRunning, false},
		{StateCompleted, StateRunning, false},
		{StateCompleted, StateAborted, false},
		{StateAborted, StateRunning, false},
		{StateAborted, StateCompleted, false},
	}
	for _, tt := range tests {
		err := transition(tt.from, tt.to)
		if (err == nil) != tt.ok {
			t.Errorf("transition(%s, %s) error = %v, want ok=%v", tt.from, tt.to, err, tt.ok)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidState) {
			t.Errorf("transition(%s, %s) code = %s", tt.from, tt.to, errors.GetCode(err))
		}
	}
}

func TestStateString(t *testing.T) {
	want := map[State]string{
		StateIdle:      "idle",
		StateRunning:   "running",
		StateCompleted: "completed",
		StateAborted:   "aborted",
		State(42):      "unknown",
	}
	for s, name := range want {
		if s.String() != name {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), name)
		}
	}
	if StateRunning.Terminal() || !StateAborted.Terminal() || !StateCompleted.Terminal() {
		t.Error("Terminal() should hold only for completed and aborted")
	}
}

func TestComputeStats(t *testing.T) {
	tiles := []TileOutput{{Duration: time.Second}, {Duration: 3 * time.Second}}
	s := computeStats(tiles, 2, 4*time.Second)
	if s.MeanTile != 2*time.Second {
		t.Errorf("MeanTile = %s, want 2s", s.MeanTile)
	}
	if s.TilesPerSecond != 0.5 {
		t.Errorf("TilesPerSecond = %g, want 0.5", s.TilesPerSecond)
	}
	if s.Retries != 2 {
		t.Errorf("Retries = %d, want 2", s.Retries)
	}

	empty := computeStats(nil, 0, time.Second)
	if empty.MeanTile != 0 || empty.TilesPerSecond != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestFileNames(t *testing.T) {
	if RawName(7) != "tile_007.png" || FinalName(123) != "final_123.png" {
		t.Errorf("names = %s, %s", RawName(7), FinalName(123))
	}
}
