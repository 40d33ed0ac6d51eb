package budget

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slizzai/slizzai/pkg/errors"
)

func newGate(t *testing.T, opts Options) *Gate {
	t.Helper()
	g, err := New(opts)
	require.NoError(t, err)
	return g
}

func TestNewRequiresPositiveLimit(t *testing.T) {
	for _, limit := range []float64{0, -1} {
		_, err := New(Options{Limit: limit})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Limit: 1}
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, DefaultBaseline, *opts.Baseline)
	assert.Equal(t, DefaultRate, *opts.Rate)
	assert.IsType(t, UnavailableSource{}, opts.Source)
	assert.Nil(t, opts.Fallback)

	again := opts
	require.NoError(t, again.ValidateAndSetDefaults())
	assert.Equal(t, opts, again)
}

func TestUpdateScenario(t *testing.T) {
	g := newGate(t, Options{
		Limit:    0.001,
		Baseline: Float(30),
		Rate:     Float(0.00005),
		Source:   ConstantSignalSource{Celsius: 35},
	})
	ctx := context.Background()

	delta, err := g.Update(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.00025, delta, 1e-12)
	assert.InDelta(t, 0.00025, g.Ledger().Used, 1e-12)
	require.NoError(t, g.Check())

	_, err = g.Update(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.0005, g.Ledger().Used, 1e-12)
	require.NoError(t, g.Check())

	calls := 2
	for g.Check() == nil {
		_, err := g.Update(ctx)
		require.NoError(t, err)
		calls++
		require.Less(t, calls, 10, "limit never reached")
	}
	assert.GreaterOrEqual(t, g.Ledger().Used, 0.001)

	var ee *ExceededError
	require.ErrorAs(t, g.Check(), &ee)
	assert.Equal(t, 0.001, ee.Limit)
	assert.True(t, errors.Is(g.Check(), errors.ErrCodeBudgetExceeded))
}

func TestExplicitZeroOptionsAreKept(t *testing.T) {
	g := newGate(t, Options{
		Limit:    1,
		Baseline: Float(0),
		Source:   ConstantSignalSource{Celsius: 10},
	})
	assert.Equal(t, 0.0, *g.Options().Baseline)
	assert.InDelta(t, 10*DefaultRate, g.Apply(10), 1e-12, "baseline 0 charges every degree")

	free := newGate(t, Options{Limit: 1, Rate: Float(0)})
	assert.Equal(t, 0.0, free.Apply(90), "rate 0 never charges")
	assert.Zero(t, free.Ledger().Used)
}

func TestOptionsRejectBadSignalParameters(t *testing.T) {
	for name, opts := range map[string]Options{
		"negative rate": {Limit: 1, Rate: Float(-1)},
		"NaN rate":      {Limit: 1, Rate: Float(math.NaN())},
		"NaN baseline":  {Limit: 1, Baseline: Float(math.NaN())},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(opts)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "err = %v", err)
		})
	}
}

func TestCheckIsSticky(t *testing.T) {
	g := newGate(t, Options{Limit: 0.0001})
	g.Apply(100)
	require.Error(t, g.Check())
	require.Error(t, g.Check())

	// cold readings never bring usage back down
	g.Apply(-40)
	require.Error(t, g.Check())
}

func TestApplyIsMonotonic(t *testing.T) {
	g := newGate(t, Options{Limit: 100})
	prev := g.Ledger().Used
	for _, reading := range []float64{0, 10, 29.9, 30, 30.1, 45, 80, 12} {
		added := g.Apply(reading)
		assert.GreaterOrEqual(t, added, 0.0)
		used := g.Ledger().Used
		assert.GreaterOrEqual(t, used, prev, "reading %g", reading)
		prev = used
	}
}

func TestApplyIgnoresReadingsAtOrBelowBaseline(t *testing.T) {
	g := newGate(t, Options{Limit: 1})
	assert.Zero(t, g.Apply(30))
	assert.Zero(t, g.Apply(-5))
	assert.Zero(t, g.Ledger().Used)
}

func TestFallbackUsedWhenSourceUnavailable(t *testing.T) {
	g := newGate(t, Options{
		Limit:    1,
		Source:   UnavailableSource{},
		Fallback: ConstantSignalSource{Celsius: DefaultFallbackCelsius},
	})
	delta, err := g.Update(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.00025, delta, 1e-12)
}

func TestUnavailableWithoutFallback(t *testing.T) {
	g := newGate(t, Options{Limit: 1, Source: UnavailableSource{}})

	_, err := g.Update(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSignalUnavailable))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, g.Ledger().Used)

	err = g.Admit(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeSignalUnavailable))
	assert.Zero(t, g.Ledger().Used)
}

func TestAdmitChargesThenRefuses(t *testing.T) {
	// one 35°C sample costs 0.00025, so the first admit crosses the limit
	g := newGate(t, Options{Limit: 0.0002, Source: ConstantSignalSource{Celsius: 35}})
	ctx := context.Background()

	require.NoError(t, g.Admit(ctx))
	err := g.Admit(ctx)
	var ee *ExceededError
	require.ErrorAs(t, err, &ee)
	assert.InDelta(t, 0.00025, ee.Used, 1e-12)
	assert.InDelta(t, 0.00025, g.Ledger().Used, 1e-12, "refused admit must not charge")
}

func TestAdmitSerializesWorkers(t *testing.T) {
	// room for exactly four 0.00025 charges before the limit
	g := newGate(t, Options{Limit: 0.00099, Source: ConstantSignalSource{Celsius: 35}})
	ctx := context.Background()

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Admit(ctx) == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 4, admitted.Load())
	assert.InDelta(t, 0.001, g.Ledger().Used, 1e-12)
}

func TestThermalZoneSource(t *testing.T) {
	root := t.TempDir()
	writeZone := func(name, content string) {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "temp"), []byte(content), 0o644))
	}

	_, err := ThermalZoneSource{Root: root}.Read(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	writeZone("thermal_zone0", "41500\n")
	writeZone("thermal_zone1", "57250\n")
	writeZone("thermal_zone2", "garbage\n")

	c, err := ThermalZoneSource{Root: root}.Read(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 57.25, c, 1e-9)
}

func TestLedgerHelpers(t *testing.T) {
	l := Ledger{Used: 0.4, Limit: 1}
	assert.False(t, l.Exceeded())
	assert.InDelta(t, 0.6, l.Remaining(), 1e-12)

	l.Used = 1.5
	assert.True(t, l.Exceeded())
	assert.Zero(t, l.Remaining())
}
