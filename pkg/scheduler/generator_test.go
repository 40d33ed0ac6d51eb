package scheduler

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slizzai/slizzai/pkg/errors"
)

func TestNewRejectsSmallModulus(t *testing.T) {
	for _, m := range []uint64{0, 1} {
		_, err := New(m)
		require.Error(t, err, "modulus %d", m)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
	}

	g, err := New(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), g.Modulus())
	assert.Equal(t, State{Prev: 0, Cur: 1}, g.State())
}

func TestNewRejectsModulusAboveFloatPrecision(t *testing.T) {
	for _, m := range []uint64{MaxModulus + 1, 23416728348467688, 1 << 63, math.MaxUint64 - 1000} {
		_, err := New(m)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "modulus %d: err = %v", m, err)
	}
}

func TestLargestModulusStaysInUnitSquare(t *testing.T) {
	g, err := New(MaxModulus)
	require.NoError(t, err)

	m := MaxModulus
	g.state = State{Prev: m - 2, Cur: m - 1}
	bm := new(big.Int).SetUint64(m)
	prev, cur := new(big.Int).SetUint64(m-2), new(big.Int).SetUint64(m-1)

	for i := range 2000 {
		uv := g.Next()
		require.True(t, uv.U >= 0 && uv.U < 1 && uv.V >= 0 && uv.V < 1, "call %d: %s", i, uv)

		next := new(big.Int).Add(prev, cur)
		prev, cur = cur, next.Mod(next, bm)
		require.Equal(t, cur.Uint64(), g.State().Cur, "call %d", i)
	}
}

func TestNextModulus100(t *testing.T) {
	g, err := New(100)
	require.NoError(t, err)

	want := []UV{
		{0.01, 0.01},
		{0.01, 0.02},
		{0.02, 0.03},
		{0.03, 0.05},
		{0.05, 0.08},
	}
	for i, w := range want {
		got := g.Next()
		assert.Equal(t, w, got, "call %d", i+1)
	}
	assert.Equal(t, uint64(5), g.Calls())
	assert.Equal(t, State{Prev: 5, Cur: 8}, g.State())
}

func TestResetReproducesSequence(t *testing.T) {
	for _, m := range []uint64{2, 3, 10, 97, 100, DefaultModulus} {
		t.Run(fmt.Sprint(m), func(t *testing.T) {
			g, err := New(m)
			require.NoError(t, err)

			for _, n := range []int{0, 1, 7, 250} {
				g.Reset()
				first := g.Assign(n)
				g.Reset()
				g.Reset() // idempotent
				second := g.Assign(n)
				assert.Equal(t, first, second, "n=%d", n)
			}
		})
	}
}

func TestCoordinatesInUnitSquare(t *testing.T) {
	for _, m := range []uint64{2, 5, 13, 1000, DefaultModulus} {
		g, err := New(m)
		require.NoError(t, err)
		for i := 0; i < 2000; i++ {
			c := g.Next()
			if c.U < 0 || c.U >= 1 || c.V < 0 || c.V >= 1 {
				t.Fatalf("modulus %d call %d: coordinate %v outside [0,1)", m, i, c)
			}
		}
	}
}

func TestStateStaysBelowModulus(t *testing.T) {
	g, err := New(7)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		g.Next()
		s := g.State()
		require.Less(t, s.Prev, uint64(7))
		require.Less(t, s.Cur, uint64(7))
	}
}

func TestAssignMatchesNext(t *testing.T) {
	a, _ := New(1000)
	b, _ := New(1000)

	assigned := a.Assign(40)
	require.Len(t, assigned, 40)
	for i, c := range assigned {
		assert.Equal(t, b.Next(), c, "index %d", i)
	}
	assert.Nil(t, a.Assign(0))
	assert.Nil(t, a.Assign(-3))
}

func TestSequenceRepeatsAfterPisanoPeriod(t *testing.T) {
	const m = 10
	g, _ := New(m)
	period := int(PisanoPeriod(m))
	require.Equal(t, 60, period)

	first := g.Assign(period)
	second := g.Assign(period)
	assert.Equal(t, first, second)
}

func TestPisanoPeriod(t *testing.T) {
	tests := []struct {
		m    uint64
		want uint64
	}{
		{0, 0},
		{1, 0},
		{2, 3},
		{7, 16},
		{10, 60},
		{100, 300},
	}
	for _, tt := range tests {
		got := PisanoPeriod(tt.m)
		if got != tt.want {
			t.Errorf("PisanoPeriod(%d) = %d, want %d", tt.m, got, tt.want)
		}
		if tt.m >= MinModulus && got > PeriodBound(tt.m) {
			t.Errorf("PisanoPeriod(%d) = %d exceeds bound %d", tt.m, got, PeriodBound(tt.m))
		}
	}
}

func TestGoldenSequence(t *testing.T) {
	g, err := New(100)
	require.NoError(t, err)

	var buf bytes.Buffer
	for i, c := range g.Assign(24) {
		fmt.Fprintf(&buf, "%02d %.4f %.4f\n", i, c.U, c.V)
	}

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gold.Assert(t, "modulus_100_24_tiles", buf.Bytes())
}
