package scheduler

import (
	"fmt"

	"github.com/slizzai/slizzai/pkg/errors"
)

// DefaultModulus is the Fibonacci modulus used when none is configured.
const DefaultModulus uint64 = 100_000

// MinModulus is the smallest modulus for which the sequence is defined.
const MinModulus uint64 = 2

// MaxModulus is the largest supported modulus, 2^53. Up to it every term
// and the modulus itself are exact in a float64, so term/modulus stays
// below 1, and the sum of two terms cannot overflow a uint64.
const MaxModulus uint64 = 1 << 53

// UV is a coordinate in the unit square. Both components lie in [0, 1).
type UV struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// String formats the coordinate with four decimals.
func (c UV) String() string {
	return fmt.Sprintf("(u=%.4f, v=%.4f)", c.U, c.V)
}

// State is the Fibonacci pair driving a [Generator].
// Both values are always strictly below the generator's modulus.
type State struct {
	Prev uint64 `json:"prev"`
	Cur  uint64 `json:"cur"`
}

// seed is the initial Fibonacci pair.
var seed = State{Prev: 0, Cur: 1}

// Generator produces the deterministic coordinate sequence.
// It is not safe for concurrent use; the pipeline assigns all coordinates
// from a single goroutine before dispatching tiles.
type Generator struct {
	modulus uint64
	state   State
	calls   uint64
}

// New creates a generator for the given modulus, seeded to (0, 1).
// It returns an INVALID_CONFIG error if modulus is outside
// [MinModulus, MaxModulus].
func New(modulus uint64) (*Generator, error) {
	if modulus < MinModulus || modulus > MaxModulus {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "fib modulus must be in [%d, %d], got %d", MinModulus, MaxModulus, modulus)
	}
	return &Generator{modulus: modulus, state: seed}, nil
}

// Next advances the sequence by one step and returns the coordinate for
// the current term.
func (g *Generator) Next() UV {
	m := g.modulus
	fib := g.state.Cur
	g.state = State{Prev: g.state.Cur, Cur: (g.state.Prev + g.state.Cur) % m}
	g.calls++

	return UV{
		U: float64(fib%m) / float64(m),
		V: float64(g.state.Cur%m) / float64(m),
	}
}

// Reset returns the generator to its seed. Calling Reset repeatedly has
// the same effect as calling it once.
func (g *Generator) Reset() {
	g.state = seed
	g.calls = 0
}

// Assign returns the next n coordinates in order. Index i of the result is
// the coordinate for the i-th tile of a run that starts at the current state.
func (g *Generator) Assign(n int) []UV {
	if n <= 0 {
		return nil
	}
	out := make([]UV, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}

// State returns the current Fibonacci pair.
func (g *Generator) State() State { return g.state }

// Modulus returns the generator's modulus.
func (g *Generator) Modulus() uint64 { return g.modulus }

// Calls returns the number of Next calls since construction or the last Reset.
func (g *Generator) Calls() uint64 { return g.calls }
