// Package geometry provides deterministic per-tile payloads.
//
// The pipeline treats the payload (a fixed-length vector of geometry or
// attribute deltas) as opaque: it only round-trips it through the codec to
// check fidelity. [Uniform] is the reference source used by the CLI: each
// tile gets Size values drawn uniformly from [Low, High), seeded by the
// run seed and the tile index so a tile's payload never depends on worker
// scheduling.
package geometry

import (
	"context"
	"math/rand/v2"

	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/scheduler"
)

// DefaultSize is the payload length per tile.
const DefaultSize = 4096

// Uniform draws payloads from a uniform distribution.
type Uniform struct {
	Size      int     // DefaultSize when zero
	Seed      uint64  // run seed
	Low, High float64 // [0, 1) when both zero
}

// Delta returns the payload for tile index. uv is accepted for the
// collaborator contract but does not affect the values.
func (g Uniform) Delta(ctx context.Context, index int, uv scheduler.UV) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "tile index must be >= 0, got %d", index)
	}
	size := g.Size
	if size <= 0 {
		size = DefaultSize
	}
	low, high := g.Low, g.High
	if low == 0 && high == 0 {
		high = 1
	}
	if high < low {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "geometry range [%g, %g) is empty", low, high)
	}

	r := rand.New(rand.NewPCG(g.Seed, uint64(index)))
	out := make([]float64, size)
	for i := range out {
		out[i] = low + r.Float64()*(high-low)
	}
	return out, nil
}
