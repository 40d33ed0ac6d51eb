// Package render provides the reference tile renderer.
//
// [Procedural] draws a small deterministic pattern for a coordinate so the
// pipeline can run end to end without an external rendering engine. The
// image is a pure function of (uv, size): the same coordinate always
// yields byte-identical PNG output.
package render

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/gogpu/gg"

	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/scheduler"
)

// DefaultSize is the tile edge length in pixels.
const DefaultSize = 256

// Name identifies the renderer in cache keys.
const Name = "procedural"

const spokes = 6

// Procedural renders PNG tiles with the gg software rasterizer.
type Procedural struct {
	Size int // DefaultSize when zero
}

// RenderTile draws the tile for uv and returns it PNG-encoded.
func (p Procedural) RenderTile(ctx context.Context, uv scheduler.UV) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	size := p.Size
	if size <= 0 {
		size = DefaultSize
	}
	if size > 8192 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "tile size %d exceeds 8192", size)
	}

	dc := gg.NewContext(size, size)
	defer dc.Close()
	s := float64(size)

	dc.SetRGB(hsv(uv.U, 0.35+0.4*uv.V, 0.92))
	dc.DrawRectangle(0, 0, s, s)
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("fill background: %w", err)
	}

	for i := range spokes {
		angle := 2 * math.Pi * (uv.U + float64(i)/spokes)
		dist := s * (0.12 + 0.26*uv.V)
		x := s/2 + math.Cos(angle)*dist
		y := s/2 + math.Sin(angle)*dist

		r, g, b := hsv(math.Mod(uv.V+float64(i)/spokes, 1), 0.7, 0.55)
		dc.SetRGBA(r, g, b, 0.85)
		dc.DrawCircle(x, y, s*(0.05+0.04*float64(i%3)))
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("fill spoke %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode tile: %w", err)
	}
	return buf.Bytes(), nil
}

// hsv converts h, s, v in [0, 1] to RGB components in [0, 1].
func hsv(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 1) * 6
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h, 2)-1))
	m := v - c

	var r, g, b float64
	switch int(h) {
	case 0:
		r, g, b = c, x, 0
	case 1:
		r, g, b = x, c, 0
	case 2:
		r, g, b = 0, c, x
	case 3:
		r, g, b = 0, x, c
	case 4:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
