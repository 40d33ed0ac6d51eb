package enhance

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/slizzai/slizzai/pkg/errors"
)

// DefaultFactor is the upscaling factor of the local sampler.
const DefaultFactor = 2

// MaxOutputPixels bounds the upscaled image area.
const MaxOutputPixels = 64 << 20

// Upscaler enlarges tiles with CatmullRom resampling.
type Upscaler struct {
	Factor int // DefaultFactor when zero
}

// Enhance implements Enhancer without a network hop.
func (u Upscaler) Enhance(ctx context.Context, img []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return u.Upscale(img)
}

// Upscale decodes a PNG, scales it by Factor and re-encodes it as PNG.
func (u Upscaler) Upscale(data []byte) ([]byte, error) {
	factor := u.Factor
	if factor <= 0 {
		factor = DefaultFactor
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode tile")
	}
	b := src.Bounds()
	w, h := b.Dx()*factor, b.Dy()*factor
	if w <= 0 || h <= 0 || w*h > MaxOutputPixels {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot upscale %dx%d by %d", b.Dx(), b.Dy(), factor)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode tile: %w", err)
	}
	return buf.Bytes(), nil
}
