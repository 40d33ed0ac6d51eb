// Package codec implements the lossy fixed-point codec used to check
// per-tile payload fidelity.
//
// Each element x of a payload is stored as one signed 16-bit cell holding
// round(x * Phi * Scale), little-endian. Decoding divides by the same
// factor, so the per-element reconstruction error is at most [MaxError]
// (half a quantization step).
//
// The codec is only meaningful for payloads whose scaled values fit in an
// int16, i.e. |x| <= [MaxAbs] (about 20.25). Values outside that range are
// rejected by [Compress] with an [OverflowError]; they are never wrapped.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/slizzai/slizzai/pkg/errors"
)

// Phi is the golden ratio.
var Phi = (1 + math.Sqrt(5)) / 2

// Scale is the fixed-point scale applied on top of Phi.
const Scale = 1000.0

// CellSize is the number of bytes per encoded element.
const CellSize = 2

var (
	// factor maps a real value onto the int16 lattice.
	factor = Phi * Scale

	// Step is the quantization step in input units.
	Step = 1 / factor

	// MaxError is the worst-case per-element reconstruction error.
	MaxError = Step / 2
)

// DefaultTolerance is the absolute round-trip tolerance used by the pipeline.
const DefaultTolerance = 1e-3

// Blob is an encoded payload. Len is the element count; len(Data) is
// always CellSize*Len for blobs produced by Compress.
type Blob struct {
	Data []byte
	Len  int
}

// MaxAbs returns the largest input magnitude that encodes without overflow.
func MaxAbs() float64 {
	return math.MaxInt16 / factor
}

// Compress encodes data. It fails with *OverflowError on the first element
// whose scaled value falls outside the int16 range or is not finite.
func Compress(data []float64) (Blob, error) {
	buf := make([]byte, CellSize*len(data))
	for i, x := range data {
		q, err := quantize(i, x)
		if err != nil {
			return Blob{}, err
		}
		binary.LittleEndian.PutUint16(buf[i*CellSize:], uint16(q))
	}
	return Blob{Data: buf, Len: len(data)}, nil
}

// Decompress decodes length cells from data. It fails with
// *LengthMismatchError unless len(data) == CellSize*length.
func Decompress(data []byte, length int) ([]float64, error) {
	if length < 0 || len(data) != CellSize*length {
		return nil, &LengthMismatchError{Got: len(data), Length: length}
	}
	out := make([]float64, length)
	for i := range out {
		cell := int16(binary.LittleEndian.Uint16(data[i*CellSize:]))
		out[i] = float64(cell) / factor
	}
	return out, nil
}

// Decode is shorthand for Decompress(b.Data, b.Len).
func (b Blob) Decode() ([]float64, error) {
	return Decompress(b.Data, b.Len)
}

// Verify round-trips data through the codec and reports the largest
// element-wise deviation. It returns *IntegrityError when that deviation
// exceeds tol, and passes through codec errors unchanged.
func Verify(data []float64, tol float64) (float64, error) {
	blob, err := Compress(data)
	if err != nil {
		return 0, err
	}
	recon, err := blob.Decode()
	if err != nil {
		return 0, err
	}

	var maxDev float64
	worst := -1
	for i := range data {
		if d := math.Abs(data[i] - recon[i]); d > maxDev {
			maxDev, worst = d, i
		}
	}
	if maxDev > tol {
		return maxDev, &IntegrityError{Index: worst, Deviation: maxDev, Tolerance: tol}
	}
	return maxDev, nil
}

// quantize scales and rounds half to even, rejecting values that do not
// fit a cell.
func quantize(i int, x float64) (int16, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, &OverflowError{Index: i, Value: x, Scaled: x}
	}
	scaled := math.RoundToEven(x * factor)
	if scaled > math.MaxInt16 || scaled < math.MinInt16 {
		return 0, &OverflowError{Index: i, Value: x, Scaled: scaled}
	}
	return int16(scaled), nil
}

// OverflowError reports an element that cannot be represented in a cell.
type OverflowError struct {
	Index  int
	Value  float64
	Scaled float64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("codec overflow: element %d = %g scales to %g, outside [%d, %d]",
		e.Index, e.Value, e.Scaled, math.MinInt16, math.MaxInt16)
}

// Code returns CODEC_OVERFLOW.
func (e *OverflowError) Code() errors.Code { return errors.ErrCodeCodecOverflow }

// LengthMismatchError reports a buffer whose size disagrees with the
// declared element count.
type LengthMismatchError struct {
	Got    int // buffer length in bytes
	Length int // declared element count
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("codec length mismatch: %d bytes for %d elements (want %d)",
		e.Got, e.Length, CellSize*e.Length)
}

// Code returns CODEC_LENGTH_MISMATCH.
func (e *LengthMismatchError) Code() errors.Code { return errors.ErrCodeCodecLengthMismatch }

// IntegrityError reports a round trip that drifted past the tolerance.
type IntegrityError struct {
	Index     int
	Deviation float64
	Tolerance float64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("codec integrity: element %d deviates by %g (tolerance %g)",
		e.Index, e.Deviation, e.Tolerance)
}

// Code returns CODEC_INTEGRITY.
func (e *IntegrityError) Code() errors.Code { return errors.ErrCodeCodecIntegrity }
