package geometry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slizzai/slizzai/pkg/codec"
	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/scheduler"
)

func TestUniformDefaults(t *testing.T) {
	d, err := Uniform{}.Delta(context.Background(), 0, scheduler.UV{})
	require.NoError(t, err)
	require.Len(t, d, DefaultSize)
	for _, x := range d {
		require.GreaterOrEqual(t, x, 0.0)
		require.Less(t, x, 1.0)
	}
}

func TestUniformDeterministicPerIndex(t *testing.T) {
	ctx := context.Background()
	g := Uniform{Size: 64, Seed: 7}

	a, _ := g.Delta(ctx, 3, scheduler.UV{U: 0.1})
	b, _ := g.Delta(ctx, 3, scheduler.UV{U: 0.9})
	c, _ := g.Delta(ctx, 4, scheduler.UV{U: 0.1})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	other, _ := Uniform{Size: 64, Seed: 8}.Delta(ctx, 3, scheduler.UV{})
	assert.NotEqual(t, a, other)
}

func TestUniformRange(t *testing.T) {
	d, err := Uniform{Size: 500, Low: -2, High: 2}.Delta(context.Background(), 1, scheduler.UV{})
	require.NoError(t, err)
	for _, x := range d {
		require.GreaterOrEqual(t, x, -2.0)
		require.Less(t, x, 2.0)
	}
}

func TestUniformPayloadPassesCodec(t *testing.T) {
	d, err := Uniform{}.Delta(context.Background(), 11, scheduler.UV{})
	require.NoError(t, err)
	_, err = codec.Verify(d, codec.DefaultTolerance)
	assert.NoError(t, err)
}

func TestUniformErrors(t *testing.T) {
	_, err := Uniform{}.Delta(context.Background(), -1, scheduler.UV{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = Uniform{Low: 1, High: -1}.Delta(context.Background(), 0, scheduler.UV{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Uniform{}.Delta(ctx, 0, scheduler.UV{})
	assert.ErrorIs(t, err, context.Canceled)
}
