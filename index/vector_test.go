package index

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{name: "simple", input: []float32{3, 4}},
		{name: "negative", input: []float32{-1, 2, -2}},
		{name: "already unit", input: []float32{1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NormalizeVector(tt.input)
			var mag float64
			for _, v := range out {
				mag += float64(v * v)
			}
			assert.InDelta(t, 1.0, math.Sqrt(mag), 1e-6)
		})
	}

	t.Run("zero vector", func(t *testing.T) {
		assert.Equal(t, []float32{0, 0}, NormalizeVector([]float32{0, 0}))
	})

	t.Run("does not modify input", func(t *testing.T) {
		in := []float32{3, 4}
		NormalizeVector(in)
		assert.Equal(t, []float32{3, 4}, in)
	})
}

func TestVectors_Search(t *testing.T) {
	vecs, err := NewVectors([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
		{-1, 0, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, vecs.Dimension())
	assert.Equal(t, 4, vecs.Len())

	hits, err := vecs.Search([]float32{2, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, 0, hits[0].Ordinal)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, 2, hits[1].Ordinal)

	all, err := vecs.Search([]float32{1, 0, 0}, 0)
	require.NoError(t, err)
	for _, h := range all {
		assert.GreaterOrEqual(t, h.Score, 0.0)
		assert.LessOrEqual(t, h.Score, 1.0)
	}
}

func TestVectors_DimensionMismatch(t *testing.T) {
	_, err := NewVectors([][]float32{{1, 0}, {1, 0, 0}})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	vecs, err := NewVectors([][]float32{{1, 0}})
	require.NoError(t, err)
	_, err = vecs.Search([]float32{1, 0, 0}, 1)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestVectors_Empty(t *testing.T) {
	vecs, err := NewVectors(nil)
	require.NoError(t, err)
	hits, err := vecs.Search([]float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
