package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexical_Search(t *testing.T) {
	idx := NewLexical([][]string{
		{"prushtha", "grahah"},
		{"vata", "roga"},
		{"pitta", "roga"},
	})
	require.Equal(t, 3, idx.Len())

	t.Run("full match scores one", func(t *testing.T) {
		hits := idx.Search([]string{"vata", "roga"}, 10)
		require.Len(t, hits, 2)
		assert.Equal(t, 1, hits[0].Ordinal)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
		assert.Equal(t, 2, hits[1].Ordinal)
		assert.Less(t, hits[1].Score, hits[0].Score)
		assert.Greater(t, hits[1].Score, 0.0)
	})

	t.Run("unknown tokens lower the score", func(t *testing.T) {
		hits := idx.Search([]string{"vata", "zzz"}, 10)
		require.Len(t, hits, 1)
		assert.Less(t, hits[0].Score, 0.5)
	})

	t.Run("duplicate query tokens count once", func(t *testing.T) {
		a := idx.Search([]string{"prushtha", "grahah"}, 10)
		b := idx.Search([]string{"prushtha", "grahah", "grahah"}, 10)
		assert.Equal(t, a, b)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, idx.Search([]string{"kapha"}, 10))
		assert.Empty(t, idx.Search(nil, 10))
	})

	t.Run("k caps results", func(t *testing.T) {
		assert.Len(t, idx.Search([]string{"roga"}, 1), 1)
	})
}

func TestLexical_TiesKeepInsertionOrder(t *testing.T) {
	idx := NewLexical([][]string{
		{"roga", "b"},
		{"roga", "a"},
		{"roga", "c"},
	})

	hits := idx.Search([]string{"roga"}, 0)
	require.Len(t, hits, 3)
	for i, h := range hits {
		assert.Equal(t, i, h.Ordinal)
	}
}

func TestLexical_Deterministic(t *testing.T) {
	idx := NewLexical([][]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})
	first := idx.Search([]string{"a", "c"}, 10)
	for range 5 {
		assert.Equal(t, first, idx.Search([]string{"a", "c"}, 10))
	}
}

func TestLexical_Empty(t *testing.T) {
	idx := NewLexical(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Search([]string{"a"}, 10))
}
