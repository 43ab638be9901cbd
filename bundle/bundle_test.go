package bundle

import (
	"errors"
	"testing"

	"github.com/poiesic/tmbridge/core"
	"github.com/poiesic/tmbridge/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siddhaEntries() []*core.Entry {
	return []*core.Entry{
		core.NewEntry("SP42", "pRuShTha-grahaH", "stiffness of back", "", "", ""),
		core.NewEntry("SA01", "vātam", "wind humour", "One of the three humours", "", ""),
		core.NewEntry("SA02", "pittam", "bile humour", "", "", "SA01"),
	}
}

func TestNew(t *testing.T) {
	entries := siddhaEntries()
	b, err := New(core.Siddha, entries, nil)
	require.NoError(t, err)

	assert.Equal(t, core.Siddha, b.Terminology())
	assert.Equal(t, 3, b.Len())
	assert.False(t, b.HasVectors())
	assert.Nil(t, b.Vectors())
	assert.Equal(t, 3, b.Lexical().Len())
	assert.Equal(t, 3, b.Fuzzy().Len())

	info := b.Info()
	assert.Equal(t, core.CatalogDigest(entries), info.Digest)
	assert.Equal(t, 3, info.Entries)
	assert.Zero(t, info.Dimension)

	e, ok := b.Lookup("SA02")
	require.True(t, ok)
	assert.Equal(t, "pittam", e.Term)
	assert.Same(t, entries[1], b.Entry(1))

	_, ok = b.Lookup("missing")
	assert.False(t, ok)
}

func TestBundle_ExactTerm(t *testing.T) {
	entries := append(siddhaEntries(), core.NewEntry("SA09", "Vatam", "", "", "", ""))
	b, err := New(core.Siddha, entries, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, b.ExactTerm("VĀTAM"))
	assert.Equal(t, []int{0}, b.ExactTerm("prushtha grahah"))
	assert.Empty(t, b.ExactTerm("vatam humour"))
	assert.Empty(t, b.ExactTerm("  -- "))
}

func TestNew_WithVectors(t *testing.T) {
	vectors := [][]float32{{3, 4}, {1, 0}, {0, 2}}
	b, err := New(core.Siddha, siddhaEntries(), vectors)
	require.NoError(t, err)

	require.True(t, b.HasVectors())
	assert.Equal(t, 2, b.Info().Dimension)
	assert.InDelta(t, 0.6, b.Vectors().At(0)[0], 1e-6)
}

func TestNew_Errors(t *testing.T) {
	t.Run("vector count", func(t *testing.T) {
		_, err := New(core.Siddha, siddhaEntries(), [][]float32{{1, 0}})
		assert.True(t, errors.Is(err, storage.ErrVectorCountMismatch))
	})

	t.Run("duplicate code", func(t *testing.T) {
		entries := append(siddhaEntries(), core.NewEntry("SP42", "again", "", "", "", ""))
		_, err := New(core.Siddha, entries, nil)
		assert.True(t, errors.Is(err, core.ErrDuplicateCode))
	})

	t.Run("empty term", func(t *testing.T) {
		_, err := New(core.Siddha, []*core.Entry{{Code: "X"}}, nil)
		assert.True(t, errors.Is(err, core.ErrEmptyTerm))
	})
}

func TestNew_EmptyCatalog(t *testing.T) {
	b, err := New(core.Unani, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Lexical().Search([]string{"anything"}, 10))
}
