package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/poiesic/tmbridge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry *core.Entry
	}{
		{"full entry", core.NewEntry("SP42", "pRuShTha-grahaH", "back stiffness", "Stiff back", "Rigidity of the back", "SP")},
		{"minimal entry", &core.Entry{Code: "X1", Term: "vAta"}},
		{"unicode", &core.Entry{Code: "S-01", Term: "வாதம்", English: "vatham"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalEntry(tt.entry)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalEntry(data)
			require.NoError(t, err)
			assert.Equal(t, tt.entry, decoded)
		})
	}
}

func TestUnmarshalEntry_Invalid(t *testing.T) {
	_, err := UnmarshalEntry(nil)
	assert.True(t, errors.Is(err, ErrTruncatedData))

	data := MarshalEntry(&core.Entry{Code: "X1", Term: "vAta"})
	_, err = UnmarshalEntry(data[:len(data)-2])
	assert.Error(t, err)
}

func TestMarshalUnmarshalVector(t *testing.T) {
	v := []float32{0.25, -0.5, 1, 0}
	decoded, err := UnmarshalVector(MarshalVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, decoded)

	empty, err := UnmarshalVector(MarshalVector(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMarshalUnmarshalBundleInfo(t *testing.T) {
	info := &core.BundleInfo{
		Terminology:    core.Siddha,
		Digest:         "abc123",
		EmbeddingModel: "nomic-embed-text",
		Dimension:      768,
		Entries:        1200,
		BuiltAt:        time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalBundleInfo(MarshalBundleInfo(info))
	require.NoError(t, err)
	assert.Equal(t, info, decoded)
}

func TestMarshalUnmarshalSelection(t *testing.T) {
	s := &core.Selection{
		System:     core.Ayurveda,
		Target:     core.ICD11TM2,
		Code:       "SM3A",
		Query:      "vata imbalance",
		SelectedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalSelection(MarshalSelection(s))
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
}

func TestMarshalUnmarshalCount(t *testing.T) {
	for _, n := range []int{0, 1, 127, 128, 1 << 20} {
		decoded, err := UnmarshalCount(MarshalCount(n))
		require.NoError(t, err)
		assert.Equal(t, n, decoded)
	}
}
