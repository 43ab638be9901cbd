package index

import (
	"fmt"
	"math"
)

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}

	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// Vectors holds one unit-length embedding per catalog entry.
type Vectors struct {
	vecs [][]float32
	dim  int
}

// NewVectors normalizes and stores vecs. All vectors must share one
// non-zero dimension.
func NewVectors(vecs [][]float32) (*Vectors, error) {
	if len(vecs) == 0 {
		return &Vectors{}, nil
	}

	dim := len(vecs[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: vector 0 is empty", ErrDimensionMismatch)
	}

	stored := make([][]float32, len(vecs))
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
		stored[i] = NormalizeVector(v)
	}

	return &Vectors{vecs: stored, dim: dim}, nil
}

// Len returns the number of stored vectors.
func (v *Vectors) Len() int {
	return len(v.vecs)
}

// Dimension returns the embedding width.
func (v *Vectors) Dimension() int {
	return v.dim
}

// At returns the stored unit vector for an ordinal.
func (v *Vectors) At(ordinal int) []float32 {
	return v.vecs[ordinal]
}

// Search returns the k entries most similar to query. Cosine similarity is
// clamped to [0,1].
func (v *Vectors) Search(query []float32, k int) ([]Hit, error) {
	if len(v.vecs) == 0 {
		return nil, nil
	}
	if len(query) != v.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), v.dim)
	}

	q := NormalizeVector(query)
	hits := make([]Hit, len(v.vecs))
	for i, vec := range v.vecs {
		var dot float64
		for j := range vec {
			dot += float64(vec[j]) * float64(q[j])
		}
		hits[i] = Hit{Ordinal: i, Score: clamp01(dot)}
	}

	return TopK(hits, k), nil
}
