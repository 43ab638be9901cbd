package index

import (
	"cmp"
	"math"
	"slices"
)

// Hit is a scored reference to a catalog entry by its insertion ordinal.
type Hit struct {
	Ordinal int
	Score   float64
}

// SortHits orders hits by descending score. Equal scores keep catalog
// insertion order.
func SortHits(hits []Hit) {
	slices.SortStableFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
}

// TopK sorts hits and truncates them to k. A non-positive k keeps all hits.
func TopK(hits []Hit, k int) []Hit {
	SortHits(hits)
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// PinExact places the exact ordinals ahead of every other hit at score 1.
// The remaining hits are capped just below 1 and keep their order. The
// result is truncated to k like TopK.
func PinExact(hits []Hit, exact []int, k int) []Hit {
	if len(exact) == 0 {
		return TopK(hits, k)
	}

	pinned := make([]Hit, 0, len(hits)+len(exact))
	seen := make(map[int]struct{}, len(exact))
	for _, ordinal := range exact {
		if _, dup := seen[ordinal]; dup {
			continue
		}
		seen[ordinal] = struct{}{}
		pinned = append(pinned, Hit{Ordinal: ordinal, Score: 1})
	}

	below := math.Nextafter(1, 0)
	for _, h := range hits {
		if _, ok := seen[h.Ordinal]; ok {
			continue
		}
		pinned = append(pinned, Hit{Ordinal: h.Ordinal, Score: min(h.Score, below)})
	}
	return TopK(pinned, k)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
