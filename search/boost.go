package search

import (
	"context"
	"math"

	"github.com/poiesic/tmbridge/index"
)

const maxSelectionBoost = 0.5

// selectionBoost grows with the log of how often a code was chosen, capped
// at maxSelectionBoost.
func selectionBoost(count int) float64 {
	if count <= 0 {
		return 0
	}
	return math.Min(maxSelectionBoost, 0.1*math.Log10(float64(count)+1))
}

// boost adds selection boosts to hits and re-sorts them. Failures to read
// counts leave hits unchanged.
func (r *Retriever) boost(ctx context.Context, req *request, hits []index.Hit) []index.Hit {
	if r.selections == nil || len(hits) == 0 {
		return hits
	}

	counts, err := r.selections.SelectionCounts(ctx, req.terminology)
	if err != nil {
		r.logger.Warn("failed to read selection counts", "terminology", req.terminology, "err", err)
		return hits
	}
	if len(counts) == 0 {
		return hits
	}

	boosted := make([]index.Hit, len(hits))
	for i, h := range hits {
		code := req.bundle.Entry(h.Ordinal).Code
		boosted[i] = index.Hit{
			Ordinal: h.Ordinal,
			Score:   math.Min(1, h.Score+selectionBoost(counts[code])),
		}
	}
	index.SortHits(boosted)
	return boosted
}
