package search

import (
	"context"
	"fmt"

	"github.com/poiesic/tmbridge/bundle"
	"github.com/poiesic/tmbridge/core"
	"github.com/poiesic/tmbridge/index"
	"github.com/poiesic/tmbridge/websearch"
)

// externalAdvisory accompanies web results.
const externalAdvisory = "No catalog match found. These are unverified web results, not catalog codes."

// request is the per-call input shared by every tier.
type request struct {
	terminology core.Terminology
	query       string
	tokens      []string
	bundle      *bundle.Bundle
}

// outcome is what one tier produced. best is the top score before any
// selection boost, so boosting reorders candidates without changing which
// tier is accepted.
type outcome struct {
	ranked *core.RankedCandidates
	best   float64
}

// stage is one tier of the cascade.
type stage struct {
	source     core.Source
	enabled    func(req *request) bool
	search     func(ctx context.Context, req *request) (*outcome, error)
	acceptable func(out *outcome) bool
}

// stages returns the cascade in execution order.
func (r *Retriever) stages(allowExternal bool) []stage {
	return []stage{
		{
			source:     core.SourceLexical,
			enabled:    func(*request) bool { return true },
			search:     r.searchLexical,
			acceptable: r.aboveThreshold(r.policy.LexicalThreshold),
		},
		{
			source: core.SourceSemantic,
			enabled: func(req *request) bool {
				return r.policy.EnableSemantic && r.embedder != nil && req.bundle.HasVectors()
			},
			search:     r.searchSemantic,
			acceptable: r.aboveThreshold(r.policy.SemanticThreshold),
		},
		{
			source:     core.SourceFuzzy,
			enabled:    func(*request) bool { return r.policy.EnableFuzzy },
			search:     r.searchFuzzy,
			acceptable: nonEmpty,
		},
		{
			source: core.SourceExternal,
			enabled: func(*request) bool {
				return allowExternal && r.policy.EnableExternal && r.external != nil
			},
			search:     r.searchExternal,
			acceptable: nonEmpty,
		},
	}
}

// aboveThreshold accepts an outcome whose best raw score exceeds threshold.
func (r *Retriever) aboveThreshold(threshold float64) func(*outcome) bool {
	return func(out *outcome) bool {
		return len(out.ranked.Candidates) > 0 && out.best > threshold
	}
}

func nonEmpty(out *outcome) bool {
	return len(out.ranked.Candidates) > 0
}

func (r *Retriever) searchLexical(ctx context.Context, req *request) (*outcome, error) {
	hits := req.bundle.Lexical().Search(req.tokens, r.policy.TopK)
	// An entry whose term is the whole query outranks longer documents
	// that merely share its tokens.
	hits = index.PinExact(hits, req.bundle.ExactTerm(req.query), r.policy.TopK)
	return r.rank(ctx, req, hits, core.SourceLexical), nil
}

func (r *Retriever) searchSemantic(ctx context.Context, req *request) (*outcome, error) {
	vec, err := r.embedder.EmbedText(ctx, req.query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := req.bundle.Vectors().Search(vec, r.policy.TopK)
	if err != nil {
		return nil, err
	}

	// Orthogonal entries share nothing with the query.
	relevant := hits[:0]
	for _, h := range hits {
		if h.Score > 0 {
			relevant = append(relevant, h)
		}
	}
	return r.rank(ctx, req, relevant, core.SourceSemantic), nil
}

func (r *Retriever) searchFuzzy(ctx context.Context, req *request) (*outcome, error) {
	hits := req.bundle.Fuzzy().Match(req.query, r.policy.MaxEdits, r.policy.TopK)
	out := r.rank(ctx, req, hits, core.SourceFuzzy)
	if top := out.ranked.Top(); top != nil {
		out.ranked.Advisory = fmt.Sprintf("Did you mean '%s'?", top.Term)
	}
	return out, nil
}

func (r *Retriever) searchExternal(ctx context.Context, req *request) (*outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.policy.ExternalTimeout)
	defer cancel()

	text := req.query + " " + req.terminology.SearchContext()
	found, err := r.lookupExternal(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("external lookup: %w", err)
	}

	result := &core.RankedCandidates{Candidates: make([]core.Candidate, 0, min(len(found), r.policy.TopK))}
	for _, item := range found {
		if len(result.Candidates) == r.policy.TopK {
			break
		}
		result.Candidates = append(result.Candidates, core.Candidate{
			Term:       item.Title,
			Definition: item.Snippet,
			Link:       item.Link,
			Source:     core.SourceExternal,
		})
	}
	if len(result.Candidates) > 0 {
		result.Advisory = externalAdvisory
	}
	return &outcome{ranked: result}, nil
}

// lookupExternal bounds the searcher by ctx even when the searcher itself
// ignores cancellation. An abandoned lookup finishes into a buffered
// channel and is discarded.
func (r *Retriever) lookupExternal(ctx context.Context, text string) ([]websearch.Result, error) {
	type reply struct {
		found []websearch.Result
		err   error
	}

	done := make(chan reply, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- reply{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		found, err := r.external.Lookup(ctx, text)
		done <- reply{found: found, err: err}
	}()

	select {
	case rep := <-done:
		return rep.found, rep.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// rank turns one tier's sorted hits into candidates, applying the
// selection boost.
func (r *Retriever) rank(ctx context.Context, req *request, hits []index.Hit, source core.Source) *outcome {
	out := &outcome{}
	if len(hits) > 0 {
		out.best = hits[0].Score
	}

	hits = r.boost(ctx, req, hits)
	candidates := make([]core.Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = core.CandidateFromEntry(req.bundle.Entry(h.Ordinal), h.Score, source)
	}
	out.ranked = &core.RankedCandidates{Candidates: candidates}
	return out
}
