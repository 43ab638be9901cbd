package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/tmbridge/ai"
	"github.com/poiesic/tmbridge/bundle"
	"github.com/poiesic/tmbridge/core"
	"github.com/poiesic/tmbridge/index"
	"github.com/poiesic/tmbridge/storage"
	"github.com/poiesic/tmbridge/websearch"
)

// Retriever runs the retrieval cascade against the bundles of a registry.
// It holds no per-request state and is safe for concurrent use.
type Retriever struct {
	registry   *bundle.Registry
	embedder   ai.Embedder
	external   websearch.Searcher
	selections storage.SelectionRepository
	policy     Policy
	logger     *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithEmbedder enables the semantic tier.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(r *Retriever) error {
		r.embedder = embedder
		return nil
	}
}

// WithExternalSearch enables the external fallback tier.
func WithExternalSearch(searcher websearch.Searcher) Option {
	return func(r *Retriever) error {
		r.external = searcher
		return nil
	}
}

// WithPolicy replaces DefaultPolicy.
func WithPolicy(policy Policy) Option {
	return func(r *Retriever) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		r.policy = policy
		return nil
	}
}

// WithSelectionBoost re-ranks catalog candidates by how often practitioners
// picked them before.
func WithSelectionBoost(selections storage.SelectionRepository) Option {
	return func(r *Retriever) error {
		r.selections = selections
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever. Tiers whose capability is not
// configured are skipped.
func NewRetriever(registry *bundle.Registry, opts ...Option) (*Retriever, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	r := &Retriever{
		registry: registry,
		policy:   DefaultPolicy(),
		logger:   slog.Default().With("component", "retriever"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Policy returns the active policy.
func (r *Retriever) Policy() Policy {
	return r.policy
}

// Retrieve runs all four tiers for query against catalog t.
// The only error is core.ErrCatalogUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, t core.Terminology, query string) (*core.RankedCandidates, error) {
	return r.RetrieveWithMonitor(ctx, t, query, nil)
}

// RetrieveWithMonitor is Retrieve with tier callbacks.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, t core.Terminology, query string, monitor CascadeMonitor) (*core.RankedCandidates, error) {
	return r.run(ctx, t, query, true, monitor)
}

// RetrieveLocal runs the catalog tiers only. Its candidates always carry
// catalog codes, which makes it the entry point for cross-mapping.
func (r *Retriever) RetrieveLocal(ctx context.Context, t core.Terminology, query string) (*core.RankedCandidates, error) {
	return r.run(ctx, t, query, false, nil)
}

// Lookup returns the catalog entry for code.
func (r *Retriever) Lookup(t core.Terminology, code string) (*core.Entry, error) {
	b, ok := r.registry.Get(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCatalogUnavailable, t)
	}
	entry, ok := b.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrCodeNotFound, t, code)
	}
	return entry, nil
}

func (r *Retriever) run(ctx context.Context, t core.Terminology, query string, allowExternal bool, monitor CascadeMonitor) (*core.RankedCandidates, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	b, ok := r.registry.Get(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCatalogUnavailable, t)
	}

	monitor.Start(t, query)

	req := &request{
		terminology: t,
		query:       query,
		tokens:      index.Normalize(query),
		bundle:      b,
	}
	if len(req.tokens) == 0 {
		result := core.EmptyResult(t, query)
		monitor.Finish(result)
		return result, nil
	}

	for _, st := range r.stages(allowExternal) {
		if !st.enabled(req) {
			continue
		}

		monitor.TierStarted(st.source)
		out, err := r.runStage(ctx, st, req)
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", core.ErrTierUnavailable, st.source, err)
			r.logger.Warn("tier unavailable, continuing cascade",
				"tier", st.source.String(), "terminology", t, "err", err)
			monitor.TierFailed(st.source, err)
			continue
		}

		accepted := st.acceptable(out)
		monitor.TierFinished(st.source, len(out.ranked.Candidates), accepted)
		if accepted {
			result := out.ranked
			result.Terminology = t
			result.Query = query
			result.Source = st.source
			monitor.Finish(result)
			return result, nil
		}
	}

	result := core.EmptyResult(t, query)
	monitor.Finish(result)
	return result, nil
}

// runStage isolates tier failures, including panics raised by injected
// capabilities, from the rest of the cascade.
func (r *Retriever) runStage(ctx context.Context, st stage, req *request) (out *outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return st.search(ctx, req)
}
