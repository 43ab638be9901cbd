// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mapping

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/tmbridge/ai"
	"github.com/poiesic/tmbridge/core"
	"golang.org/x/sync/errgroup"
)

// FallbackReason is the selection reason when no selector could choose.
const FallbackReason = "fallback"

// Retriever is the retrieval capability the mapper depends on.
// *search.Retriever implements it.
type Retriever interface {
	Retrieve(ctx context.Context, t core.Terminology, query string) (*core.RankedCandidates, error)
	RetrieveLocal(ctx context.Context, t core.Terminology, query string) (*core.RankedCandidates, error)
	Lookup(t core.Terminology, code string) (*core.Entry, error)
}

// Mapper cross-maps TM concepts onto ICD-11.
type Mapper struct {
	retriever Retriever
	selector  ai.CandidateSelector
	logger    *slog.Logger
}

// Option configures a Mapper.
type Option func(*Mapper) error

// WithSelector sets the LLM used by Map to pick a TM candidate.
// Without one, Map takes the top-ranked candidate.
func WithSelector(selector ai.CandidateSelector) Option {
	return func(m *Mapper) error {
		m.selector = selector
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewMapper creates a new mapper.
func NewMapper(retriever Retriever, opts ...Option) (*Mapper, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	m := &Mapper{
		retriever: retriever,
		logger:    slog.Default().With("component", "mapper"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// CrossMap finds ICD-11 Standard and TM2 candidates for a TM concept. The
// catalog entry for code supplies the query text (term, English label and
// definition); term is used alone when the code is not in the catalog.
func (m *Mapper) CrossMap(ctx context.Context, t core.Terminology, code, term string) (*core.CrossMapResult, error) {
	query := term
	if entry, err := m.retriever.Lookup(t, code); err == nil {
		query = conceptText(entry)
		if term == "" {
			term = entry.Term
		}
	} else {
		m.logger.Debug("cross-mapping by term only", "terminology", t, "code", code, "err", err)
	}

	standard, tm2, err := m.crossMapText(ctx, query)
	if err != nil {
		return nil, err
	}

	return &core.CrossMapResult{
		System:   t,
		Code:     code,
		Term:     term,
		Query:    query,
		Standard: standard,
		TM2:      tm2,
	}, nil
}

// MapCandidate cross-maps a retrieved candidate. Web results are rejected.
func (m *Mapper) MapCandidate(ctx context.Context, t core.Terminology, candidate core.Candidate) (*core.CrossMapResult, error) {
	if candidate.Source == core.SourceExternal {
		return nil, ErrExternalCandidate
	}
	if candidate.Code == "" {
		return nil, ErrCodeRequired
	}
	return m.CrossMap(ctx, t, candidate.Code, candidate.Term)
}

// Map runs the full pipeline for free text: retrieve TM candidates, pick
// one, then cross-map the query together with the pick and its reason.
func (m *Mapper) Map(ctx context.Context, t core.Terminology, query string) (*core.MappingResult, error) {
	tm, err := m.retriever.Retrieve(ctx, t, query)
	if err != nil {
		return nil, err
	}

	result := &core.MappingResult{
		InputText:    query,
		System:       t,
		TMCandidates: tm,
		ICDStandard:  core.EmptyResult(core.ICD11Standard, ""),
		ICDTM2:       core.EmptyResult(core.ICD11TM2, ""),
	}

	catalog := make([]core.Candidate, 0, len(tm.Candidates))
	for _, c := range tm.Candidates {
		if c.IsCatalogCode() {
			catalog = append(catalog, c)
		}
	}
	if len(catalog) == 0 {
		m.logger.Info("no catalog candidates to map", "terminology", t, "source", tm.Source.String())
		return result, nil
	}

	selected, reason := m.choose(ctx, query, catalog)
	result.Selected = selected
	result.SelectionReason = reason

	blob := strings.Join(nonEmpty(query, selected.Term, reason), " ")
	result.ICDStandard, result.ICDTM2, err = m.crossMapText(ctx, blob)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// choose asks the selector for a pick and falls back to the top candidate.
func (m *Mapper) choose(ctx context.Context, query string, candidates []core.Candidate) (*core.Candidate, string) {
	top := &candidates[0]
	if m.selector == nil {
		return top, FallbackReason
	}

	choice, err := m.selector.SelectCandidate(ctx, query, candidates)
	if err != nil {
		m.logger.Warn("candidate selection failed, using top candidate", "err", err)
		return top, FallbackReason
	}
	for i := range candidates {
		if candidates[i].Code == choice.Code {
			return &candidates[i], choice.Reason
		}
	}

	m.logger.Warn("selector chose an unknown code, using top candidate", "code", choice.Code)
	return top, FallbackReason
}

// crossMapText queries both ICD-11 catalogs concurrently. Escalation in one
// catalog never affects the other.
func (m *Mapper) crossMapText(ctx context.Context, text string) (standard, tm2 *core.RankedCandidates, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		standard, err = m.retriever.RetrieveLocal(gctx, core.ICD11Standard, text)
		return err
	})
	g.Go(func() error {
		var err error
		tm2, err = m.retriever.RetrieveLocal(gctx, core.ICD11TM2, text)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return standard, tm2, nil
}

// conceptText is the cross-map query for an entry.
func conceptText(e *core.Entry) string {
	return strings.Join(nonEmpty(e.Term, e.English, e.Definition), " ")
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
