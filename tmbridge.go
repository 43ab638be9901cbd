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


// Package tmbridge wires catalog storage, index bundles, the retrieval
// cascade and the cross-terminology mapper into a single handle.
package tmbridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/tmbridge/ai"
	"github.com/poiesic/tmbridge/ai/ollama"
	"github.com/poiesic/tmbridge/ai/openai"
	"github.com/poiesic/tmbridge/bundle"
	"github.com/poiesic/tmbridge/core"
	"github.com/poiesic/tmbridge/mapping"
	"github.com/poiesic/tmbridge/search"
	"github.com/poiesic/tmbridge/storage"
	"github.com/poiesic/tmbridge/storage/badger"
	"github.com/poiesic/tmbridge/websearch"
)

// Engine owns the stores and the services built on top of them.
type Engine struct {
	backend     *badger.Backend
	catalogs    storage.CatalogRepository
	selections  storage.SelectionRepository
	provider    ai.AIProvider
	registry    *bundle.Registry
	retriever   *search.Retriever
	mapper      *mapping.Mapper
	buildConfig *bundle.BuildConfig
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	inMemory       bool
	aiConfig       *ai.Config
	provider       ai.AIProvider
	external       websearch.Searcher
	policy         *search.Policy
	selectionBoost bool
	buildConfig    *bundle.BuildConfig
	progress       io.Writer
	logger         *slog.Logger
}

// WithInMemory keeps all data in memory. The path given to Open is ignored.
func WithInMemory() Option {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithAIConfig creates an AI provider from cfg. Without it, and without
// WithAIProvider, the engine runs lexical and fuzzy retrieval only.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithAIProvider uses an existing provider. The engine takes ownership and
// closes it on Close.
func WithAIProvider(provider ai.AIProvider) Option {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithExternalSearch enables the external tier.
func WithExternalSearch(searcher websearch.Searcher) Option {
	return func(o *engineOptions) {
		o.external = searcher
	}
}

// WithPolicy overrides the default retrieval policy.
func WithPolicy(policy search.Policy) Option {
	return func(o *engineOptions) {
		o.policy = &policy
	}
}

// WithSelectionBoost toggles re-ranking by recorded selections. Enabled by default.
func WithSelectionBoost(enabled bool) Option {
	return func(o *engineOptions) {
		o.selectionBoost = enabled
	}
}

// WithBuildConfig sets the configuration used by Rebuild.
func WithBuildConfig(cfg *bundle.BuildConfig) Option {
	return func(o *engineOptions) {
		o.buildConfig = cfg
	}
}

// WithProgress sets where Rebuild reports embedding progress.
func WithProgress(w io.Writer) Option {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open opens the database at path and loads every stored catalog.
// Catalogs that fail to load are skipped with a warning and report
// core.ErrCatalogUnavailable until they are imported again.
func Open(path string, opts ...Option) (*Engine, error) {
	options := &engineOptions{selectionBoost: true}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default().With("component", "tmbridge")
	}

	var (
		catalogs   storage.CatalogRepository
		selections storage.SelectionRepository
		backend    *badger.Backend
		err        error
	)
	if options.inMemory {
		catalogs, selections, backend, err = badger.NewMemoryRepositories()
	} else {
		catalogs, selections, backend, err = badger.OpenRepositories(path)
	}
	if err != nil {
		return nil, err
	}

	e := &Engine{
		backend:     backend,
		catalogs:    catalogs,
		selections:  selections,
		provider:    options.provider,
		buildConfig: options.buildConfig,
		progress:    options.progress,
		logger:      logger,
	}

	if e.provider == nil && options.aiConfig != nil {
		if e.provider, err = newProvider(options.aiConfig); err != nil {
			e.closeStores()
			return nil, err
		}
	}

	if err := e.wire(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func newProvider(cfg *ai.Config) (ai.AIProvider, error) {
	cfg.Normalize()
	if cfg.Backend == ai.BackendOllama {
		return ollama.NewProvider(cfg)
	}
	return openai.NewProvider(cfg)
}

func (e *Engine) wire(options *engineOptions) error {
	registry, err := e.loadRegistry(context.Background())
	if err != nil {
		return err
	}
	e.registry = registry

	retrieverOpts := []search.Option{search.WithLogger(e.logger.With("component", "retriever"))}
	if e.provider != nil {
		retrieverOpts = append(retrieverOpts, search.WithEmbedder(e.provider.Embedder()))
	}
	if options.external != nil {
		retrieverOpts = append(retrieverOpts, search.WithExternalSearch(options.external))
	}
	if options.policy != nil {
		retrieverOpts = append(retrieverOpts, search.WithPolicy(*options.policy))
	}
	if options.selectionBoost {
		retrieverOpts = append(retrieverOpts, search.WithSelectionBoost(e.selections))
	}
	if e.retriever, err = search.NewRetriever(registry, retrieverOpts...); err != nil {
		return err
	}

	mapperOpts := []mapping.Option{mapping.WithLogger(e.logger.With("component", "mapper"))}
	if e.provider != nil {
		if selector := e.provider.CandidateSelector(); selector != nil {
			mapperOpts = append(mapperOpts, mapping.WithSelector(selector))
		}
	}
	e.mapper, err = mapping.NewMapper(e.retriever, mapperOpts...)
	return err
}

func (e *Engine) loadRegistry(ctx context.Context) (*bundle.Registry, error) {
	terminologies, err := e.catalogs.Terminologies(ctx)
	if err != nil {
		return nil, err
	}

	registry := bundle.NewRegistry()
	for _, t := range terminologies {
		b, err := bundle.Load(ctx, e.catalogs, t)
		if err != nil {
			e.logger.Warn("skipping catalog", "terminology", t, "err", err)
			continue
		}
		if b, err = e.compatible(b); err != nil {
			e.logger.Warn("skipping catalog", "terminology", t, "err", err)
			continue
		}
		registry.Swap(b)
		e.logger.Debug("catalog loaded", "terminology", t, "entries", b.Len(), "vectors", b.HasVectors())
	}
	return registry, nil
}

// compatible drops vectors embedded with a model other than the provider's.
func (e *Engine) compatible(b *bundle.Bundle) (*bundle.Bundle, error) {
	if !b.HasVectors() || e.provider == nil {
		return b, nil
	}
	stored := b.Info().EmbeddingModel
	if stored == e.provider.EmbeddingModel() {
		return b, nil
	}
	e.logger.Warn("bundle embedded with a different model, serving lexical-only",
		"terminology", b.Terminology(), "stored", stored, "provider", e.provider.EmbeddingModel())
	return bundle.New(b.Terminology(), b.Entries(), nil)
}

// Close releases the provider, repositories and backend in that order.
func (e *Engine) Close() error {
	var errs []error
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	errs = append(errs, e.closeStores())
	return errors.Join(errs...)
}

func (e *Engine) closeStores() error {
	var errs []error
	if err := e.selections.Close(); err != nil {
		e.logger.Error("error closing selection repository", "err", err)
		errs = append(errs, err)
	}
	if err := e.catalogs.Close(); err != nil {
		e.logger.Error("error closing catalog repository", "err", err)
		errs = append(errs, err)
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Retrieve runs the full cascade against catalog t.
func (e *Engine) Retrieve(ctx context.Context, t core.Terminology, query string) (*core.RankedCandidates, error) {
	return e.retriever.Retrieve(ctx, t, query)
}

// RetrieveWithMonitor runs the full cascade and reports progress to monitor.
func (e *Engine) RetrieveWithMonitor(ctx context.Context, t core.Terminology, query string, monitor search.CascadeMonitor) (*core.RankedCandidates, error) {
	return e.retriever.RetrieveWithMonitor(ctx, t, query, monitor)
}

// Lookup returns the entry of catalog t with the given code.
func (e *Engine) Lookup(t core.Terminology, code string) (*core.Entry, error) {
	return e.retriever.Lookup(t, code)
}

// CrossMap maps one TM concept onto both ICD-11 catalogs.
func (e *Engine) CrossMap(ctx context.Context, t core.Terminology, code, term string) (*core.CrossMapResult, error) {
	return e.mapper.CrossMap(ctx, t, code, term)
}

// Map runs the free-text mapping pipeline.
func (e *Engine) Map(ctx context.Context, t core.Terminology, query string) (*core.MappingResult, error) {
	return e.mapper.Map(ctx, t, query)
}

// RecordSelection stores a practitioner's choice. The code must exist in
// the loaded target catalog.
func (e *Engine) RecordSelection(ctx context.Context, selection *core.Selection) error {
	if _, err := e.retriever.Lookup(selection.Target, selection.Code); err != nil {
		return err
	}
	return e.selections.RecordSelection(ctx, selection)
}

// RecentSelections returns up to limit selections, most recent first.
func (e *Engine) RecentSelections(ctx context.Context, limit int) ([]*core.Selection, error) {
	return e.selections.RecentSelections(ctx, limit)
}

// ImportCatalog replaces the stored catalog of t and serves it lexical-only
// until Rebuild embeds it.
func (e *Engine) ImportCatalog(ctx context.Context, t core.Terminology, entries []*core.Entry) (core.BundleInfo, error) {
	b, err := bundle.New(t, entries, nil)
	if err != nil {
		return core.BundleInfo{}, err
	}
	if err := e.catalogs.ReplaceCatalog(ctx, t, entries); err != nil {
		return core.BundleInfo{}, fmt.Errorf("storing catalog %s: %w", t, err)
	}
	e.registry.Swap(b)
	e.logger.Info("catalog imported", "terminology", t, "entries", b.Len())
	return b.Info(), nil
}

// Rebuild embeds the stored catalog of t, persists the vectors and swaps
// the new bundle in. Readers keep using the old bundle until the swap.
func (e *Engine) Rebuild(ctx context.Context, t core.Terminology) (core.BundleInfo, error) {
	entries, err := e.catalogs.LoadCatalog(ctx, t)
	if err != nil {
		return core.BundleInfo{}, fmt.Errorf("%w: %s: %w", core.ErrCatalogUnavailable, t, err)
	}

	builderOpts := []bundle.BuilderOption{
		bundle.WithBuildConfig(e.buildConfig),
		bundle.WithProgress(e.progress),
		bundle.WithLogger(e.logger.With("component", "builder")),
	}
	if e.provider != nil {
		builderOpts = append(builderOpts, bundle.WithEmbedder(e.provider.Embedder(), e.provider.EmbeddingModel()))
	}

	b, err := bundle.NewBuilder(builderOpts...).Build(ctx, t, entries)
	if err != nil {
		return core.BundleInfo{}, err
	}
	if err := bundle.Save(ctx, e.catalogs, b); err != nil {
		return core.BundleInfo{}, fmt.Errorf("saving bundle %s: %w", t, err)
	}
	e.registry.Swap(b)

	info := b.Info()
	e.logger.Info("bundle rebuilt", "terminology", t, "entries", info.Entries, "model", info.EmbeddingModel)
	return info, nil
}

// Registry returns the registry of loaded bundles.
func (e *Engine) Registry() *bundle.Registry {
	return e.registry
}

// Retriever returns the retrieval cascade.
func (e *Engine) Retriever() *search.Retriever {
	return e.retriever
}

// Policy returns the active retrieval policy.
func (e *Engine) Policy() search.Policy {
	return e.retriever.Policy()
}
