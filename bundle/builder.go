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


package bundle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/tmbridge/ai"
	"github.com/poiesic/tmbridge/core"
	"github.com/poiesic/tmbridge/index"
)

// BuildConfig holds configuration for embedding a catalog.
type BuildConfig struct {
	// BatchSize is the number of entries sent to the embedder at once
	BatchSize int

	// Workers is the number of batches embedded concurrently
	Workers int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int
}

// DefaultBuildConfig returns a BuildConfig with sensible defaults.
func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		BatchSize:      64,
		Workers:        max(runtime.NumCPU()/2, 1),
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		ReportInterval: 100,
	}
}

// Builder turns a catalog into a Bundle.
type Builder struct {
	embedder ai.Embedder
	model    string
	config   *BuildConfig
	progress io.Writer
	logger   *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithEmbedder enables vector indexing. model is recorded in the bundle
// metadata so vectors from different models are never mixed.
func WithEmbedder(embedder ai.Embedder, model string) BuilderOption {
	return func(b *Builder) {
		b.embedder = embedder
		b.model = model
	}
}

// WithBuildConfig overrides the default BuildConfig.
func WithBuildConfig(config *BuildConfig) BuilderOption {
	return func(b *Builder) {
		if config != nil {
			b.config = config
		}
	}
}

// WithProgress sets where progress lines are written.
func WithProgress(w io.Writer) BuilderOption {
	return func(b *Builder) {
		b.progress = w
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder. Without WithEmbedder it produces
// lexical-only bundles.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		config: DefaultBuildConfig(),
		logger: slog.Default().With("component", "bundle-builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.config.BatchSize < 1 {
		b.config.BatchSize = 1
	}
	if b.config.Workers < 1 {
		b.config.Workers = 1
	}
	return b
}

// Build indexes entries for t, embedding them when an embedder is configured.
func (b *Builder) Build(ctx context.Context, t core.Terminology, entries []*core.Entry) (*Bundle, error) {
	if err := core.ValidateCatalog(entries); err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}

	if b.embedder == nil || len(entries) == 0 {
		b.logger.Info("building lexical-only bundle", "terminology", t, "entries", len(entries))
		return New(t, entries, nil)
	}

	vectors, err := b.embed(ctx, t, entries)
	if err != nil {
		return nil, err
	}

	bundle, err := New(t, entries, vectors)
	if err != nil {
		return nil, err
	}
	bundle.info.EmbeddingModel = b.model
	return bundle, nil
}

func (b *Builder) embed(ctx context.Context, t core.Terminology, entries []*core.Entry) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(b.config.Workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	tracker := NewProgressTracker(b.progress, "Embedding "+t.DisplayName(), len(entries), b.config.ReportInterval)
	tracker.Start()

	vectors := make([][]float32, len(entries))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for start := 0; start < len(entries); start += b.config.BatchSize {
		end := min(start+b.config.BatchSize, len(entries))
		batch := catalogBatch{terminology: t, offset: start, entries: entries[start:end]}
		offset := start

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := b.embedBatch(ctx, batch, vectors[offset:end]); err != nil {
				fail(err)
				return
			}
			tracker.Increment(len(batch.entries))
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		b.logger.Error("embedding failed", "terminology", t, "err", firstErr)
		return nil, firstErr
	}

	tracker.Finish()
	b.logger.Info("embedded catalog", "terminology", t, "entries", len(entries),
		"model", b.model, "elapsed", tracker.Elapsed().Round(time.Millisecond))
	return vectors, nil
}

// embedBatch fills out with one unit vector per entry of batch.
func (b *Builder) embedBatch(ctx context.Context, batch catalogBatch, out [][]float32) error {
	embeddings, err := embedWithRetry(ctx, b.logger, b.embedder, batch, b.config.MaxRetries, b.config.RetryDelay)
	if err != nil {
		return err
	}

	for i := range embeddings {
		out[i] = index.NormalizeVector(embeddings[i])
	}
	return nil
}
