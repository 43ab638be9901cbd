package bundle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/tmbridge/core"
	"github.com/poiesic/tmbridge/storage"
)

// Load reads the catalog of t and its stored vectors. Vectors whose digest,
// count or dimension no longer match the catalog are discarded and the
// bundle is served lexical-only until it is rebuilt.
func Load(ctx context.Context, repo storage.CatalogRepository, t core.Terminology) (*Bundle, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	logger := slog.Default().With("component", "bundle", "terminology", t)

	entries, err := repo.LoadCatalog(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrCatalogUnavailable, t, err)
	}

	info, vectors, err := repo.LoadVectors(ctx, t)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Debug("no stored vectors")
		return New(t, entries, nil)
	case err != nil:
		logger.Warn("failed to load vectors, serving lexical-only", "err", err)
		return New(t, entries, nil)
	}

	digest := core.CatalogDigest(entries)
	switch {
	case info.Digest != digest:
		logger.Warn("stored vectors are stale, serving lexical-only", "stored", info.Digest, "catalog", digest)
		vectors = nil
	case len(vectors) != len(entries):
		logger.Warn("stored vector count mismatch, serving lexical-only", "vectors", len(vectors), "entries", len(entries))
		vectors = nil
	}

	b, err := New(t, entries, vectors)
	if err != nil && vectors != nil {
		logger.Warn("stored vectors unusable, serving lexical-only", "err", err)
		b, err = New(t, entries, nil)
	}
	if err != nil {
		return nil, err
	}

	if b.HasVectors() {
		b.info.EmbeddingModel = info.EmbeddingModel
		b.info.BuiltAt = info.BuiltAt
	}
	return b, nil
}

// Save persists the vectors and metadata of b. Lexical-only bundles have
// nothing to save beyond the catalog itself.
func Save(ctx context.Context, repo storage.CatalogRepository, b *Bundle) error {
	if repo == nil {
		return ErrRepositoryRequired
	}
	if !b.HasVectors() {
		return nil
	}

	vectors := make([][]float32, b.vectors.Len())
	for i := range vectors {
		vectors[i] = b.vectors.At(i)
	}

	info := b.Info()
	return repo.SaveVectors(ctx, &info, vectors)
}
