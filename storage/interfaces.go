package storage

import (
	"context"

	"github.com/poiesic/tmbridge/core"
)

// CatalogRepository persists terminology catalogs and their index bundles.
// Implementations must be thread-safe and support concurrent access.
type CatalogRepository interface {
	// ReplaceCatalog stores entries as the complete catalog for t, in order.
	// Any previous entries and stored vectors for t are discarded; catalogs
	// are rebuilt wholesale, never patched.
	ReplaceCatalog(ctx context.Context, t core.Terminology, entries []*core.Entry) error

	// LoadCatalog returns the entries of t in insertion order.
	// Returns ErrNotFound if no catalog is stored for t.
	LoadCatalog(ctx context.Context, t core.Terminology) ([]*core.Entry, error)

	// SaveVectors stores one embedding per catalog entry together with the
	// bundle metadata. vectors must be in catalog order.
	SaveVectors(ctx context.Context, info *core.BundleInfo, vectors [][]float32) error

	// LoadVectors returns the stored bundle metadata and vectors for t.
	// Returns ErrNotFound if no vectors are stored.
	LoadVectors(ctx context.Context, t core.Terminology) (*core.BundleInfo, [][]float32, error)

	// Terminologies lists the catalogs that have been stored.
	Terminologies(ctx context.Context) ([]core.Terminology, error)

	// Close releases resources held by the repository.
	Close() error
}

// SelectionRepository records practitioner selections and serves the
// per-code counts used for re-ranking.
type SelectionRepository interface {
	// RecordSelection appends a selection and increments its code count.
	RecordSelection(ctx context.Context, selection *core.Selection) error

	// SelectionCounts returns how many times each code of target was selected.
	// Codes never selected are absent from the map.
	SelectionCounts(ctx context.Context, target core.Terminology) (map[string]int, error)

	// RecentSelections returns up to limit selections, most recent first.
	RecentSelections(ctx context.Context, limit int) ([]*core.Selection, error)

	// Close releases resources held by the repository.
	Close() error
}
