package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tmbridge/core"
	"github.com/poiesic/tmbridge/storage"
)

// CatalogRepository implements storage.CatalogRepository for BadgerDB.
type CatalogRepository struct {
	backend *Backend
}

var _ storage.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(backend *Backend) (*CatalogRepository, error) {
	return &CatalogRepository{
		backend: backend,
	}, nil
}

// Close releases resources. CatalogRepository has no resources to release.
func (r *CatalogRepository) Close() error {
	return nil
}

// ReplaceCatalog discards the stored catalog of t along with its vectors and
// writes entries in their given order.
func (r *CatalogRepository) ReplaceCatalog(ctx context.Context, t core.Terminology, entries []*core.Entry) error {
	if err := core.ValidateCatalog(entries); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.backend.DeletePrefix(
		terminologyPrefix(catalogEntryPrefix, t),
		terminologyPrefix(catalogVectorPrefix, t),
		makeCatalogInfoKey(t),
		makeCatalogMetaKey(t),
	); err != nil {
		return fmt.Errorf("clearing catalog %s: %w", t, err)
	}

	return r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for i, entry := range entries {
			if err := wb.Set(makeCatalogEntryKey(t, i), storage.MarshalEntry(entry)); err != nil {
				return err
			}
		}
		return wb.Set(makeCatalogMetaKey(t), storage.MarshalCount(len(entries)))
	})
}

// LoadCatalog returns the entries of t in insertion order.
func (r *CatalogRepository) LoadCatalog(ctx context.Context, t core.Terminology) ([]*core.Entry, error) {
	var entries []*core.Entry

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		count, err := readCount(tx, makeCatalogMetaKey(t))
		if err != nil {
			return err
		}
		entries = make([]*core.Entry, 0, count)

		return scanPrefix(tx, terminologyPrefix(catalogEntryPrefix, t), func(_, val []byte) error {
			entry, err := storage.UnmarshalEntry(val)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveVectors replaces the stored vectors and bundle metadata of a catalog.
func (r *CatalogRepository) SaveVectors(ctx context.Context, info *core.BundleInfo, vectors [][]float32) error {
	t := info.Terminology

	var count int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		count, err = readCount(tx, makeCatalogMetaKey(t))
		return err
	}, false)
	if err != nil {
		return err
	}
	if count != len(vectors) {
		return fmt.Errorf("%w: %s has %d entries, got %d vectors", storage.ErrVectorCountMismatch, t, count, len(vectors))
	}

	if err := r.backend.DeletePrefix(terminologyPrefix(catalogVectorPrefix, t), makeCatalogInfoKey(t)); err != nil {
		return err
	}

	return r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for i, vec := range vectors {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeCatalogVectorKey(t, i), storage.MarshalVector(vec)); err != nil {
				return err
			}
		}
		return wb.Set(makeCatalogInfoKey(t), storage.MarshalBundleInfo(info))
	})
}

// LoadVectors returns the stored bundle metadata and vectors of t.
func (r *CatalogRepository) LoadVectors(ctx context.Context, t core.Terminology) (*core.BundleInfo, [][]float32, error) {
	var (
		info    *core.BundleInfo
		vectors [][]float32
	)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCatalogInfoKey(t))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if err := item.Value(func(val []byte) error {
			info, err = storage.UnmarshalBundleInfo(val)
			return err
		}); err != nil {
			return err
		}

		vectors = make([][]float32, 0, info.Entries)
		return scanPrefix(tx, terminologyPrefix(catalogVectorPrefix, t), func(_, val []byte) error {
			vec, err := storage.UnmarshalVector(val)
			if err != nil {
				return err
			}
			vectors = append(vectors, vec)
			return nil
		})
	}, false)

	if err != nil {
		return nil, nil, err
	}
	return info, vectors, nil
}

// Terminologies lists every stored catalog.
func (r *CatalogRepository) Terminologies(ctx context.Context) ([]core.Terminology, error) {
	var result []core.Terminology

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(catalogMetaPrefix+":"), func(key, _ []byte) error {
			result = append(result, terminologyFromMetaKey(key))
			return nil
		})
	}, false)

	return result, err
}

// readCount reads a counter value, mapping a missing key to storage.ErrNotFound.
func readCount(tx *badger.Txn, key []byte) (int, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, storage.ErrNotFound
		}
		return 0, err
	}

	var count int
	err = item.Value(func(val []byte) error {
		count, err = storage.UnmarshalCount(val)
		return err
	})
	return count, err
}
