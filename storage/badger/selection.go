package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tmbridge/core"
	"github.com/poiesic/tmbridge/storage"
)

const maxConflictRetries = 3

// SelectionRepository implements storage.SelectionRepository for BadgerDB.
type SelectionRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SelectionRepository = (*SelectionRepository)(nil)

// NewSelectionRepository creates a new SelectionRepository.
func NewSelectionRepository(backend *Backend) (*SelectionRepository, error) {
	idSeq, err := backend.GetSequence(selectionIDSeq)
	if err != nil {
		return nil, err
	}

	return &SelectionRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *SelectionRepository) Close() error {
	return r.idSeq.Release()
}

// RecordSelection appends the selection to the log and bumps its counter.
func (r *SelectionRepository) RecordSelection(ctx context.Context, selection *core.Selection) error {
	if selection.Code == "" {
		return core.ErrEmptyCode
	}
	if selection.SelectedAt.IsZero() {
		selection.SelectedAt = time.Now().UTC()
	}

	nextID, err := r.idSeq.Next()
	if err != nil {
		return err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		if nextID, err = r.idSeq.Next(); err != nil {
			return err
		}
	}

	for attempt := 1; ; attempt++ {
		err = r.backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set(makeSelectionLogKey(nextID), storage.MarshalSelection(selection)); err != nil {
				return err
			}

			countKey := makeSelectionCountKey(selection.Target, selection.Code)
			count, err := readCount(tx, countKey)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			if err := tx.Set(countKey, storage.MarshalCount(count+1)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)

		if !errors.Is(err, badger.ErrConflict) || attempt == maxConflictRetries {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// SelectionCounts returns selection counts per code for target.
func (r *SelectionRepository) SelectionCounts(ctx context.Context, target core.Terminology) (map[string]int, error) {
	counts := make(map[string]int)
	prefix := terminologyPrefix(selectionCntPrefix, target)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, prefix, func(key, val []byte) error {
			n, err := storage.UnmarshalCount(val)
			if err != nil {
				return err
			}
			counts[string(key[len(prefix):])] = n
			return nil
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return counts, nil
}

// RecentSelections returns up to limit selections, most recent first.
func (r *SelectionRepository) RecentSelections(ctx context.Context, limit int) ([]*core.Selection, error) {
	var results []*core.Selection
	if limit <= 0 {
		return results, nil
	}

	prefix := []byte(selectionLogPrefix + ":")
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible key under the prefix
		startKey := append(append([]byte{}, prefix...), 0xFF)
		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				s, err := storage.UnmarshalSelection(val)
				if err != nil {
					return err
				}
				results = append(results, s)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	return results, err
}
