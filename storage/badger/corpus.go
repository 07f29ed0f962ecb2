package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/storage"
)

// CorpusRepository implements storage.CorpusRepository for BadgerDB.
type CorpusRepository struct {
	backend *Backend
}

var _ storage.CorpusRepository = (*CorpusRepository)(nil)

// NewCorpusRepository creates a new CorpusRepository.
func NewCorpusRepository(backend *Backend) (*CorpusRepository, error) {
	return &CorpusRepository{backend: backend}, nil
}

// Close is a no-op; the backend is owned by the caller.
func (r *CorpusRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *CorpusRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *CorpusRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddRecords adds one or more corpus records to storage.
func (r *CorpusRepository) AddRecords(ctx context.Context, records ...*core.CorpusRecord) ([]*core.CorpusRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			// Content-based IDs keep re-ingestion of the same species
			// idempotent: the same name always maps to the same key.
			if record.Id == 0 {
				record.Id = recordID(record)
			}

			if record.InsertedAt.IsZero() {
				record.InsertedAt = time.Now().UTC()
			}
			record.UpdatedAt = record.InsertedAt

			key := makeCorpusRecordKey(record.Id)
			value := storage.MarshalCorpusRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			if err := r.updateNameIndex(tx, record); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// UpdateRecords updates existing corpus records.
func (r *CorpusRepository) UpdateRecords(ctx context.Context, records ...*core.CorpusRecord) ([]*core.CorpusRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeCorpusRecordKey(record.Id)

			old, err := r.readCorpusRecord(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			record.UpdatedAt = time.Now().UTC()

			value := storage.MarshalCorpusRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Refresh the name index if either name changed
			if old.ScientificName != record.ScientificName || old.CommonName != record.CommonName {
				if err := r.deleteNameIndex(tx, old); err != nil {
					return err
				}
				if err := r.updateNameIndex(tx, record); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// DeleteRecords removes corpus records by their IDs.
func (r *CorpusRepository) DeleteRecords(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeCorpusRecordKey(id)

			record, err := r.readCorpusRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return storage.ErrNotFound
			}

			if err := r.deleteNameIndex(tx, record); err != nil {
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetRecord retrieves a single corpus record by ID.
func (r *CorpusRepository) GetRecord(ctx context.Context, id core.ID) (*core.CorpusRecord, error) {
	var result *core.CorpusRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCorpusRecordKey(id)
		var err error
		result, err = r.readCorpusRecord(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetRecords retrieves multiple corpus records by their IDs.
func (r *CorpusRepository) GetRecords(ctx context.Context, ids ...core.ID) ([]*core.CorpusRecord, error) {
	var result []*core.CorpusRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeCorpusRecordKey(id)
			record, err := r.readCorpusRecord(tx, key)
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindByName retrieves a corpus record by scientific or common name.
// Lookup is case-insensitive. Returns storage.ErrNotFound if no record
// carries the name.
func (r *CorpusRepository) FindByName(ctx context.Context, name string) (*core.CorpusRecord, error) {
	var result *core.CorpusRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeNameKey(name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = r.readCorpusRecord(tx, makeCorpusRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// AllRecords streams every corpus record to fn in key order.
func (r *CorpusRepository) AllRecords(ctx context.Context, fn func(record *core.CorpusRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(corpusRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.CorpusRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalCorpusRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}

			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// CountRecords returns the number of corpus records in storage.
func (r *CorpusRepository) CountRecords(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(corpusRecordPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Helper methods

// recordID derives a content-based ID from the record's identity.
func recordID(record *core.CorpusRecord) core.ID {
	name := record.ScientificName
	if name == "" {
		name = record.CommonName
	}
	return core.IDFromContent(name)
}

// readCorpusRecord reads a corpus record from the transaction.
func (r *CorpusRepository) readCorpusRecord(tx *badger.Txn, key []byte) (*core.CorpusRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.CorpusRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalCorpusRecord(val)
		return unmarshalErr
	})
	return record, err
}

// updateNameIndex adds name index entries for a record.
func (r *CorpusRepository) updateNameIndex(tx *badger.Txn, record *core.CorpusRecord) error {
	value := storage.MarshalID(record.Id)
	if record.ScientificName != "" {
		if err := tx.Set(makeNameKey(record.ScientificName), value); err != nil {
			return err
		}
	}
	if record.CommonName != "" {
		if err := tx.Set(makeNameKey(record.CommonName), value); err != nil {
			return err
		}
	}
	return nil
}

// deleteNameIndex removes name index entries for a record.
func (r *CorpusRepository) deleteNameIndex(tx *badger.Txn, record *core.CorpusRecord) error {
	if record.ScientificName != "" {
		if err := tx.Delete(makeNameKey(record.ScientificName)); err != nil {
			return err
		}
	}
	if record.CommonName != "" {
		if err := tx.Delete(makeNameKey(record.CommonName)); err != nil {
			return err
		}
	}
	return nil
}
