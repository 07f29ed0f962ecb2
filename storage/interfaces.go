package storage

import (
	"context"

	"github.com/verdantis/plantid/core"
)

// Repository provides common storage operations shared across repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds corpus records similar to the given vector.
	// Returns records with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// CorpusRepository provides operations for managing species corpus records.
type CorpusRepository interface {
	Repository

	// AddRecords adds one or more corpus records to storage.
	// For records with Id=0, derives content-based IDs from the scientific
	// name (falling back to the common name).
	// Sets InsertedAt timestamp if not already set.
	// Returns the records with IDs and timestamps populated.
	AddRecords(ctx context.Context, records ...*core.CorpusRecord) ([]*core.CorpusRecord, error)

	// UpdateRecords updates existing corpus records.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any record doesn't exist.
	UpdateRecords(ctx context.Context, records ...*core.CorpusRecord) ([]*core.CorpusRecord, error)

	// DeleteRecords removes corpus records by their IDs.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteRecords(ctx context.Context, ids ...core.ID) error

	// GetRecord retrieves a single corpus record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, id core.ID) (*core.CorpusRecord, error)

	// GetRecords retrieves multiple corpus records by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetRecords(ctx context.Context, ids ...core.ID) ([]*core.CorpusRecord, error)

	// AllRecords streams every corpus record to fn in key order.
	// Iteration stops early if fn returns an error, which is propagated.
	// Used by weight recomputation and reindexing, which need a full scan.
	AllRecords(ctx context.Context, fn func(record *core.CorpusRecord) error) error

	// CountRecords returns the number of corpus records in storage.
	CountRecords(ctx context.Context) (int, error)
}
