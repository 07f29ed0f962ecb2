package weights

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/vocab"
)

// Store holds the current weight snapshot and swaps in replacements
// atomically. Queries in flight keep the snapshot they loaded; a recompute is
// single-flight and never blocks readers.
type Store struct {
	current    atomic.Pointer[Snapshot]
	vocabulary *vocab.Vocabulary
	rebuilding sync.Mutex
	logger     *slog.Logger
}

// NewStore creates a store primed with an empty snapshot.
func NewStore(vocabulary *vocab.Vocabulary, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		vocabulary: vocabulary,
		logger:     logger.With("component", "weights"),
	}
	s.current.Store(Empty(vocabulary))
	return s
}

// Snapshot returns the current snapshot. The result is immutable and safe to
// use for the remainder of a query even while a recompute runs.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Recompute rebuilds the snapshot from a full corpus pass and swaps it in.
// Concurrent recomputes are rejected: the second caller returns
// ErrRecomputeInProgress rather than queueing, since an administrative
// trigger has nothing useful to do with a stale second rebuild.
func (s *Store) Recompute(ctx context.Context, records []*core.CorpusRecord, opts ...BuildOption) error {
	if !s.rebuilding.TryLock() {
		return ErrRecomputeInProgress
	}
	defer s.rebuilding.Unlock()

	snapshot, err := Build(ctx, records, s.vocabulary, opts...)
	if err != nil {
		return err
	}

	s.current.Store(snapshot)
	s.logger.Info("weight snapshot swapped", "corpusSize", snapshot.CorpusSize())
	return nil
}
