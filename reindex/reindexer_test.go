// Copyright 2025 Verdantis Labs
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


package reindex

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantis/plantid/ai/mock"
	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/storage"
	"github.com/verdantis/plantid/storage/badger"
	"github.com/verdantis/plantid/vocab"
)

func newTestRepo(t *testing.T) storage.CorpusRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryCorpusRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = backend.Close()
	})
	return repo
}

func seedRecords(t *testing.T, repo storage.CorpusRepository, n int) []*core.CorpusRecord {
	t.Helper()
	names := []string{
		"Rhizophora stylosa",
		"Kandelia obovata",
		"Avicennia marina",
		"Lumnitzera racemosa",
		"Excoecaria agallocha",
	}
	records := make([]*core.CorpusRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, &core.CorpusRecord{
			ScientificName: names[i%len(names)] + " " + strings.Repeat("x", i/len(names)),
			CommonName:     "紅樹林植物",
			Family:         "Rhizophoraceae",
			LifeForm:       "喬木",
			KeyFeatures:    []string{"支柱根", "對生"},
			// stale token from a retired vocabulary entry
			TraitTokens: []string{"bark_texture=smooth"},
		})
	}
	_, err := repo.AddRecords(context.Background(), records...)
	require.NoError(t, err)
	return records
}

func TestReindexerRun(t *testing.T) {
	t.Run("reembeds and retokenizes every record", func(t *testing.T) {
		repo := newTestRepo(t)
		records := seedRecords(t, repo, 7)

		embedder := mock.NewMockEmbedder()
		tokenizer := vocab.NewTokenizer(vocab.NewDefault())
		var out bytes.Buffer

		config := DefaultConfig()
		config.BatchSize = 3

		reindexer := NewReindexer(repo, embedder, tokenizer, config, &out)
		require.NoError(t, reindexer.Run(context.Background()))

		for _, record := range records {
			updated, err := repo.GetRecord(context.Background(), record.Id)
			require.NoError(t, err)
			require.NotEmpty(t, updated.Vector)

			var norm float64
			for _, v := range updated.Vector {
				norm += float64(v) * float64(v)
			}
			assert.InDelta(t, 1.0, norm, 1e-5, "vector should be unit length")

			dims := make(map[string]string, len(updated.TraitTokens))
			for _, token := range updated.Tokens() {
				dims[token.Dimension] = token.Value
			}
			assert.Equal(t, "aerial_root", dims["trunk_root"])
			assert.Equal(t, "opposite", dims["leaf_arrangement"])
			assert.Equal(t, "tree", dims["life_form"])
			assert.NotContains(t, dims, "bark_texture", "stale tokens should be dropped")
		}

		assert.Contains(t, out.String(), "Reindex complete")
	})

	t.Run("empty corpus is a no-op", func(t *testing.T) {
		repo := newTestRepo(t)
		var out bytes.Buffer
		reindexer := NewReindexer(repo, mock.NewMockEmbedder(), nil, nil, &out)
		require.NoError(t, reindexer.Run(context.Background()))
		assert.Contains(t, out.String(), "No records found")
	})

	t.Run("nil tokenizer keeps stored tokens", func(t *testing.T) {
		repo := newTestRepo(t)
		records := seedRecords(t, repo, 1)

		reindexer := NewReindexer(repo, mock.NewMockEmbedder(), nil, nil, &bytes.Buffer{})
		require.NoError(t, reindexer.Run(context.Background()))

		updated, err := repo.GetRecord(context.Background(), records[0].Id)
		require.NoError(t, err)
		assert.Equal(t, []string{"bark_texture=smooth"}, updated.TraitTokens)
	})

	t.Run("embedding failure aborts the run", func(t *testing.T) {
		repo := newTestRepo(t)
		seedRecords(t, repo, 2)

		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("service unavailable")
		}

		config := DefaultConfig()
		config.MaxRetries = 2
		config.RetryDelay = time.Millisecond

		reindexer := NewReindexer(repo, embedder, nil, config, &bytes.Buffer{})
		err := reindexer.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service unavailable")
	})
}

func TestBatchProcessorProcess(t *testing.T) {
	t.Run("vector count mismatch is an error", func(t *testing.T) {
		repo := newTestRepo(t)
		records := seedRecords(t, repo, 2)

		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0, 0}}, nil
		}

		bp := NewBatchProcessor(repo, embedder, nil, 1, time.Millisecond)
		err := bp.Process(context.Background(), records)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mismatch")
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		bp := NewBatchProcessor(newTestRepo(t), mock.NewMockEmbedder(), nil, 1, time.Millisecond)
		require.NoError(t, bp.Process(context.Background(), nil))
	})
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		sentinel := errors.New("permanent")
		err := RetryWithBackoff(context.Background(), 2, time.Millisecond, func() error {
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("rejects zero attempts", func(t *testing.T) {
		err := RetryWithBackoff(context.Background(), 0, time.Millisecond, func() error { return nil })
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("honours context cancellation between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		err := RetryWithBackoff(ctx, 5, 50*time.Millisecond, func() error {
			attempts++
			cancel()
			return errors.New("transient")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})
}
