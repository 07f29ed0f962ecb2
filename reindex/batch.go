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
	"context"
	"fmt"
	"time"

	"github.com/verdantis/plantid/ai"
	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/ingestion"
	"github.com/verdantis/plantid/storage"
	"github.com/verdantis/plantid/vocab"
)

// BatchProcessor refreshes trait tokens and embeddings for batches of
// corpus records.
type BatchProcessor struct {
	repo       storage.CorpusRepository
	embedder   ai.Embedder
	tokenizer  *vocab.Tokenizer
	maxRetries int
	retryDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// tokenizer may be nil, in which case trait tokens are left as stored.
func NewBatchProcessor(repo storage.CorpusRepository, embedder ai.Embedder, tokenizer *vocab.Tokenizer, maxRetries int, retryDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:       repo,
		embedder:   embedder,
		tokenizer:  tokenizer,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Process re-tokenizes and re-embeds a batch of records and persists the
// result. Embedding calls are retried with exponential backoff.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.CorpusRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		if bp.tokenizer != nil {
			record.TraitTokens = bp.retokenize(record)
		}
		texts[i] = ingestion.ComposeEmbeddingText(record)
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, bp.maxRetries, bp.retryDelay, func() error {
		var embedErr error
		vectors, embedErr = bp.embedder.EmbedTexts(ctx, texts)
		return embedErr
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(vectors) != len(records) {
		return fmt.Errorf("embedding count mismatch: got %d vectors for %d records",
			len(vectors), len(records))
	}

	for i, record := range records {
		record.Vector = ingestion.NormalizeVector(vectors[i])
	}

	if _, err := bp.repo.UpdateRecords(ctx, records...); err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}

	return nil
}

// retokenize rebuilds a record's trait tokens from its key features and
// life form under the current vocabulary. Stored tokens are discarded so
// that removed vocabulary entries do not linger.
func (bp *BatchProcessor) retokenize(record *core.CorpusRecord) []string {
	tokens := bp.tokenizer.TokensFromPhrases(record.KeyFeatures)
	if record.LifeForm != "" {
		if token, _, ok := bp.tokenizer.Tokenize(record.LifeForm); ok {
			tokens = append(tokens, token)
		}
	}

	seen := make(map[string]bool, len(tokens))
	wire := make([]string, 0, len(tokens))
	for _, token := range tokens {
		s := token.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		wire = append(wire, s)
	}
	return wire
}

// RetryWithBackoff executes fn with exponential backoff on failure.
// The delay doubles after each attempt. Returns the last error if all
// attempts fail, or ctx.Err() if the context is cancelled while waiting.
func RetryWithBackoff(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	delay := baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}
