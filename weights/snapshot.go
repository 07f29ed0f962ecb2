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


package weights

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/vocab"
)

// Rarity coefficient bounds. A value seen in nearly every record bottoms out
// at 0.2; a near-unique value saturates at 2.5 so a single rarity cannot
// swamp the embedding signal.
const (
	minRarityCoef = 0.2
	maxRarityCoef = 2.5
)

// ValueStats holds the corpus statistics for one canonical trait value.
type ValueStats struct {
	DocumentFrequency int
	IDF               float64
	RarityCoef        float64
}

// Snapshot is the read-only result of a full corpus pass: per-value document
// frequencies and the derived rarity coefficients. Built once, never
// partially updated; a corpus change requires a full recompute.
type Snapshot struct {
	corpusSize int
	stats      map[core.TraitToken]ValueStats
	vocabulary *vocab.Vocabulary
	tokenizer  *vocab.Tokenizer
}

// Empty returns a snapshot with no corpus statistics. Every value gets the
// neutral rarity coefficient 1.0; weights degrade gracefully at start of
// life.
func Empty(vocabulary *vocab.Vocabulary) *Snapshot {
	return &Snapshot{
		stats:      make(map[core.TraitToken]ValueStats),
		vocabulary: vocabulary,
		tokenizer:  vocab.NewTokenizer(vocabulary),
	}
}

// BuildOption configures a snapshot build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	poolSize int
	logger   *slog.Logger
}

// WithPoolSize sets the worker pool size for the corpus scan.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) BuildOption {
	return func(c *buildConfig) {
		if size < 1 {
			size = 1
		}
		c.poolSize = size
	}
}

// WithLogger sets a custom logger for the build.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Build runs a full corpus pass and returns a new snapshot. The scan is
// O(corpus size x average description length) and uses a worker pool; the
// result is deterministic, so building twice on an unchanged corpus yields
// identical statistics.
func Build(ctx context.Context, records []*core.CorpusRecord, vocabulary *vocab.Vocabulary, opts ...BuildOption) (*Snapshot, error) {
	cfg := &buildConfig{
		poolSize: max(runtime.NumCPU()/2, 1),
		logger:   slog.Default().With("component", "weights"),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	snapshot := &Snapshot{
		corpusSize: len(records),
		stats:      make(map[core.TraitToken]ValueStats),
		vocabulary: vocabulary,
		tokenizer:  vocab.NewTokenizer(vocabulary),
	}

	pool, err := ants.NewPool(cfg.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
		df = make(map[core.TraitToken]int)
	)

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record := record
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			found := snapshot.recordValues(record)
			if len(found) == 0 {
				return
			}
			mu.Lock()
			for token := range found {
				df[token]++
			}
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			return nil, submitErr
		}
	}
	wg.Wait()

	n := float64(snapshot.corpusSize)
	for token, count := range df {
		idf := math.Log((n + 1) / (float64(count) + 1))
		snapshot.stats[token] = ValueStats{
			DocumentFrequency: count,
			IDF:               idf,
			RarityCoef:        clamp(minRarityCoef, maxRarityCoef, idf/2),
		}
	}

	cfg.logger.Info("weight snapshot built", "corpusSize", snapshot.corpusSize, "values", len(snapshot.stats))
	return snapshot, nil
}

// recordValues collects the set of canonical values detected in one record:
// its stored trait tokens, its tokenized key features, and synonym scans of
// the life-form field and summary text.
func (s *Snapshot) recordValues(record *core.CorpusRecord) map[core.TraitToken]bool {
	found := make(map[core.TraitToken]bool)

	for _, token := range record.Tokens() {
		if _, _, ok := s.vocabulary.Bounds(token); ok {
			found[token] = true
		}
	}

	for _, token := range s.tokenizer.TokensFromPhrases(record.KeyFeatures) {
		found[token] = true
	}

	if record.LifeForm != "" {
		if token, _, ok := s.tokenizer.Tokenize(record.LifeForm); ok {
			found[token] = true
		}
	}

	if record.Summary != "" {
		text := strings.ToLower(record.Summary)
		for _, dim := range s.vocabulary.Dimensions() {
			for _, val := range dim.Values {
				token := core.TraitToken{Dimension: dim.ID, Value: val.Canonical}
				if found[token] {
					continue
				}
				for _, syn := range val.Synonyms {
					// Single-character cues are too noisy for free text.
					if len([]rune(syn)) < 2 {
						continue
					}
					if strings.Contains(text, strings.ToLower(syn)) {
						found[token] = true
						break
					}
				}
			}
		}
	}

	return found
}

// CorpusSize returns the number of records the snapshot was built from.
func (s *Snapshot) CorpusSize() int {
	return s.corpusSize
}

// Stats returns the statistics for one canonical value. ok is false for
// values never seen in the corpus.
func (s *Snapshot) Stats(token core.TraitToken) (ValueStats, bool) {
	stats, ok := s.stats[token]
	return stats, ok
}

// RarityCoef returns the rarity coefficient for a value. Values absent from
// the snapshot default to the neutral 1.0.
func (s *Snapshot) RarityCoef(token core.TraitToken) float64 {
	if stats, ok := s.stats[token]; ok {
		return stats.RarityCoef
	}
	return 1.0
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
