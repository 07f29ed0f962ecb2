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


package plantid

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/verdantis/plantid/ai"
	"github.com/verdantis/plantid/ai/openai"
	"github.com/verdantis/plantid/classify"
	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/ingestion"
	"github.com/verdantis/plantid/rank"
	"github.com/verdantis/plantid/reindex"
	"github.com/verdantis/plantid/storage"
	"github.com/verdantis/plantid/storage/badger"
	"github.com/verdantis/plantid/vocab"
	"github.com/verdantis/plantid/weights"
)

// Engine wires the corpus store, the embedding collaborator, the weight
// model, the classifier and the ranking pipeline into one identification
// service.
type Engine struct {
	backend    *badger.Backend
	corpusRepo storage.CorpusRepository
	provider   ai.Provider
	vocabulary *vocab.Vocabulary
	tokenizer  *vocab.Tokenizer
	weights    *weights.Store
	rankConfig *rank.Config
	ranker     *rank.Ranker
	logger     *slog.Logger

	classifyQueries bool
	queryTimeout    time.Duration
	minSimilarity   float32

	classifierMu sync.Mutex
	classifier   *classify.Classifier
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig        *ai.Config
	rankConfig      *rank.Config
	provider        ai.Provider
	logger          *slog.Logger
	inMemory        bool
	classifyQueries bool
	queryTimeout    time.Duration
	minSimilarity   float32
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithRankConfig sets the ranking heuristic table.
// Default is rank.DefaultConfig().
func WithRankConfig(config *rank.Config) EngineOption {
	return func(o *engineOptions) {
		o.rankConfig = config
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing one
// from the AI configuration. The engine takes ownership and closes it.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithInMemoryStorage keeps the corpus in memory instead of on disk.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithoutClassification disables the plant/non-plant gate. Queries go
// straight to retrieval.
func WithoutClassification() EngineOption {
	return func(o *engineOptions) {
		o.classifyQueries = false
	}
}

// WithQueryTimeout bounds each remote embedding call.
// Default is 15 seconds.
func WithQueryTimeout(timeout time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.queryTimeout = timeout
	}
}

// WithMinSimilarity sets the similarity floor for the raw candidate pool.
func WithMinSimilarity(min float32) EngineOption {
	return func(o *engineOptions) {
		o.minSimilarity = min
	}
}

// NewEngine opens the corpus at filePath and assembles an identification
// engine around it. Call Warm before serving queries to build the weight
// snapshot and the classifier centroids.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:        ai.DefaultConfig(),
		rankConfig:      rank.DefaultConfig(),
		logger:          slog.Default(),
		classifyQueries: true,
		queryTimeout:    15 * time.Second,
		minSimilarity:   0.25,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	corpusRepo, err := badger.NewCorpusRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			corpusRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	vocabulary := vocab.NewDefault()
	tokenizer := vocab.NewTokenizer(vocabulary)
	store := weights.NewStore(vocabulary, options.logger)

	ranker, err := rank.NewRanker(options.rankConfig, store, tokenizer,
		rank.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		corpusRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:         backend,
		corpusRepo:      corpusRepo,
		provider:        provider,
		vocabulary:      vocabulary,
		tokenizer:       tokenizer,
		weights:         store,
		rankConfig:      options.rankConfig,
		ranker:          ranker,
		logger:          options.logger.With("component", "engine"),
		classifyQueries: options.classifyQueries,
		queryTimeout:    options.queryTimeout,
		minSimilarity:   options.minSimilarity,
	}, nil
}

// Close releases the AI provider and the corpus store.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.corpusRepo.Close(); err != nil {
		e.logger.Error("error closing corpus repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Warm builds the weight snapshot from the current corpus and precomputes
// the classifier centroids. Identify works without it, but scores fall back
// to base weights and the first query pays the centroid cost.
func (e *Engine) Warm(ctx context.Context) error {
	if err := e.RecomputeWeights(ctx); err != nil {
		return err
	}
	if e.classifyQueries {
		if _, err := e.ensureClassifier(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeWeights rebuilds the rarity-weight snapshot from a full corpus
// scan and swaps it in atomically.
func (e *Engine) RecomputeWeights(ctx context.Context) error {
	var records []*core.CorpusRecord
	err := e.corpusRepo.AllRecords(ctx, func(record *core.CorpusRecord) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan corpus: %w", err)
	}
	return e.weights.Recompute(ctx, records)
}

// Classify reports which category a query describes and whether it clears
// the plant threshold. Centroids are computed on first use and reused for
// the engine's lifetime.
func (e *Engine) Classify(ctx context.Context, text string) (*classify.Result, error) {
	classifier, err := e.ensureClassifier(ctx)
	if err != nil {
		return nil, err
	}
	return classifier.Classify(ctx, e.provider.Embedder(), text)
}

// ensureClassifier builds the category centroids on first call. A failed
// build is not cached, so a transient embedding outage does not poison the
// engine.
func (e *Engine) ensureClassifier(ctx context.Context) (*classify.Classifier, error) {
	e.classifierMu.Lock()
	defer e.classifierMu.Unlock()

	if e.classifier != nil {
		return e.classifier, nil
	}

	buildCtx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	classifier, err := classify.New(buildCtx, e.provider.Embedder())
	if err != nil {
		return nil, fmt.Errorf("%w: building classifier centroids: %w", ErrUpstreamUnavailable, err)
	}
	e.classifier = classifier
	return classifier, nil
}

type poolFetch struct {
	matches []*core.SearchResult
	err     error
}

// Identify runs the full query path: classification gate, embedding,
// candidate retrieval, and the ranking chain. Results are capped at the
// query's TopK. A query is empty only when it carries no text, no trait
// evidence and no name guesses; a textless query with structured traits or
// guesses still retrieves.
func (e *Engine) Identify(ctx context.Context, query *Query) ([]*core.CandidateScore, error) {
	if query == nil {
		return nil, ErrEmptyQuery
	}
	topK := query.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	text := cleanQueryText(query.Text)
	if text == "" && len(query.TraitPhrases) == 0 &&
		len(query.Observations) == 0 && len(query.NameGuesses) == 0 {
		return nil, ErrEmptyQuery
	}

	if e.classifyQueries && text != "" {
		result, err := e.Classify(ctx, text)
		if err != nil {
			return nil, err
		}
		if !result.IsPlant {
			return nil, fmt.Errorf("%w: classified as %s (plant score %.2f)",
				ErrNotPlant, result.Category, result.PlantScore)
		}
	}

	observations := e.collectObservations(query)
	tokens := 0
	for _, obs := range observations {
		if obs.Known() {
			tokens++
		}
	}

	poolSize := e.rankConfig.PoolMultiplier * topK
	if poolSize < topK {
		poolSize = topK
	}

	// The fruit enrichment pass runs concurrently with the primary
	// retrieval and is purely additive: its failure or timeout degrades to
	// the primary pool alone.
	var secondCh chan poolFetch
	if tokens < e.rankConfig.FewTraitThreshold && mentionsFruit(text) {
		secondCh = make(chan poolFetch, 1)
		go func() {
			secondCh <- e.fetchPool(ctx, fruitFocusText(text), poolSize)
		}()
	}

	primary := e.fetchPool(ctx, e.embeddingText(text, query), poolSize)
	if primary.err != nil {
		return nil, primary.err
	}
	pool := primary.matches

	if secondCh != nil {
		second := <-secondCh
		if second.err != nil {
			e.logger.Warn("fruit enrichment pass failed, using primary pool only", "err", second.err)
		} else {
			pool = mergePools(pool, second.matches)
		}
	}

	pool = e.injectNameGuesses(ctx, pool, query.NameGuesses)

	results := e.ranker.Rank(&rank.Query{Text: text, Observations: observations}, pool)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// fetchPool embeds text and retrieves the raw candidate pool, both under
// the engine's query timeout.
func (e *Engine) fetchPool(ctx context.Context, text string, poolSize int) poolFetch {
	callCtx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	vector, err := e.provider.Embedder().EmbedText(callCtx, text)
	if err != nil {
		return poolFetch{err: fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)}
	}

	matches, err := e.corpusRepo.FindSimilar(callCtx, ingestion.NormalizeVector(vector), e.minSimilarity, poolSize)
	if err != nil {
		return poolFetch{err: fmt.Errorf("similarity search: %w", err)}
	}
	return poolFetch{matches: matches}
}

// embeddingText augments the cleaned query text with trait phrases and name
// guesses so the embedding sees the same evidence the ranker does. A query
// carrying only structured observations embeds their evidence strings.
func (e *Engine) embeddingText(text string, query *Query) string {
	parts := make([]string, 0, 3)
	if text != "" {
		parts = append(parts, text)
	}
	if len(query.TraitPhrases) > 0 {
		parts = append(parts, strings.Join(query.TraitPhrases, "、"))
	}
	if len(query.NameGuesses) > 0 {
		parts = append(parts, strings.Join(query.NameGuesses, "、"))
	}
	if len(parts) == 0 {
		evidence := make([]string, 0, len(query.Observations))
		for _, obs := range query.Observations {
			switch {
			case obs.Evidence != "":
				evidence = append(evidence, obs.Evidence)
			case obs.Known():
				evidence = append(evidence, obs.Value)
			}
		}
		parts = append(parts, strings.Join(evidence, "、"))
	}
	return strings.Join(parts, "\n")
}

// collectObservations merges caller-supplied observations with observations
// tokenized from raw trait phrases. Caller observations win per dimension.
// When the query names its visible parts, flower and fruit observations are
// subject to the visibility rules.
func (e *Engine) collectObservations(query *Query) []core.TraitObservation {
	supplied := query.Observations
	if query.VisibleParts != nil {
		allowed := make(map[core.TraitToken]bool)
		for _, token := range e.tokenizer.TokensFromObservations(supplied, query.VisibleParts) {
			allowed[token] = true
		}
		filtered := make([]core.TraitObservation, 0, len(supplied))
		for _, obs := range supplied {
			if token, ok := obs.Token(); ok && !allowed[token] {
				continue
			}
			filtered = append(filtered, obs)
		}
		supplied = filtered
	}

	observations := make([]core.TraitObservation, 0, len(supplied)+len(query.TraitPhrases))
	dims := make(map[string]bool, len(supplied))
	for _, obs := range supplied {
		observations = append(observations, obs)
		dims[obs.Dimension] = true
	}

	for _, phrase := range query.TraitPhrases {
		token, _, ok := e.tokenizer.Tokenize(phrase)
		if !ok {
			e.logger.Debug("trait phrase did not tokenize", "phrase", phrase)
			continue
		}
		if dims[token.Dimension] {
			continue
		}
		dims[token.Dimension] = true
		observations = append(observations, core.TraitObservation{
			Dimension:  token.Dimension,
			Value:      token.Value,
			Confidence: 1.0,
			Evidence:   phrase,
		})
	}
	return observations
}

// nameFinder is the optional lookup the badger repository provides beyond
// the storage interface.
type nameFinder interface {
	FindByName(ctx context.Context, name string) (*core.CorpusRecord, error)
}

// injectNameGuesses adds corpus records matching upstream name guesses to
// the pool. Injected candidates enter at the pool's weakest embedding score
// and must earn their rank through trait evidence.
func (e *Engine) injectNameGuesses(ctx context.Context, pool []*core.SearchResult, guesses []string) []*core.SearchResult {
	if len(guesses) == 0 {
		return pool
	}
	finder, ok := e.corpusRepo.(nameFinder)
	if !ok {
		return pool
	}

	present := make(map[core.ID]bool, len(pool))
	floor := float32(0.5)
	for _, match := range pool {
		present[match.Record.Id] = true
		if match.Score < floor {
			floor = match.Score
		}
	}

	for _, guess := range guesses {
		record, err := finder.FindByName(ctx, guess)
		if err != nil {
			e.logger.Debug("name guess not in corpus", "guess", guess, "err", err)
			continue
		}
		if present[record.Id] {
			continue
		}
		present[record.Id] = true
		pool = append(pool, &core.SearchResult{Record: record, Score: floor})
	}
	return pool
}

// mergePools unions two candidate pools, keeping the higher embedding score
// for records present in both.
func mergePools(primary, second []*core.SearchResult) []*core.SearchResult {
	index := make(map[core.ID]*core.SearchResult, len(primary))
	for _, match := range primary {
		index[match.Record.Id] = match
	}
	merged := primary
	for _, match := range second {
		if existing, ok := index[match.Record.Id]; ok {
			if match.Score > existing.Score {
				existing.Score = match.Score
			}
			continue
		}
		index[match.Record.Id] = match
		merged = append(merged, match)
	}
	return merged
}

// CorpusRepository exposes the underlying corpus store.
func (e *Engine) CorpusRepository() storage.CorpusRepository {
	return e.corpusRepo
}

// Tokenizer exposes the trait tokenizer backing the engine's vocabulary.
func (e *Engine) Tokenizer() *vocab.Tokenizer {
	return e.tokenizer
}

// Vocabulary exposes the trait vocabulary table.
func (e *Engine) Vocabulary() *vocab.Vocabulary {
	return e.vocabulary
}

// Weights exposes the rarity-weight store.
func (e *Engine) Weights() *weights.Store {
	return e.weights
}

// NewIngestionPipeline creates an ingestion pipeline sharing the engine's
// corpus store, tokenizer and embedding provider.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.corpusRepo, e.tokenizer, e.provider, opts...)
}

// NewReindexer creates a reindexer over the engine's corpus store.
func (e *Engine) NewReindexer(config *reindex.Config, progress io.Writer) *reindex.Reindexer {
	return reindex.NewReindexer(e.corpusRepo, e.provider.Embedder(), e.tokenizer, config, progress)
}
