package ingestion

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/verdantis/plantid/ai"
	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/storage"
	"github.com/verdantis/plantid/vocab"
)

// Pipeline orchestrates the ingestion of species corpus records.
// Records are validated, tokenized, and stored synchronously; embedding
// generation runs asynchronously on a worker pool.
type Pipeline struct {
	corpusRepository storage.CorpusRepository
	tokenizer        *vocab.Tokenizer
	embeddingPool    *ants.Pool
	embeddingProc    processor
	logger           *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.embeddingPool = embeddingPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	corpusRepository storage.CorpusRepository,
	tokenizer *vocab.Tokenizer,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if corpusRepository == nil {
		return nil, ErrCorpusRepositoryRequired
	}
	if tokenizer == nil {
		return nil, ErrTokenizerRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	logger := slog.Default()

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		corpusRepository: corpusRepository,
		tokenizer:        tokenizer,
		embeddingPool:    embeddingPool,
		logger:           logger,
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	embeddingProc, err := newEmbeddingProcessor(corpusRepository, provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// Ingest validates and stores species records, then submits them for
// asynchronous embedding. Trait tokens are derived from each record's key
// features and life form before storage, so the ranking pipeline never has
// to tokenize corpus data per query.
// Errors during async processing are logged but do not fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, records ...*core.CorpusRecord) ([]*core.CorpusRecord, error) {
	for _, record := range records {
		if err := core.ValidateCorpusRecord(record); err != nil {
			return nil, err
		}
		p.tokenizeRecord(record)
	}

	added, err := p.corpusRepository.AddRecords(ctx, records...)
	if err != nil {
		return nil, err
	}

	if len(added) == 0 {
		return added, nil
	}

	ids := make([]core.ID, len(added))
	for i, record := range added {
		ids[i] = record.Id
	}

	p.embeddingPool.Submit(func() {
		if err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
		}
	})

	return added, nil
}

// tokenizeRecord fills the record's canonical trait tokens from its key
// feature phrases and life form, preserving any tokens already present.
func (p *Pipeline) tokenizeRecord(record *core.CorpusRecord) {
	seen := make(map[string]bool, len(record.TraitTokens))
	for _, raw := range record.TraitTokens {
		seen[raw] = true
	}

	add := func(token core.TraitToken) {
		wire := token.String()
		if !seen[wire] {
			seen[wire] = true
			record.TraitTokens = append(record.TraitTokens, wire)
		}
	}

	for _, token := range p.tokenizer.TokensFromPhrases(record.KeyFeatures) {
		add(token)
	}
	if record.LifeForm != "" {
		if token, _, ok := p.tokenizer.Tokenize(record.LifeForm); ok {
			add(token)
		}
	}

	if unmatched := p.tokenizer.Unmatched(record.KeyFeatures); len(unmatched) > 0 {
		p.logger.Debug("unmatched feature phrases",
			"species", record.ScientificName, "phrases", unmatched)
	}
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
