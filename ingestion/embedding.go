package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/verdantis/plantid/ai"
	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/storage"
)

// embeddingProcessor generates embeddings for corpus records.
type embeddingProcessor struct {
	corpusRepository storage.CorpusRepository
	embedder         ai.Embedder
	logger           *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(corpusRepository storage.CorpusRepository, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if corpusRepository == nil {
		return nil, ErrCorpusRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		corpusRepository: corpusRepository,
		embedder:         embedder,
		logger:           logger.With("processor", "embeddings"),
	}, nil
}

// process generates embeddings for the specified corpus records.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...core.ID) error {
	ep.logger.Info("processing records for embeddings", "records", len(ids))

	records, err := ep.corpusRepository.GetRecords(ctx, ids...)
	if err != nil {
		ep.logger.Error("error retrieving corpus records", "err", err)
		return err
	}
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = ComposeEmbeddingText(record)
	}

	ep.logger.Debug("generating embeddings for corpus records", "records", len(texts))
	vectors, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(vectors) != len(records) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(records), len(vectors))
	}

	for i := range vectors {
		records[i].Vector = NormalizeVector(vectors[i])
	}

	_, err = ep.corpusRepository.UpdateRecords(ctx, records...)
	return err
}

// ComposeEmbeddingText builds the text embedded for a corpus record: names,
// family, morphology summary, and key features joined into one passage.
func ComposeEmbeddingText(record *core.CorpusRecord) string {
	parts := make([]string, 0, 5)
	if record.CommonName != "" {
		parts = append(parts, record.CommonName)
	}
	if record.ScientificName != "" {
		parts = append(parts, record.ScientificName)
	}
	if record.Family != "" {
		parts = append(parts, record.Family)
	}
	if record.Summary != "" {
		parts = append(parts, record.Summary)
	}
	if len(record.KeyFeatures) > 0 {
		parts = append(parts, strings.Join(record.KeyFeatures, "、"))
	}
	return strings.Join(parts, "\n")
}

// NormalizeVector scales a vector to unit length so the store's dot product
// equals cosine similarity. Zero vectors are returned unchanged.
func NormalizeVector(vector []float32) []float32 {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vector
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] *= inv
	}
	return vector
}
