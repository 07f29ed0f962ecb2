package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantis/plantid/ai/mock"
	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/storage/badger"
	"github.com/verdantis/plantid/vocab"
)

func newTestPipeline(t *testing.T) (*Pipeline, interface {
	GetRecord(ctx context.Context, id core.ID) (*core.CorpusRecord, error)
}) {
	t.Helper()

	repo, backend, err := badger.NewMemoryCorpusRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	tokenizer := vocab.NewTokenizer(vocab.NewDefault())
	pipeline, err := NewPipeline(repo, tokenizer, mock.NewMockProvider())
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, repo
}

func TestNewPipeline(t *testing.T) {
	repo, backend, err := badger.NewMemoryCorpusRepository()
	require.NoError(t, err)
	defer backend.Close()
	tokenizer := vocab.NewTokenizer(vocab.NewDefault())

	t.Run("requires repository", func(t *testing.T) {
		_, err := NewPipeline(nil, tokenizer, mock.NewMockProvider())
		assert.ErrorIs(t, err, ErrCorpusRepositoryRequired)
	})

	t.Run("requires tokenizer", func(t *testing.T) {
		_, err := NewPipeline(repo, nil, mock.NewMockProvider())
		assert.ErrorIs(t, err, ErrTokenizerRequired)
	})

	t.Run("requires provider", func(t *testing.T) {
		_, err := NewPipeline(repo, tokenizer, nil)
		assert.ErrorIs(t, err, ErrProviderRequired)
	})
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("stores record with derived trait tokens", func(t *testing.T) {
		pipeline, repo := newTestPipeline(t)

		record := &core.CorpusRecord{
			ScientificName: "Rhizophora stylosa",
			CommonName:     "紅海欖",
			LifeForm:       "喬木",
			Summary:        "紅樹林樹種",
			KeyFeatures:    []string{"支柱根", "胎生苗", "對生"},
		}

		added, err := pipeline.Ingest(ctx, record)
		require.NoError(t, err)
		require.Len(t, added, 1)

		stored, err := repo.GetRecord(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Contains(t, stored.TraitTokens, "trunk_root=aerial_root")
		assert.Contains(t, stored.TraitTokens, "special_features=viviparous")
		assert.Contains(t, stored.TraitTokens, "leaf_arrangement=opposite")
		assert.Contains(t, stored.TraitTokens, "life_form=tree")
	})

	t.Run("embeds record asynchronously", func(t *testing.T) {
		pipeline, repo := newTestPipeline(t)

		added, err := pipeline.Ingest(ctx, &core.CorpusRecord{
			ScientificName: "Kandelia obovata",
			Summary:        "河口紅樹林",
		})
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			stored, err := repo.GetRecord(ctx, added[0].Id)
			return err == nil && len(stored.Vector) > 0
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("rejects invalid records", func(t *testing.T) {
		pipeline, _ := newTestPipeline(t)

		_, err := pipeline.Ingest(ctx, &core.CorpusRecord{Summary: "no identity"})
		assert.ErrorIs(t, err, core.ErrInvalidCorpusRecord)
	})

	t.Run("preserves existing trait tokens", func(t *testing.T) {
		pipeline, repo := newTestPipeline(t)

		record := &core.CorpusRecord{
			ScientificName: "Barringtonia asiatica",
			TraitTokens:    []string{"fruit_shape=globose"},
			KeyFeatures:    []string{"全緣"},
		}

		added, err := pipeline.Ingest(ctx, record)
		require.NoError(t, err)

		stored, err := repo.GetRecord(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Contains(t, stored.TraitTokens, "fruit_shape=globose")
		assert.Contains(t, stored.TraitTokens, "leaf_margin=entire")
	})
}

func TestComposeEmbeddingText(t *testing.T) {
	record := &core.CorpusRecord{
		ScientificName: "Rhizophora stylosa",
		CommonName:     "紅海欖",
		Family:         "Rhizophoraceae",
		Summary:        "紅樹林樹種",
		KeyFeatures:    []string{"支柱根", "胎生苗"},
	}

	text := ComposeEmbeddingText(record)
	assert.Contains(t, text, "紅海欖")
	assert.Contains(t, text, "Rhizophora stylosa")
	assert.Contains(t, text, "支柱根、胎生苗")

	t.Run("empty fields are skipped", func(t *testing.T) {
		text := ComposeEmbeddingText(&core.CorpusRecord{ScientificName: "X y"})
		assert.Equal(t, "X y", text)
	})
}

func TestNormalizeVector(t *testing.T) {
	normalized := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, normalized[0], 1e-6)
	assert.InDelta(t, 0.8, normalized[1], 1e-6)

	t.Run("zero vector unchanged", func(t *testing.T) {
		zero := NormalizeVector([]float32{0, 0})
		assert.Equal(t, []float32{0, 0}, zero)
	})
}
