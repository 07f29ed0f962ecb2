package plantid

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantis/plantid/ai/mock"
	"github.com/verdantis/plantid/core"
)

// routingEmbedder maps texts onto fixed axes: plant wording lands on axis 0,
// animal on axis 1, everything else on axis 7. Category centroids then sit
// exactly on their axis and record vectors can be seeded so that their axis-0
// component is the embedding score a query will see.
func routingEmbedder() *mock.MockEmbedder {
	plantMarkers := []string{
		"植物", "花", "樹", "草", "葉", "果", "種子", "灌木", "藤", "蕨", "苔", "藻",
		"plant", "flower", "tree", "leaf", "fruit", "botanical",
	}
	animalMarkers := []string{
		"動物", "鳥", "魚", "蟲", "獸", "哺乳", "爬蟲", "兩棲", "昆", "寵物", "海洋",
		"狗", "animal", "bird", "fish", "insect",
	}

	embed := func(text string) []float32 {
		lower := strings.ToLower(text)
		vec := make([]float32, 8)
		for _, marker := range plantMarkers {
			if strings.Contains(lower, marker) {
				vec[0] = 1
				return vec
			}
		}
		for _, marker := range animalMarkers {
			if strings.Contains(lower, marker) {
				vec[1] = 1
				return vec
			}
		}
		vec[7] = 1
		return vec
	}

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return embed(text), nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = embed(text)
		}
		return out, nil
	}
	return embedder
}

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{
		WithInMemoryStorage(),
		WithProvider(mock.NewMockProviderWithEmbedder(routingEmbedder())),
	}, opts...)
	engine, err := NewEngine("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = engine.Close()
	})
	return engine
}

// seedSpecies stores a record whose axis-0 vector component becomes its
// embedding score for any plant query under the routing embedder.
func seedSpecies(t *testing.T, engine *Engine, scientific, common string, embeddingScore float32, traitTokens ...string) *core.CorpusRecord {
	t.Helper()
	vec := make([]float32, 8)
	vec[0] = embeddingScore
	record := &core.CorpusRecord{
		ScientificName: scientific,
		CommonName:     common,
		TraitTokens:    traitTokens,
		Vector:         vec,
	}
	_, err := engine.CorpusRepository().AddRecords(context.Background(), record)
	require.NoError(t, err)
	return record
}

func TestNewEngine(t *testing.T) {
	t.Run("create on-disk engine", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "corpus")
		engine, err := NewEngine(dir)
		require.NoError(t, err)
		require.NotNil(t, engine)
		defer engine.Close()

		assert.NotNil(t, engine.CorpusRepository())
		assert.NotNil(t, engine.Tokenizer())
		assert.NotNil(t, engine.Weights())
	})

	t.Run("factory methods", func(t *testing.T) {
		engine := newTestEngine(t)

		pipeline, err := engine.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()

		assert.NotNil(t, engine.NewReindexer(nil, &strings.Builder{}))
	})
}

func TestIdentify(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty query", func(t *testing.T) {
		engine := newTestEngine(t)
		_, err := engine.Identify(ctx, &Query{Text: "   "})
		assert.ErrorIs(t, err, ErrEmptyQuery)
		_, err = engine.Identify(ctx, nil)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("textless query with evidence still retrieves", func(t *testing.T) {
		engine := newTestEngine(t)
		guessed := seedSpecies(t, engine, "Rhizophora stylosa", "紅海欖", 0.9,
			"leaf_arrangement=opposite")
		require.NoError(t, engine.Warm(ctx))

		// A name guess alone is not an empty query: the guess is injected
		// into the pool even when similarity retrieval finds nothing.
		results, err := engine.Identify(ctx, &Query{
			NameGuesses: []string{"Rhizophora stylosa"},
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, guessed.Id, results[0].Record.Id)
	})

	t.Run("classifier gates out non-plant queries", func(t *testing.T) {
		engine := newTestEngine(t)
		_, err := engine.Identify(ctx, &Query{Text: "一隻狗在跑"})
		assert.ErrorIs(t, err, ErrNotPlant)
	})

	t.Run("classification can be disabled", func(t *testing.T) {
		engine := newTestEngine(t, WithoutClassification())
		results, err := engine.Identify(ctx, &Query{Text: "一隻狗在跑"})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("ranks candidates by embedding score", func(t *testing.T) {
		engine := newTestEngine(t)
		seedSpecies(t, engine, "Kandelia obovata", "水筆仔", 0.9)
		seedSpecies(t, engine, "Avicennia marina", "海茄苳", 0.7)
		seedSpecies(t, engine, "Lumnitzera racemosa", "欖李", 0.5)
		require.NoError(t, engine.Warm(ctx))

		results, err := engine.Identify(ctx, &Query{Text: "海邊的樹", TopK: 2})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Kandelia obovata", results[0].Record.ScientificName)
		assert.Equal(t, "Avicennia marina", results[1].Record.ScientificName)
		for _, result := range results {
			assert.True(t, result.GatePassed)
			assert.InDelta(t, result.EmbeddingScore, result.Score, 1e-9,
				"no query traits means the score is the embedding score")
		}
	})

	t.Run("trait evidence reorders the pool", func(t *testing.T) {
		engine := newTestEngine(t)
		seedSpecies(t, engine, "Kandelia obovata", "水筆仔", 0.80,
			"leaf_arrangement=alternate")
		matching := seedSpecies(t, engine, "Rhizophora stylosa", "紅海欖", 0.78,
			"leaf_arrangement=opposite", "trunk_root=aerial_root", "special_features=viviparous", "leaf_margin=entire")
		require.NoError(t, engine.Warm(ctx))

		results, err := engine.Identify(ctx, &Query{
			Text:         "海邊的樹",
			TraitPhrases: []string{"對生", "支柱根", "胎生苗", "全緣"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, matching.Id, results[0].Record.Id)
		assert.NotEmpty(t, results[0].MatchedTraits)
	})

	t.Run("name guesses join the pool", func(t *testing.T) {
		engine := newTestEngine(t)
		seedSpecies(t, engine, "Kandelia obovata", "水筆仔", 0.9)
		// below the similarity floor, only reachable via the guess
		guessed := seedSpecies(t, engine, "Barringtonia asiatica", "棋盤腳樹", 0.1)
		require.NoError(t, engine.Warm(ctx))

		results, err := engine.Identify(ctx, &Query{
			Text:        "海邊的樹",
			NameGuesses: []string{"Barringtonia asiatica"},
		})
		require.NoError(t, err)

		found := false
		for _, result := range results {
			if result.Record.Id == guessed.Id {
				found = true
			}
		}
		assert.True(t, found, "guessed species should be in the results")
		assert.Equal(t, "Kandelia obovata", results[0].Record.ScientificName,
			"injected candidates enter at the pool floor")
	})

	t.Run("unseen organs do not penalize", func(t *testing.T) {
		engine := newTestEngine(t)
		seedSpecies(t, engine, "Kandelia obovata", "水筆仔", 0.9,
			"flower_color=red")
		require.NoError(t, engine.Warm(ctx))

		flowerObs := []core.TraitObservation{
			{Dimension: "flower_color", Value: "purple", Confidence: 0.9},
		}

		seen, err := engine.Identify(ctx, &Query{
			Text:         "海邊的樹",
			Observations: flowerObs,
			VisibleParts: []string{"flower"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, seen)
		assert.Contains(t, seen[0].Penalties, "soft:color_group")

		unseen, err := engine.Identify(ctx, &Query{
			Text:         "海邊的樹",
			Observations: flowerObs,
			VisibleParts: []string{"leaf"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, unseen)
		assert.Empty(t, unseen[0].Penalties,
			"a flower guess from a leaf photo is discarded")
	})

	t.Run("fruit wording triggers the enrichment pass", func(t *testing.T) {
		embedder := routingEmbedder()
		engine := newTestEngine(t, WithProvider(mock.NewMockProviderWithEmbedder(embedder)))
		seedSpecies(t, engine, "Kandelia obovata", "水筆仔", 0.9)
		require.NoError(t, engine.Warm(ctx))

		before := embedder.CallCount()
		_, err := engine.Identify(ctx, &Query{Text: "海邊的樹"})
		require.NoError(t, err)
		plain := embedder.CallCount() - before

		before = embedder.CallCount()
		_, err = engine.Identify(ctx, &Query{Text: "海邊的樹，結出長長的莢果"})
		require.NoError(t, err)
		fruity := embedder.CallCount() - before

		assert.Equal(t, plain+1, fruity,
			"a fruit query with few traits adds one embedding call")
	})

	t.Run("embedding failure surfaces as upstream error", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("connection refused")
		}
		engine := newTestEngine(t,
			WithProvider(mock.NewMockProviderWithEmbedder(embedder)),
			WithoutClassification())

		_, err := engine.Identify(ctx, &Query{Text: "海邊的樹"})
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})
}

func TestMergePools(t *testing.T) {
	a := &core.CorpusRecord{Id: 1}
	b := &core.CorpusRecord{Id: 2}
	c := &core.CorpusRecord{Id: 3}

	primary := []*core.SearchResult{
		{Record: a, Score: 0.9},
		{Record: b, Score: 0.6},
	}
	second := []*core.SearchResult{
		{Record: b, Score: 0.8},
		{Record: c, Score: 0.7},
	}

	merged := mergePools(primary, second)
	require.Len(t, merged, 3)

	scores := make(map[core.ID]float32, len(merged))
	for _, match := range merged {
		scores[match.Record.Id] = match.Score
	}
	assert.Equal(t, float32(0.9), scores[1])
	assert.Equal(t, float32(0.8), scores[2], "overlap keeps the higher score")
	assert.Equal(t, float32(0.7), scores[3])
}
