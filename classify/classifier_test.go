package classify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantis/plantid/ai/mock"
)

// axisEmbedder maps texts onto fixed axes so category centroids land in
// predictable places: every plant anchor on axis 0, every animal anchor on
// axis 1, and so on. The marker lists must cover the whole anchor table or
// stray phrases dilute their centroid onto the fallback axis.
func axisEmbedder() *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()

	markers := []struct {
		axis int
		cues []string
	}{
		{0, []string{"植物", "花", "樹", "草", "葉", "果實", "種子", "灌木", "藤",
			"蕨", "苔", "藻", "plant", "flower", "tree", "leaf", "fruit", "botanical"}},
		{1, []string{"動物", "鳥", "魚", "蟲", "獸", "哺乳", "兩棲", "昆蟲", "寵物",
			"海洋生物", "animal", "bird", "fish", "insect"}},
		{2, []string{"建築", "房子", "車", "機器", "工具", "家具", "電器", "人造物",
			"橋", "道路", "雕像", "藝術品", "building", "machine", "tool"}},
		{3, []string{"食物", "料理", "菜", "飲料", "水果", "蔬菜", "肉類", "甜點",
			"food", "dish", "cuisine", "meal"}},
	}

	axisFor := func(text string) int {
		for _, m := range markers {
			for _, cue := range m.cues {
				if strings.Contains(text, cue) {
					return m.axis
				}
			}
		}
		return 4
	}

	embed := func(text string) []float32 {
		vec := make([]float32, 8)
		vec[axisFor(text)] = 1
		return vec
	}

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

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("computes one centroid per category", func(t *testing.T) {
		classifier, err := New(ctx, axisEmbedder())
		require.NoError(t, err)
		assert.Len(t, classifier.centroids, len(Categories()))
	})

	t.Run("rejects out-of-range threshold", func(t *testing.T) {
		_, err := New(ctx, axisEmbedder(), WithPlantThreshold(1.5))
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	embedder := axisEmbedder()
	classifier, err := New(ctx, embedder, WithPlantThreshold(0.5))
	require.NoError(t, err)

	t.Run("plant query is plant", func(t *testing.T) {
		result, err := classifier.Classify(ctx, embedder, "紅色的花")
		require.NoError(t, err)
		assert.Equal(t, CategoryPlant, result.Category)
		assert.True(t, result.IsPlant)
		assert.Greater(t, result.PlantScore, float32(0.5))
	})

	t.Run("animal query is not plant", func(t *testing.T) {
		result, err := classifier.Classify(ctx, embedder, "一隻animal")
		require.NoError(t, err)
		assert.Equal(t, CategoryAnimal, result.Category)
		assert.False(t, result.IsPlant)
	})

	t.Run("scores cover all categories", func(t *testing.T) {
		result, err := classifier.Classify(ctx, embedder, "紅色的花")
		require.NoError(t, err)
		assert.Len(t, result.Scores, len(Categories()))
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		_, err := classifier.Classify(ctx, embedder, "")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}

func TestClassifyVector(t *testing.T) {
	ctx := context.Background()
	classifier, err := New(ctx, axisEmbedder(), WithPlantThreshold(0.5))
	require.NoError(t, err)

	t.Run("plant threshold is independent of winner", func(t *testing.T) {
		// A vector leaning toward animal but with enough plant signal
		// still counts as plant.
		vec := make([]float32, 8)
		vec[0] = 0.8
		vec[1] = 1.0

		result, err := classifier.ClassifyVector(vec)
		require.NoError(t, err)
		assert.Equal(t, CategoryAnimal, result.Category)
		assert.True(t, result.IsPlant)
	})

	t.Run("empty vector is rejected", func(t *testing.T) {
		_, err := classifier.ClassifyVector(nil)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}), 1e-6)
}
