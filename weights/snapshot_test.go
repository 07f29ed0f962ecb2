package weights

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/vocab"
)

func record(tokens ...string) *core.CorpusRecord {
	return &core.CorpusRecord{
		ScientificName: "Testus plantus",
		TraitTokens:    tokens,
	}
}

func TestBuildStats(t *testing.T) {
	vocabulary := vocab.NewDefault()

	// whorled appears in 1 of 4 records, alternate in 3 of 4.
	records := []*core.CorpusRecord{
		record("leaf_arrangement=whorled", "leaf_arrangement=alternate"),
		record("leaf_arrangement=alternate"),
		record("leaf_arrangement=alternate"),
		record("flower_color=white"),
	}

	snapshot, err := Build(context.Background(), records, vocabulary)
	require.NoError(t, err)
	assert.Equal(t, 4, snapshot.CorpusSize())

	whorled := core.TraitToken{Dimension: "leaf_arrangement", Value: "whorled"}
	alternate := core.TraitToken{Dimension: "leaf_arrangement", Value: "alternate"}

	stats, ok := snapshot.Stats(whorled)
	require.True(t, ok)
	assert.Equal(t, 1, stats.DocumentFrequency)
	assert.InDelta(t, math.Log(5.0/2.0), stats.IDF, 1e-9)

	// Higher df means lower rarity.
	assert.Greater(t, snapshot.RarityCoef(whorled), snapshot.RarityCoef(alternate))
}

func TestBuildIdempotent(t *testing.T) {
	vocabulary := vocab.NewDefault()
	records := []*core.CorpusRecord{
		record("leaf_arrangement=whorled"),
		record("leaf_arrangement=alternate", "flower_color=purple"),
		{ScientificName: "Ficus microcarpa", Summary: "常綠喬木，具氣生根，葉互生全緣"},
	}

	first, err := Build(context.Background(), records, vocabulary)
	require.NoError(t, err)
	second, err := Build(context.Background(), records, vocabulary)
	require.NoError(t, err)

	for _, dim := range vocabulary.Dimensions() {
		for _, val := range dim.Values {
			token := core.TraitToken{Dimension: dim.ID, Value: val.Canonical}
			a, aok := first.Stats(token)
			b, bok := second.Stats(token)
			assert.Equal(t, aok, bok, token.String())
			assert.Equal(t, a, b, token.String())
		}
	}
}

func TestBuildScansSummaries(t *testing.T) {
	vocabulary := vocab.NewDefault()
	records := []*core.CorpusRecord{
		{ScientificName: "Ficus microcarpa", Summary: "常綠喬木，具氣生根與板根，葉互生，全緣革質"},
	}

	snapshot, err := Build(context.Background(), records, vocabulary)
	require.NoError(t, err)

	for _, raw := range []string{
		"trunk_root=aerial_root",
		"trunk_root=buttress",
		"leaf_arrangement=alternate",
		"leaf_margin=entire",
	} {
		token, ok := core.ParseTraitToken(raw)
		require.True(t, ok)
		stats, found := snapshot.Stats(token)
		assert.True(t, found, raw)
		assert.Equal(t, 1, stats.DocumentFrequency, raw)
	}
}

func TestWeightBounds(t *testing.T) {
	vocabulary := vocab.NewDefault()

	// df=1 of many records pushes idf high; the cap must still hold.
	records := []*core.CorpusRecord{record("special_features=viviparous")}
	for i := 0; i < 200; i++ {
		records = append(records, record("leaf_arrangement=alternate"))
	}

	snapshot, err := Build(context.Background(), records, vocabulary)
	require.NoError(t, err)

	for _, dim := range vocabulary.Dimensions() {
		for _, val := range dim.Values {
			token := core.TraitToken{Dimension: dim.ID, Value: val.Canonical}
			weight := snapshot.Weight(token)
			assert.GreaterOrEqual(t, weight, 0.0, token.String())
			assert.LessOrEqual(t, weight, val.WeightCap, token.String())
		}
	}

	// The viviparous rarity saturates at its cap.
	viviparous := core.TraitToken{Dimension: "special_features", Value: "viviparous"}
	assert.Equal(t, 0.30, snapshot.Weight(viviparous))
}

func TestWeightMonotoneInDF(t *testing.T) {
	vocabulary := vocab.NewDefault()
	whorled := core.TraitToken{Dimension: "leaf_arrangement", Value: "whorled"}

	previous := math.Inf(1)
	for _, df := range []int{1, 5, 20, 80} {
		records := make([]*core.CorpusRecord, 0, 100)
		for i := 0; i < df; i++ {
			records = append(records, record("leaf_arrangement=whorled"))
		}
		for i := df; i < 100; i++ {
			records = append(records, record("flower_color=white"))
		}

		snapshot, err := Build(context.Background(), records, vocabulary)
		require.NoError(t, err)

		coef := snapshot.RarityCoef(whorled)
		assert.LessOrEqual(t, coef, previous, "df=%d", df)
		previous = coef
	}
}

func TestEmptySnapshotDefaults(t *testing.T) {
	vocabulary := vocab.NewDefault()
	snapshot := Empty(vocabulary)

	token := core.TraitToken{Dimension: "fruit_type", Value: "pod"}
	assert.Equal(t, 1.0, snapshot.RarityCoef(token))
	// coef 1.0: weight = min(base*1, cap) = base
	assert.Equal(t, 0.08, snapshot.Weight(token))
	assert.Equal(t, 0.0, snapshot.Weight(core.TraitToken{Dimension: "nope", Value: "x"}))
}

func TestFeatureScorePerDimension(t *testing.T) {
	snapshot := Empty(vocab.NewDefault())

	t.Run("best value per dimension wins", func(t *testing.T) {
		total, details := snapshot.FeatureScore([]core.TraitToken{
			{Dimension: "leaf_type", Value: "pinnate"},   // base 0.05
			{Dimension: "leaf_type", Value: "bipinnate"}, // base 0.08, same dimension
			{Dimension: "flower_color", Value: "white"},  // base 0.05
		})
		require.Len(t, details, 2)
		assert.InDelta(t, 0.13, total, 1e-9)
		assert.Equal(t, "leaf_type=bipinnate", details[0].Token.String())
	})

	t.Run("gate-only dimensions contribute zero", func(t *testing.T) {
		total, details := snapshot.FeatureScore([]core.TraitToken{
			{Dimension: "life_form", Value: "tree"},
		})
		assert.Zero(t, total)
		assert.Empty(t, details)
	})

	t.Run("repeat of same signal is not double counted", func(t *testing.T) {
		once, _ := snapshot.FeatureScore([]core.TraitToken{
			{Dimension: "leaf_margin", Value: "entire"},
		})
		twice, _ := snapshot.FeatureScore([]core.TraitToken{
			{Dimension: "leaf_margin", Value: "entire"},
			{Dimension: "leaf_margin", Value: "entire"},
		})
		assert.Equal(t, once, twice)
	})
}

func TestStoreRecompute(t *testing.T) {
	vocabulary := vocab.NewDefault()
	store := NewStore(vocabulary, nil)

	initial := store.Snapshot()
	require.NotNil(t, initial)
	assert.Zero(t, initial.CorpusSize())

	err := store.Recompute(context.Background(), []*core.CorpusRecord{
		record("leaf_arrangement=whorled"),
	})
	require.NoError(t, err)

	swapped := store.Snapshot()
	assert.NotSame(t, initial, swapped)
	assert.Equal(t, 1, swapped.CorpusSize())

	// The old snapshot a query may still hold is untouched.
	assert.Zero(t, initial.CorpusSize())
}
