package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent("https://example.org/plants/1|榕樹|Ficus microcarpa")
		b := IDFromContent("https://example.org/plants/1|榕樹|Ficus microcarpa")
		assert.Equal(t, a, b)
	})

	t.Run("different content different id", func(t *testing.T) {
		a := IDFromContent("Ficus microcarpa")
		b := IDFromContent("Ficus benjamina")
		assert.NotEqual(t, a, b)
	})
}

func TestTraitToken(t *testing.T) {
	t.Run("string form", func(t *testing.T) {
		tok := TraitToken{Dimension: "leaf_arrangement", Value: "whorled"}
		assert.Equal(t, "leaf_arrangement=whorled", tok.String())
	})

	t.Run("parse round trip", func(t *testing.T) {
		tok, ok := ParseTraitToken("flower_color=purple")
		require.True(t, ok)
		assert.Equal(t, "flower_color", tok.Dimension)
		assert.Equal(t, "purple", tok.Value)
	})

	t.Run("parse rejects malformed", func(t *testing.T) {
		for _, raw := range []string{"", "no-separator", "=value", "dimension="} {
			_, ok := ParseTraitToken(raw)
			assert.False(t, ok, raw)
		}
	})
}

func TestTraitObservation(t *testing.T) {
	t.Run("known value yields token", func(t *testing.T) {
		obs := TraitObservation{Dimension: "life_form", Value: "herb", Confidence: 0.9}
		tok, ok := obs.Token()
		require.True(t, ok)
		assert.Equal(t, "life_form=herb", tok.String())
	})

	t.Run("unknown is not a token", func(t *testing.T) {
		for _, value := range []string{"", UnknownValue} {
			obs := TraitObservation{Dimension: "life_form", Value: value, Confidence: 0.9}
			assert.False(t, obs.Known())
			_, ok := obs.Token()
			assert.False(t, ok)
		}
	})
}

func TestCorpusRecordTraitValue(t *testing.T) {
	record := &CorpusRecord{
		TraitTokens: []string{"life_form=tree", "leaf_arrangement=alternate", "not a token"},
	}

	assert.Equal(t, "tree", record.TraitValue("life_form"))
	assert.Equal(t, "alternate", record.TraitValue("leaf_arrangement"))
	assert.Equal(t, UnknownValue, record.TraitValue("flower_color"))

	tokens := record.Tokens()
	require.Len(t, tokens, 2)
	assert.Equal(t, "life_form=tree", tokens[0].String())
}
