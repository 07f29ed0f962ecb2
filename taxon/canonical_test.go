package taxon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantis/plantid/core"
)

func TestCanonicalKeyScientific(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Ficus microcarpa", "ficus microcarpa"},
		{"Ficus  microcarpa   L.", "ficus microcarpa"},
		{"Ficus microcarpa var. fujianensis", "ficus microcarpa"},
		{"Ficus microcarpa subsp. fujianensis", "ficus microcarpa"},
		{"Osmanthus fragrans cv. 'Aurantiacus'", "osmanthus fragrans"},
		{"Cyclobalanopsis glauca f. kuyuensis", "cyclobalanopsis glauca"},
	}

	for _, tc := range cases {
		record := &core.CorpusRecord{ScientificName: tc.name}
		assert.Equal(t, tc.want, CanonicalKey(record), tc.name)
	}
}

func TestCanonicalKeyDeterministic(t *testing.T) {
	record := &core.CorpusRecord{
		ScientificName: "Ficus microcarpa var. fujianensis",
		CommonName:     "細葉榕",
	}
	assert.Equal(t, CanonicalKey(record), CanonicalKey(record))
}

func TestCanonicalKeyVarietyMarkerCollapses(t *testing.T) {
	a := &core.CorpusRecord{ScientificName: "Ficus microcarpa"}
	b := &core.CorpusRecord{ScientificName: "Ficus microcarpa var. fujianensis"}
	assert.Equal(t, CanonicalKey(a), CanonicalKey(b))
}

func TestCanonicalKeyFallback(t *testing.T) {
	t.Run("single-token scientific name falls back", func(t *testing.T) {
		record := &core.CorpusRecord{
			ScientificName: "Ficus",
			CommonName:     "榕 樹",
			Family:         "Moraceae",
			Genus:          "Ficus",
		}
		assert.Equal(t, "榕樹|moraceae|ficus", CanonicalKey(record))
	})

	t.Run("hyphens stripped from common name", func(t *testing.T) {
		record := &core.CorpusRecord{CommonName: "hairy-rock fig", Family: "Moraceae"}
		assert.Equal(t, "hairyrockfig|moraceae|", CanonicalKey(record))
	})

	t.Run("empty identity yields empty key", func(t *testing.T) {
		assert.Equal(t, "", CanonicalKey(&core.CorpusRecord{Summary: "something"}))
		assert.Equal(t, "", CanonicalKey(nil))
	})
}

func TestDeduplicate(t *testing.T) {
	t.Run("richer description wins", func(t *testing.T) {
		thin := &core.CorpusRecord{ScientificName: "Ficus microcarpa", Summary: "榕樹"}
		rich := &core.CorpusRecord{
			ScientificName: "Ficus microcarpa var. fujianensis",
			Summary:        "常綠大喬木，具氣生根，葉互生，革質全緣，隱花果",
		}

		result := Deduplicate([]*core.CorpusRecord{thin, rich})
		require.Len(t, result, 1)
		assert.Same(t, rich, result[0])
	})

	t.Run("tie keeps first encountered", func(t *testing.T) {
		first := &core.CorpusRecord{ScientificName: "Ficus microcarpa", Summary: "abcd"}
		second := &core.CorpusRecord{ScientificName: "Ficus microcarpa", Summary: "wxyz"}

		result := Deduplicate([]*core.CorpusRecord{first, second})
		require.Len(t, result, 1)
		assert.Same(t, first, result[0])
	})

	t.Run("idempotent", func(t *testing.T) {
		records := []*core.CorpusRecord{
			{ScientificName: "Ficus microcarpa", Summary: "a"},
			{ScientificName: "Ficus benjamina", Summary: "b"},
			{CommonName: "孤兒資料"},
		}
		once := Deduplicate(records)
		twice := Deduplicate(once)
		assert.Equal(t, once, twice)
	})

	t.Run("empty-key records always kept", func(t *testing.T) {
		records := []*core.CorpusRecord{
			{Summary: "x"},
			{Summary: "y"},
		}
		assert.Len(t, Deduplicate(records), 2)
	})

	t.Run("order preserved", func(t *testing.T) {
		records := []*core.CorpusRecord{
			{ScientificName: "Aa bb"},
			{ScientificName: "Cc dd"},
			{ScientificName: "Aa bb var. ee"},
		}
		result := Deduplicate(records)
		require.Len(t, result, 2)
		assert.Equal(t, "Aa bb", result[0].ScientificName)
		assert.Equal(t, "Cc dd", result[1].ScientificName)
	})
}

func TestIsGroupLabel(t *testing.T) {
	t.Run("family and genus labels", func(t *testing.T) {
		assert.True(t, IsGroupLabel(&core.CorpusRecord{CommonName: "桑科"}))
		assert.True(t, IsGroupLabel(&core.CorpusRecord{CommonName: "榕屬"}))
		assert.True(t, IsGroupLabel(&core.CorpusRecord{ScientificName: "Moraceae"}))
	})

	t.Run("authorship label", func(t *testing.T) {
		assert.True(t, IsGroupLabel(&core.CorpusRecord{CommonName: "(L.) Merr."}))
	})

	t.Run("real species pass", func(t *testing.T) {
		assert.False(t, IsGroupLabel(&core.CorpusRecord{
			CommonName:     "榕樹",
			ScientificName: "Ficus microcarpa",
		}))
		assert.False(t, IsGroupLabel(&core.CorpusRecord{CommonName: "月橘"}))
	})

	t.Run("empty identity is not a group label", func(t *testing.T) {
		// Identity-less records are malformed, not group labels; the
		// scoring path keeps them on embedding alone.
		assert.False(t, IsGroupLabel(&core.CorpusRecord{}))
		assert.False(t, IsGroupLabel(nil))
	})
}
