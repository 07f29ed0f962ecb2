package rank

import (
	"strings"

	"github.com/verdantis/plantid/core"
)

// compoundLeafValues are the leaf_type values that count as palm evidence.
var compoundLeafValues = map[string]bool{
	"compound":  true,
	"pinnate":   true,
	"bipinnate": true,
	"palmate":   true,
}

// palmNameMarkers identify palm-like candidates by name when the family
// field is missing or unnormalized.
var palmNameMarkers = []string{"椰", "棕櫚", "棕榈", "palm"}

// bryophyteMarkers identify moss, fern, and liverwort candidates.
var bryophyteMarkers = []string{"蕨", "苔", "蘚", "藓", "moss", "fern", "liverwort"}

// seedPlantDimensions are trait dimensions only seed plants can show.
// Flower or fruit evidence on either side rules out bryophytes and ferns.
var seedPlantDimensions = map[string]bool{
	"flower_color":  true,
	"inflorescence": true,
	"fruit_type":    true,
	"fruit_shape":   true,
}

// queryCompoundEvidence reports whether the query's leaf_type tokens show
// compound leaves, and whether they show an explicitly simple leaf. A query
// with no leaf_type signal reports false for both; unknown never gates.
func queryCompoundEvidence(tokens []core.TraitToken) (compound, simple bool) {
	for _, token := range tokens {
		if token.Dimension != "leaf_type" {
			continue
		}
		if compoundLeafValues[token.Value] {
			compound = true
		} else {
			simple = true
		}
	}
	return compound, simple
}

// isPalmLike reports whether a candidate looks like a palm, by family or by
// name marker.
func isPalmLike(record *core.CorpusRecord) bool {
	if strings.EqualFold(record.Family, "Arecaceae") || record.Family == "棕櫚科" || record.Family == "棕榈科" {
		return true
	}
	name := strings.ToLower(record.ScientificName + " " + record.CommonName)
	for _, marker := range palmNameMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// candidateCompoundLeaf reports whether the candidate's own tokens show
// compound leaves.
func candidateCompoundLeaf(record *core.CorpusRecord) bool {
	return compoundLeafValues[record.TraitValue("leaf_type")]
}

// isBryophyteLike reports whether a candidate looks like a moss, fern, or
// liverwort rather than a seed plant.
func isBryophyteLike(record *core.CorpusRecord) bool {
	name := strings.ToLower(record.ScientificName + " " + record.CommonName + " " + record.LifeForm)
	for _, marker := range bryophyteMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// querySeedPlantEvidence reports whether the query tokens carry flower or
// fruit signals, which only seed plants can produce.
func querySeedPlantEvidence(tokens []core.TraitToken) bool {
	for _, token := range tokens {
		if seedPlantDimensions[token.Dimension] {
			return true
		}
	}
	return false
}

// queryBryophyteEvidence reports whether the raw query text names a
// bryophyte or fern outright.
func queryBryophyteEvidence(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range bryophyteMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// candidateSeedPlantEvidence reports whether the candidate's tokens carry
// flower or fruit signals.
func candidateSeedPlantEvidence(record *core.CorpusRecord) bool {
	return querySeedPlantEvidence(record.Tokens())
}
