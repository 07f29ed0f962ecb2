package vocab

import (
	"strings"

	"github.com/verdantis/plantid/core"
)

// MinObservationConfidence is the floor below which upstream vision
// observations are treated as noise.
const MinObservationConfidence = 0.55

// flower- and fruit-scoped dimensions are only trusted when the observer
// actually saw the organ. A vision model will happily guess a flower color
// from a leaf photo.
func isFlowerDimension(dim string) bool {
	return strings.HasPrefix(dim, "flower_") ||
		dim == "inflorescence" || dim == "flower_position" || dim == "inflorescence_orientation"
}

func isFruitDimension(dim string) bool {
	return strings.HasPrefix(dim, "fruit_")
}

// TokensFromObservations converts upstream trait observations into canonical
// tokens, applying the confidence floor and strict visibility rules: flower
// dimensions are dropped unless "flower" is among visibleParts, fruit
// dimensions unless "fruit" is, even when the observer reported high
// confidence. Unknown observations are skipped; they are "no signal", not a
// mismatch. A nil visibleParts disables visibility filtering (caller-supplied
// structured traits rather than vision output).
func (t *Tokenizer) TokensFromObservations(observations []core.TraitObservation, visibleParts []string) []core.TraitToken {
	var visible map[string]bool
	if visibleParts != nil {
		visible = make(map[string]bool, len(visibleParts))
		for _, part := range visibleParts {
			visible[strings.ToLower(part)] = true
		}
	}

	tokens := make([]core.TraitToken, 0, len(observations))
	seen := make(map[core.TraitToken]bool, len(observations))
	for _, obs := range observations {
		if !obs.Known() || obs.Confidence < MinObservationConfidence {
			continue
		}
		if visible != nil {
			if isFlowerDimension(obs.Dimension) && !visible["flower"] {
				continue
			}
			if isFruitDimension(obs.Dimension) && !visible["fruit"] {
				continue
			}
		}
		token, _ := obs.Token()
		if seen[token] {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	return tokens
}
