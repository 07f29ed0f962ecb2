package weights

import (
	"github.com/verdantis/plantid/core"
)

// Weight resolves a canonical token to its final weight,
// min(base_weight x rarity_coef, weight_cap). Tokens outside the vocabulary
// weigh zero.
func (s *Snapshot) Weight(token core.TraitToken) float64 {
	base, cap, ok := s.vocabulary.Bounds(token)
	if !ok {
		return 0
	}
	return min(base*s.RarityCoef(token), cap)
}

// WeightOf resolves a raw phrase through the tokenizer first, then returns
// its weight. Unmapped phrases weigh zero.
func (s *Snapshot) WeightOf(phrase string) float64 {
	token, _, ok := s.tokenizer.Tokenize(phrase)
	if !ok {
		return 0
	}
	return s.Weight(token)
}

// FeatureDetail is one dimension's contribution to a feature score.
type FeatureDetail struct {
	Token  core.TraitToken
	Weight float64
}

// FeatureScore aggregates token weights per dimension, keeping only the
// highest-weighted value per dimension so synonymous repeats of the same
// signal cannot double-count. Gate-only dimensions contribute zero; they
// exist solely for contradiction gating.
func (s *Snapshot) FeatureScore(tokens []core.TraitToken) (total float64, details []FeatureDetail) {
	best := make(map[string]FeatureDetail, len(tokens))
	order := make([]string, 0, len(tokens))

	for _, token := range tokens {
		if s.vocabulary.GateOnly(token.Dimension) {
			continue
		}
		weight := s.Weight(token)
		if weight <= 0 {
			continue
		}
		current, exists := best[token.Dimension]
		if !exists {
			order = append(order, token.Dimension)
		}
		if !exists || weight > current.Weight {
			best[token.Dimension] = FeatureDetail{Token: token, Weight: weight}
		}
	}

	details = make([]FeatureDetail, 0, len(order))
	for _, dim := range order {
		detail := best[dim]
		details = append(details, detail)
		total += detail.Weight
	}
	return total, details
}
