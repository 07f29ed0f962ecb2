// Copyright 2025 Verdantis Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rank

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/taxon"
	"github.com/verdantis/plantid/vocab"
	"github.com/verdantis/plantid/weights"
)

// Query carries everything the gating chain knows about one request: the
// raw text and the structured trait observations derived from it.
type Query struct {
	Text         string
	Observations []core.TraitObservation
}

// Tokens returns the canonical tokens of all known observations.
func (q *Query) Tokens() []core.TraitToken {
	tokens := make([]core.TraitToken, 0, len(q.Observations))
	for _, obs := range q.Observations {
		if token, ok := obs.Token(); ok {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Observation returns the query's observation for a dimension.
func (q *Query) Observation(dim string) (core.TraitObservation, bool) {
	for _, obs := range q.Observations {
		if obs.Dimension == dim {
			return obs, true
		}
	}
	return core.TraitObservation{}, false
}

// Ranker applies the gating chain to a candidate pool. The chain runs in a
// fixed order: species dedup, group-label filter, base blend, must-gate,
// exclusion gates, soft penalties, false-positive suppression, quality
// scaling, clamp and sort. Later stages assume earlier ones already ran.
type Ranker struct {
	config    *Config
	store     *weights.Store
	tokenizer *vocab.Tokenizer
	logger    *slog.Logger
	monitor   RankMonitor
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithMonitor installs hooks observing the gating chain.
func WithMonitor(monitor RankMonitor) Option {
	return func(r *Ranker) {
		r.monitor = monitor
	}
}

// WithLogger sets the ranker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) {
		r.logger = logger
	}
}

// NewRanker creates a Ranker over the given heuristic table and weight
// snapshot store.
func NewRanker(config *Config, store *weights.Store, tokenizer *vocab.Tokenizer, opts ...Option) (*Ranker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r := &Ranker{
		config:    config,
		store:     store,
		tokenizer: tokenizer,
		logger:    slog.Default().With("component", "ranker"),
		monitor:   &noopMonitor{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rank re-ranks a similarity candidate pool against the query's traits.
// A candidate whose trait comparison fails is scored on its embedding alone
// and logged; it is never dropped and never aborts the batch.
func (r *Ranker) Rank(query *Query, candidates []*core.SearchResult) []*core.CandidateScore {
	snapshot := r.store.Snapshot()
	queryTokens := query.Tokens()
	r.monitor.Start(len(candidates), len(queryTokens))

	deduped := dedupeBySpecies(candidates)
	r.monitor.AfterDedup(recordsOf(deduped))

	filtered := deduped[:0:0]
	for _, cand := range deduped {
		if cand.Record != nil && taxon.IsGroupLabel(cand.Record) {
			continue
		}
		filtered = append(filtered, cand)
	}
	r.monitor.AfterGroupFilter(recordsOf(filtered))

	// Total available query weight, shared by every candidate's
	// feature-score denominator.
	totalWeight, _ := snapshot.FeatureScore(queryTokens)

	scored := make([]*core.CandidateScore, 0, len(filtered))
	for _, cand := range filtered {
		score, err := r.scoreCandidate(snapshot, query, queryTokens, totalWeight, cand)
		if err != nil {
			r.logger.Warn("scoring candidate on embedding alone",
				"id", candidateID(cand), "err", err)
			score = &core.CandidateScore{
				Record:         cand.Record,
				EmbeddingScore: float64(cand.Score),
				GatePassed:     true,
				Penalties:      []string{"malformed_payload"},
				Score:          clamp01(float64(cand.Score)),
			}
		}
		r.monitor.CandidateScored(score)
		scored = append(scored, score)
	}

	// Sort by final score descending, ties broken by embedding score.
	slices.SortStableFunc(scored, func(a, b *core.CandidateScore) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		case a.EmbeddingScore > b.EmbeddingScore:
			return -1
		case a.EmbeddingScore < b.EmbeddingScore:
			return 1
		default:
			return 0
		}
	})

	r.monitor.Finish(scored)
	return scored
}

// scoreCandidate runs stages 3 through 9 of the chain for one candidate.
// Panics from malformed payloads are converted to errors so the caller can
// fall back to embedding-only scoring.
func (r *Ranker) scoreCandidate(snapshot *weights.Snapshot, query *Query, queryTokens []core.TraitToken, totalWeight float64, cand *core.SearchResult) (result *core.CandidateScore, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrMalformedCandidate, p)
		}
	}()

	record := cand.Record
	if record == nil {
		return nil, fmt.Errorf("%w: nil record", ErrMalformedCandidate)
	}
	if record.ScientificName == "" && record.CommonName == "" {
		return nil, fmt.Errorf("%w: no identity fields", ErrMalformedCandidate)
	}

	score := &core.CandidateScore{
		Record:         record,
		EmbeddingScore: float64(cand.Score),
		GatePassed:     true,
	}

	// Base blend
	matched := matchedTokens(queryTokens, record)
	matchedWeight, details := snapshot.FeatureScore(matched)
	if totalWeight > 0 {
		score.FeatureScore = matchedWeight / totalWeight
	}
	if len(queryTokens) > 0 {
		score.Coverage = float64(len(matched)) / float64(len(queryTokens))
	}
	for _, detail := range details {
		score.MatchedTraits = append(score.MatchedTraits, detail.Token)
	}

	if len(queryTokens) < r.config.FewTraitThreshold && score.FeatureScore > r.config.FewTraitCap {
		score.FeatureScore = r.config.FewTraitCap
	}

	// Gate-only dimensions carry no positive weight. A query holding
	// nothing else blends like a trait-less query: embedding alone.
	blendTraits := len(queryTokens)
	if totalWeight <= 0 {
		blendTraits = 0
	}
	embWeight, featWeight := r.config.BlendWeights(blendTraits)
	score.Score = embWeight*score.EmbeddingScore + featWeight*score.FeatureScore

	r.applyMustGate(query, score)
	r.applyExclusionGates(query, queryTokens, score)
	r.applySoftPenalties(query, score)

	if r.config.IsFalsePositive(record.ScientificName) {
		score.Score *= r.config.FalsePositiveFactor
		score.Penalties = append(score.Penalties, "false_positive")
		r.monitor.PenaltyApplied(record, "false_positive", r.config.FalsePositiveFactor)
	}

	if record.Quality > 0 && record.Quality <= 1 {
		score.Score *= record.Quality
	}

	score.Score = clamp01(score.Score)
	return score, nil
}

// applyMustGate multiplies the score by the gate penalty factor when the
// query supplies a confident value for a strict gate dimension and the
// candidate carries a conflicting value. Unknown on either side never gates.
func (r *Ranker) applyMustGate(query *Query, score *core.CandidateScore) {
	for _, dim := range r.config.GateDimensions {
		obs, ok := query.Observation(dim)
		if !ok || !obs.Known() || obs.Confidence < r.config.GateConfidence {
			continue
		}
		candValue := score.Record.TraitValue(dim)
		if candValue == core.UnknownValue || candValue == obs.Value {
			continue
		}

		score.Score *= r.config.GatePenaltyFactor
		score.GatePassed = false
		score.Penalties = append(score.Penalties, "must_gate:"+dim)
		r.monitor.GateApplied(score.Record, "must_gate:"+dim, r.config.GatePenaltyFactor)
	}
}

// applyExclusionGates runs the palm and bryophyte gates, each independently
// toggleable.
func (r *Ranker) applyExclusionGates(query *Query, queryTokens []core.TraitToken, score *core.CandidateScore) {
	record := score.Record

	if r.config.PalmGate {
		compound, simple := queryCompoundEvidence(queryTokens)
		palmLike := isPalmLike(record)

		switch {
		case compound && !palmLike && !candidateCompoundLeaf(record):
			score.Score *= r.config.PalmGateFactor
			score.Penalties = append(score.Penalties, "palm_gate")
			r.monitor.GateApplied(record, "palm_gate", r.config.PalmGateFactor)
		case simple && !compound && palmLike:
			score.Score *= r.config.PalmGateFactor
			score.Penalties = append(score.Penalties, "palm_gate")
			r.monitor.GateApplied(record, "palm_gate", r.config.PalmGateFactor)
		}
	}

	if r.config.BryophyteGate {
		switch {
		case querySeedPlantEvidence(queryTokens) && isBryophyteLike(record):
			score.Score *= r.config.BryophyteGateFactor
			score.Penalties = append(score.Penalties, "bryophyte_gate")
			r.monitor.GateApplied(record, "bryophyte_gate", r.config.BryophyteGateFactor)
		case queryBryophyteEvidence(query.Text) && !isBryophyteLike(record) && candidateSeedPlantEvidence(record):
			score.Score *= r.config.BryophyteGateFactor
			score.Penalties = append(score.Penalties, "bryophyte_gate")
			r.monitor.GateApplied(record, "bryophyte_gate", r.config.BryophyteGateFactor)
		}
	}
}

// applySoftPenalties sums the additive contradiction penalties and
// subtracts them from the score, flooring at zero.
func (r *Ranker) applySoftPenalties(query *Query, score *core.CandidateScore) {
	record := score.Record
	var total float64

	if obs, ok := query.Observation("life_form"); ok && obs.Known() && obs.Confidence >= r.config.GateConfidence {
		candValue := r.candidateLifeForm(record)
		if candValue != core.UnknownValue && candValue != obs.Value {
			total += r.config.Penalties.LifeForm
			score.Penalties = append(score.Penalties, "soft:life_form")
			r.monitor.PenaltyApplied(record, "soft:life_form", r.config.Penalties.LifeForm)
		}
	}

	if obs, ok := query.Observation("flower_color"); ok && obs.Known() && obs.Confidence >= r.config.GateConfidence {
		if (obs.Value == "purple" || obs.Value == "pink") && record.TraitValue("flower_color") == "red" {
			total += r.config.Penalties.ColorGroup
			score.Penalties = append(score.Penalties, "soft:color_group")
			r.monitor.PenaltyApplied(record, "soft:color_group", r.config.Penalties.ColorGroup)
		}
	}

	if obs, ok := query.Observation("leaf_type"); ok && obs.Known() && obs.Confidence >= r.config.GateConfidence {
		candValue := record.TraitValue("leaf_type")
		if candValue != core.UnknownValue && compoundLeafValues[obs.Value] != compoundLeafValues[candValue] {
			total += r.config.Penalties.LeafType
			score.Penalties = append(score.Penalties, "soft:leaf_type")
			r.monitor.PenaltyApplied(record, "soft:leaf_type", r.config.Penalties.LeafType)
		}
	}

	score.Score -= total
	if score.Score < 0 {
		score.Score = 0
	}
}

// candidateLifeForm resolves the candidate's canonical life form, falling
// back to tokenizing the raw field when no stored token exists.
func (r *Ranker) candidateLifeForm(record *core.CorpusRecord) string {
	if value := record.TraitValue("life_form"); value != core.UnknownValue {
		return value
	}
	if record.LifeForm != "" {
		if token, _, ok := r.tokenizer.Tokenize(record.LifeForm); ok && token.Dimension == "life_form" {
			return token.Value
		}
	}
	return core.UnknownValue
}

// dedupeBySpecies collapses candidates sharing a canonical species key,
// keeping the highest-embedding-score instance. Records without a usable
// key are kept as-is.
func dedupeBySpecies(candidates []*core.SearchResult) []*core.SearchResult {
	kept := make([]*core.SearchResult, 0, len(candidates))
	byKey := make(map[string]int, len(candidates))

	for _, cand := range candidates {
		if cand.Record == nil {
			kept = append(kept, cand)
			continue
		}
		key := taxon.CanonicalKey(cand.Record)
		if key == "" {
			kept = append(kept, cand)
			continue
		}
		if idx, seen := byKey[key]; seen {
			if cand.Score > kept[idx].Score {
				kept[idx] = cand
			}
			continue
		}
		byKey[key] = len(kept)
		kept = append(kept, cand)
	}
	return kept
}

// matchedTokens returns the query tokens the candidate also carries.
func matchedTokens(queryTokens []core.TraitToken, record *core.CorpusRecord) []core.TraitToken {
	candTokens := record.Tokens()
	candSet := make(map[core.TraitToken]bool, len(candTokens))
	for _, token := range candTokens {
		candSet[token] = true
	}

	matched := make([]core.TraitToken, 0, len(queryTokens))
	for _, token := range queryTokens {
		if candSet[token] {
			matched = append(matched, token)
		}
	}
	return matched
}

func recordsOf(candidates []*core.SearchResult) []*core.CorpusRecord {
	records := make([]*core.CorpusRecord, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Record != nil {
			records = append(records, cand.Record)
		}
	}
	return records
}

func candidateID(cand *core.SearchResult) core.ID {
	if cand.Record == nil {
		return 0
	}
	return cand.Record.Id
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
