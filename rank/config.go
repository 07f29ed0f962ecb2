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
	"os"

	"gopkg.in/yaml.v3"
)

// Blend weight clamp range. Each side of the blend stays inside this range
// so a bad config cannot silence either signal entirely.
const (
	minBlendWeight = 0.05
	maxBlendWeight = 0.95
)

// SoftPenalties is the additive contradiction penalty table. Penalties are
// summed and subtracted from the score, never multiplied.
type SoftPenalties struct {
	LifeForm   float64 `yaml:"life_form"`
	ColorGroup float64 `yaml:"color_group"`
	LeafType   float64 `yaml:"leaf_type"`
}

// Config is the ranking heuristic table. It is versioned and loadable from
// YAML so penalty tuning does not require touching the scoring logic.
type Config struct {
	Version string `yaml:"version"`

	// Blend weights for embedding vs feature score. Clamped and
	// renormalized at use; see BlendWeights.
	EmbeddingWeight float64 `yaml:"embedding_weight"`
	FeatureWeight   float64 `yaml:"feature_weight"`

	// Queries with fewer than FewTraitThreshold structured traits have
	// their feature score capped at FewTraitCap, so a 2-trait query can
	// never produce a spurious perfect feature score.
	FewTraitThreshold int     `yaml:"few_trait_threshold"`
	FewTraitCap       float64 `yaml:"few_trait_cap"`

	// GateDimensions lists the strict gate dimensions. A confident query
	// value conflicting with a candidate's value in one of these
	// multiplies the score by GatePenaltyFactor.
	GateDimensions    []string `yaml:"gate_dimensions"`
	GatePenaltyFactor float64  `yaml:"gate_penalty_factor"`
	GateConfidence    float64  `yaml:"gate_confidence"`

	// Domain exclusion gates, each independently toggleable.
	PalmGate            bool    `yaml:"palm_gate"`
	PalmGateFactor      float64 `yaml:"palm_gate_factor"`
	BryophyteGate       bool    `yaml:"bryophyte_gate"`
	BryophyteGateFactor float64 `yaml:"bryophyte_gate_factor"`

	Penalties SoftPenalties `yaml:"penalties"`

	// FalsePositives lists species names that over-match due to generic
	// descriptions; they receive a mild multiplicative penalty.
	FalsePositives      []string `yaml:"false_positives"`
	FalsePositiveFactor float64  `yaml:"false_positive_factor"`

	// PoolMultiplier controls how many raw candidates are fetched per
	// requested result before re-ranking.
	PoolMultiplier int `yaml:"pool_multiplier"`
}

// DefaultConfig returns the current tuned heuristic table.
func DefaultConfig() *Config {
	return &Config{
		Version:             "2025-08",
		EmbeddingWeight:     0.78,
		FeatureWeight:       0.22,
		FewTraitThreshold:   4,
		FewTraitCap:         0.85,
		GateDimensions:      []string{"leaf_arrangement"},
		GatePenaltyFactor:   0.3,
		GateConfidence:      0.55,
		PalmGate:            true,
		PalmGateFactor:      0.45,
		BryophyteGate:       true,
		BryophyteGateFactor: 0.25,
		Penalties: SoftPenalties{
			LifeForm:   0.08,
			ColorGroup: 0.06,
			LeafType:   0.06,
		},
		FalsePositives:      []string{"Ficus microcarpa", "Hibiscus tiliaceus"},
		FalsePositiveFactor: 0.9,
		PoolMultiplier:      4,
	}
}

// LoadConfig reads a heuristic table from a YAML file. Zero-valued fields
// fall back to the defaults so partial overrides are possible.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rank config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the table for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.EmbeddingWeight <= 0 || c.FeatureWeight < 0 {
		return fmt.Errorf("%w: blend weights must be positive", ErrInvalidConfig)
	}
	if c.GatePenaltyFactor <= 0 || c.GatePenaltyFactor >= 1 {
		return fmt.Errorf("%w: gate penalty factor %v out of (0, 1)", ErrInvalidConfig, c.GatePenaltyFactor)
	}
	if c.GateConfidence < 0 || c.GateConfidence > 1 {
		return fmt.Errorf("%w: gate confidence %v out of [0, 1]", ErrInvalidConfig, c.GateConfidence)
	}
	if c.FalsePositiveFactor <= 0 || c.FalsePositiveFactor >= 1 {
		return fmt.Errorf("%w: false positive factor %v out of (0, 1)", ErrInvalidConfig, c.FalsePositiveFactor)
	}
	if c.FewTraitCap <= 0 || c.FewTraitCap > 1 {
		return fmt.Errorf("%w: few-trait cap %v out of (0, 1]", ErrInvalidConfig, c.FewTraitCap)
	}
	if c.PoolMultiplier < 1 {
		return fmt.Errorf("%w: pool multiplier must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// BlendWeights returns the effective embedding and feature weights for a
// query carrying traitCount structured traits. Each weight is clamped to
// [0.05, 0.95] and the pair renormalized to sum to 1. A query with no
// structured traits scores on embedding alone.
func (c *Config) BlendWeights(traitCount int) (embedding, feature float64) {
	if traitCount == 0 {
		return 1, 0
	}

	embedding = clampWeight(c.EmbeddingWeight)
	feature = clampWeight(c.FeatureWeight)

	total := embedding + feature
	return embedding / total, feature / total
}

// IsGateDimension reports whether dim is in the strict gate set.
func (c *Config) IsGateDimension(dim string) bool {
	for _, gate := range c.GateDimensions {
		if gate == dim {
			return true
		}
	}
	return false
}

// IsFalsePositive reports whether a species name is on the suppression list.
func (c *Config) IsFalsePositive(scientificName string) bool {
	for _, name := range c.FalsePositives {
		if name == scientificName {
			return true
		}
	}
	return false
}

func clampWeight(w float64) float64 {
	if w < minBlendWeight {
		return minBlendWeight
	}
	if w > maxBlendWeight {
		return maxBlendWeight
	}
	return w
}
