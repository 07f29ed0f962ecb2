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


package classify

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/verdantis/plantid/ai"
)

// DefaultPlantThreshold is the minimum similarity to the plant centroid
// for a query to count as plant-related.
const DefaultPlantThreshold = 0.68

// Result reports how a query was classified.
type Result struct {
	// Category is the best-scoring category.
	Category Category

	// Confidence is the similarity to the best-scoring category.
	Confidence float32

	// Scores holds the similarity to every category centroid.
	Scores map[Category]float32

	// PlantScore is the similarity to the plant centroid, regardless of
	// which category won.
	PlantScore float32

	// IsPlant is true when PlantScore meets the plant threshold.
	IsPlant bool
}

// Classifier assigns queries to coarse subject categories by comparing
// their embeddings against precomputed category centroids.
type Classifier struct {
	centroids      map[Category][]float32
	plantThreshold float32
	logger         *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier) error

// WithPlantThreshold overrides the plant similarity threshold.
func WithPlantThreshold(threshold float32) Option {
	return func(c *Classifier) error {
		if threshold <= 0 || threshold >= 1 {
			return fmt.Errorf("%w: plant threshold %v out of range (0, 1)", ErrInvalidThreshold, threshold)
		}
		c.plantThreshold = threshold
		return nil
	}
}

// WithLogger sets the logger used by the classifier.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) error {
		c.logger = logger
		return nil
	}
}

// New builds a Classifier by embedding every category's anchor phrases and
// averaging them into centroids. The embedder is only needed during
// construction; classification afterwards is pure vector math.
func New(ctx context.Context, embedder ai.Embedder, opts ...Option) (*Classifier, error) {
	c := &Classifier{
		centroids:      make(map[Category][]float32, len(categoryPhrases)),
		plantThreshold: DefaultPlantThreshold,
		logger:         slog.Default().With("component", "classifier"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	for _, category := range Categories() {
		phrases := categoryPhrases[category]
		vectors, err := embedder.EmbedTexts(ctx, phrases)
		if err != nil {
			return nil, fmt.Errorf("embedding %s anchor phrases: %w", category, err)
		}
		if len(vectors) == 0 {
			return nil, fmt.Errorf("%w: no vectors for category %s", ErrEmptyCentroid, category)
		}

		c.centroids[category] = centroid(vectors)
		c.logger.Debug("computed category centroid", "category", category, "phrases", len(phrases))
	}

	return c, nil
}

// Classify embeds the query and scores it against every category centroid.
func (c *Classifier) Classify(ctx context.Context, embedder ai.Embedder, query string) (*Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return c.ClassifyVector(vector)
}

// ClassifyVector scores a precomputed query vector against every category
// centroid. Useful when the caller has already embedded the query.
func (c *Classifier) ClassifyVector(vector []float32) (*Result, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyQuery
	}

	result := &Result{
		Scores: make(map[Category]float32, len(c.centroids)),
	}

	for _, category := range Categories() {
		score := cosineSimilarity(vector, c.centroids[category])
		result.Scores[category] = score

		if result.Category == "" || score > result.Confidence {
			result.Category = category
			result.Confidence = score
		}
	}

	result.PlantScore = result.Scores[CategoryPlant]
	result.IsPlant = result.PlantScore >= c.plantThreshold

	return result, nil
}

// PlantThreshold returns the configured plant similarity threshold.
func (c *Classifier) PlantThreshold() float32 {
	return c.plantThreshold
}

// centroid averages a set of vectors elementwise.
func centroid(vectors [][]float32) []float32 {
	dim := len(vectors[0])
	sum := make([]float32, dim)
	for _, vec := range vectors {
		for i := 0; i < dim && i < len(vec); i++ {
			sum[i] += vec[i]
		}
	}
	inv := 1.0 / float32(len(vectors))
	for i := range sum {
		sum[i] *= inv
	}
	return sum
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Centroids are not unit-length even when their inputs are, so both norms
// are computed explicitly.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
