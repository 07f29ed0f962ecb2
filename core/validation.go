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


package core

import "fmt"

// ValidateCorpusRecord validates a CorpusRecord according to domain rules.
//
// Validation rules:
//   - At least one of ScientificName and CommonName must be present
//   - Quality, when set, must be in (0,1]
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the embedding processor runs)
//   - TraitTokens (can be empty until the tokenizer runs)
//   - ID (0 is valid before content hashing)
func ValidateCorpusRecord(record *CorpusRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidCorpusRecord)
	}

	if record.ScientificName == "" && record.CommonName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCorpusRecord, ErrMissingIdentity)
	}

	if record.Quality < 0 || record.Quality > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidCorpusRecord, ErrInvalidQuality)
	}

	return nil
}

// ValidateObservation validates a TraitObservation according to domain rules.
//
// Validation rules:
//   - Dimension must not be empty
//   - Confidence must be in [0,1]
//
// An unknown Value is valid: it means "no signal", which the pipeline treats
// differently from a contradicting signal.
func ValidateObservation(obs TraitObservation) error {
	if obs.Dimension == "" {
		return fmt.Errorf("%w: %w", ErrInvalidObservation, ErrEmptyDimension)
	}

	if obs.Confidence < 0 || obs.Confidence > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidObservation, ErrInvalidConfidence)
	}

	return nil
}
