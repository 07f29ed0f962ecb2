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

import "errors"

// Domain validation errors
var (
	// ErrInvalidCorpusRecord indicates a CorpusRecord failed validation.
	ErrInvalidCorpusRecord = errors.New("invalid corpus record")

	// ErrMissingIdentity indicates a record has neither a scientific nor a common name.
	ErrMissingIdentity = errors.New("record has no scientific or common name")

	// ErrInvalidQuality indicates a quality score outside (0,1].
	ErrInvalidQuality = errors.New("quality score must be in (0,1]")

	// ErrInvalidObservation indicates a TraitObservation failed validation.
	ErrInvalidObservation = errors.New("invalid trait observation")

	// ErrInvalidConfidence indicates a confidence value outside [0,1].
	ErrInvalidConfidence = errors.New("confidence must be in [0,1]")

	// ErrEmptyDimension indicates an observation without a trait dimension.
	ErrEmptyDimension = errors.New("trait dimension cannot be empty")
)
