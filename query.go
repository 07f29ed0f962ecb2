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


package plantid

import "github.com/verdantis/plantid/core"

// DefaultTopK is the number of results returned when a query does not ask
// for a specific count.
const DefaultTopK = 5

// Query is one identification request. Every field is optional, but a query
// carrying no text, no trait evidence and no name guesses is rejected as
// empty. The enrichment fields are typically produced by a vision model
// looking at a photograph of the plant.
type Query struct {
	// Text is the free-text description of the plant. When empty, the
	// classification gate is skipped and retrieval embeds the trait
	// evidence and name guesses instead.
	Text string

	// TraitPhrases are raw trait descriptions in source-vocabulary form,
	// e.g. "對生" or "羽狀複葉". They are tokenized into observations with
	// full confidence.
	TraitPhrases []string

	// Observations are pre-tokenized trait observations with per-trait
	// confidence, as produced by a vision model.
	Observations []core.TraitObservation

	// VisibleParts lists the plant organs the observer could actually see
	// (e.g. "leaf", "flower", "fruit"). When set, flower and fruit
	// observations are dropped unless the matching organ is listed. Nil
	// means the observations are trusted as given.
	VisibleParts []string

	// NameGuesses are candidate species names suggested upstream. Matching
	// corpus records are added to the candidate pool so that trait evidence
	// can confirm or reject them.
	NameGuesses []string

	// TopK caps the number of results. Zero means DefaultTopK.
	TopK int
}
