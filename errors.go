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

import "errors"

var (
	// ErrEmptyQuery is returned when an identification query carries no text.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrNotPlant is returned when the classifier decides a query is not
	// about a plant. The wrapped message carries the winning category.
	ErrNotPlant = errors.New("query does not describe a plant")

	// ErrUpstreamUnavailable is returned when the embedding service cannot
	// be reached or times out.
	ErrUpstreamUnavailable = errors.New("embedding service unavailable")
)
