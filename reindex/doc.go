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


// Package reindex rebuilds trait tokens and embedding vectors for an
// existing corpus.
//
// A reindex is needed when the trait vocabulary changes or when the
// embedding model is swapped; either way every record's derived fields go
// stale while its source fields stay valid. The Reindexer walks the whole
// corpus in batches, re-runs tokenization and embedding, and writes the
// records back in place.
//
// Usage:
//
//	reindexer := reindex.NewReindexer(repo, embedder, tokenizer, nil, os.Stderr)
//	if err := reindexer.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Embedding calls are retried with exponential backoff since the embedding
// service is remote. Storage writes are not retried; a failed batch aborts
// the run and the operation can simply be re-run, as reindexing is
// idempotent.
package reindex
