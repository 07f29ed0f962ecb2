// Package ingestion provides pipeline orchestration for adding species
// records to the corpus.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Validating and storing corpus records
//   - Deriving canonical trait tokens from key feature phrases
//   - Generating embeddings asynchronously
//
// Embedding is performed concurrently using a worker pool. Errors during
// async processing are logged but do not fail the ingestion operation.
package ingestion
