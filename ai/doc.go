// Package ai defines the embedding provider abstraction used by the
// retrieval pipeline. Concrete implementations live in subpackages:
// openai for OpenAI-compatible HTTP services and mock for tests.
package ai
