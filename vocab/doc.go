// Package vocab defines the canonical trait vocabulary and the tokenizer
// that maps natural-language feature phrases onto it.
//
// The vocabulary is a static table of trait dimensions (leaf arrangement,
// flower color, fruit type, ...), each owning an enumerated set of canonical
// values with base weights, weight caps, and known synonyms in any script.
//
// The tokenizer resolves phrases in a fixed order, first match wins:
//   - exact synonym lookup
//   - affix stripping (size/age prefixes, organ-noun suffixes) plus retry
//   - substring containment against high-precision cues
//   - pattern rules for compound descriptors
//
// Both structures are built once and read-only afterwards; they are safe to
// share across concurrent queries without locking.
package vocab
