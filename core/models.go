package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for corpus records.
// It is derived from record content so that re-ingesting the same source
// page produces the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// TraitToken is a canonical (dimension, value) pair, the atomic unit exchanged
// between the tokenizer, the weight model, and the ranking pipeline.
// Immutable once produced.
type TraitToken struct {
	Dimension string
	Value     string
}

// String renders the token in its wire form, "dimension=value".
func (t TraitToken) String() string {
	return t.Dimension + "=" + t.Value
}

// ParseTraitToken parses a "dimension=value" string.
// Returns false if the input does not contain a separator or either side is empty.
func ParseTraitToken(s string) (TraitToken, bool) {
	dim, val, found := strings.Cut(s, "=")
	if !found || dim == "" || val == "" {
		return TraitToken{}, false
	}
	return TraitToken{Dimension: dim, Value: val}, true
}

// UnknownValue marks a trait dimension for which the upstream observer had no
// usable signal. An unknown observation is different from a contradicting one:
// it never participates in gating or penalties.
const UnknownValue = "unknown"

// TraitObservation is one trait dimension as reported by an upstream observer
// (a vision model or a human-supplied trait list), with a confidence in [0,1]
// and optional free-text evidence.
type TraitObservation struct {
	Dimension  string
	Value      string
	Confidence float64
	Evidence   string
}

// Known reports whether the observation carries a usable value.
func (o TraitObservation) Known() bool {
	return o.Value != "" && o.Value != UnknownValue
}

// Token converts a known observation to its canonical token.
// The second return is false for unknown observations.
func (o TraitObservation) Token() (TraitToken, bool) {
	if !o.Known() {
		return TraitToken{}, false
	}
	return TraitToken{Dimension: o.Dimension, Value: o.Value}, true
}

// CorpusRecord is one species entry. Records are created by the ingestion
// pipeline and consumed read-only by the ranking engine; the engine only ever
// derives per-query comparison values from them.
type CorpusRecord struct {
	Id             ID
	ScientificName string
	CommonName     string
	Family         string
	Genus          string
	LifeForm       string
	Summary        string   // Free-text morphology description
	KeyFeatures    []string // Raw feature phrases from the source page
	TraitTokens    []string // Canonical "dimension=value" tokens (populated by the tokenizer)
	Quality        float64  // Data-quality score in (0,1]; 0 means unset
	SourceURL      string
	Vector         []float32 // Embedding vector for similarity search (populated by processors)
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// Tokens parses the record's stored trait tokens, skipping malformed entries.
func (r *CorpusRecord) Tokens() []TraitToken {
	tokens := make([]TraitToken, 0, len(r.TraitTokens))
	for _, raw := range r.TraitTokens {
		if tok, ok := ParseTraitToken(raw); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// TraitValue returns the record's canonical value for a dimension, or
// UnknownValue when the record carries no token for it.
func (r *CorpusRecord) TraitValue(dimension string) string {
	for _, raw := range r.TraitTokens {
		if tok, ok := ParseTraitToken(raw); ok && tok.Dimension == dimension {
			return tok.Value
		}
	}
	return UnknownValue
}

// SearchResult is a corpus record paired with its similarity score, as
// returned by the vector store.
type SearchResult struct {
	Record *CorpusRecord
	Score  float32
}

// CandidateScore is the per-query, per-species scoring breakdown produced by
// the ranking pipeline. Created fresh per query, never persisted.
type CandidateScore struct {
	Record         *CorpusRecord
	EmbeddingScore float64
	FeatureScore   float64
	Coverage       float64      // Fraction of query traits matched by the record
	MatchedTraits  []TraitToken // Query tokens the record matched
	GatePassed     bool
	Penalties      []string // Identifiers of penalties applied, in application order
	Score          float64  // Final blended score in [0,1]
}
