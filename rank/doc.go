// Package rank re-ranks similarity candidates against a query's observed
// traits.
//
// The pipeline treats the vector store's output as untrusted: candidates are
// deduplicated by canonical species, stripped of taxon-group labels, and
// then pushed through a fixed gating chain that blends embedding and feature
// scores, applies the strict must-gate, the palm and bryophyte exclusion
// gates, additive soft-contradiction penalties, false-positive suppression,
// and data-quality scaling before the final clamp and sort.
//
// All tunable constants live in Config, a versioned YAML-loadable table, so
// penalty tuning never requires changing the chain itself.
package rank
