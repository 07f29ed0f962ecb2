// Package weights implements the corpus-aware trait weight model.
//
// A full corpus pass counts, per canonical trait value, the number of records
// in which the value is detected (document frequency). The inverse document
// frequency ln((N+1)/(df+1)) is halved and clamped to [0.2, 2.5] to form a
// rarity coefficient, which scales each value's base weight up to its cap:
// rare, highly discriminative traits end up weighted far above common ones.
//
// Snapshots are immutable. The Store swaps rebuilt snapshots in atomically so
// concurrent queries never observe a partially updated weight table.
package weights
