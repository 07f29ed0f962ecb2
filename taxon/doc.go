// Package taxon derives species-level identities from corpus records.
//
// CanonicalKey normalizes a scientific name down to its genus+species pair
// (stripping variety, subspecies, forma, and cultivar markers) or falls back
// to a common-name/family/genus composite. Records sharing a key are the
// same species for deduplication and gating purposes; Deduplicate picks one
// representative per key, preferring the richer description.
package taxon
