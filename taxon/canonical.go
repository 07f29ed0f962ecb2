package taxon

import (
	"regexp"
	"strings"

	"github.com/verdantis/plantid/core"
)

// Rank markers and noise stripped from scientific names before the key is
// derived. Variety, subspecies, forma, and cultivar markers make two entries
// of the same species look distinct; authorship and quotes are carried
// inconsistently across sources.
var (
	rankMarkerRe = regexp.MustCompile(`\b(var|subsp|ssp|f|cv|forma|subvar)\.?\s`)
	hybridRe     = regexp.MustCompile(`(^|\s)[×x]\s`)
	quoteRe      = regexp.MustCompile(`['‘’“”"]`)
	spaceRe      = regexp.MustCompile(`\s+`)
	dashSpaceRe  = regexp.MustCompile(`[\s-]+`)
)

// CanonicalKey derives the species-level deduplication identity of a record.
//
// Scientific-name path: lower-case, strip quotes and rank markers, collapse
// whitespace, keep the first two whitespace-delimited tokens (genus +
// species). When fewer than two tokens remain, fall back to normalized
// common name joined with family and genus. The key is empty only when all
// identity fields are empty; such a record is never deduplicated against
// anything, which is a data-quality signal rather than an error.
//
// The function is total and deterministic: the same record always yields the
// same key, across process restarts.
func CanonicalKey(record *core.CorpusRecord) string {
	if record == nil {
		return ""
	}

	if key := scientificKey(record.ScientificName); key != "" {
		return key
	}
	return fallbackKey(record)
}

func scientificKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	name = quoteRe.ReplaceAllString(name, "")
	name = rankMarkerRe.ReplaceAllString(name, " ")
	name = hybridRe.ReplaceAllString(name, " ")
	name = spaceRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return ""
	}
	return tokens[0] + " " + tokens[1]
}

func fallbackKey(record *core.CorpusRecord) string {
	common := dashSpaceRe.ReplaceAllString(strings.ToLower(record.CommonName), "")
	family := strings.ToLower(strings.TrimSpace(record.Family))
	genus := strings.ToLower(strings.TrimSpace(record.Genus))
	if common == "" && family == "" && genus == "" {
		return ""
	}
	return common + "|" + family + "|" + genus
}

// Deduplicate collapses records sharing a canonical key, keeping exactly one
// representative per key: the record with the richer description wins, ties
// keep the first encountered. Records with an empty key are always kept.
// The operation is idempotent and preserves first-seen order.
func Deduplicate(records []*core.CorpusRecord) []*core.CorpusRecord {
	kept := make([]*core.CorpusRecord, 0, len(records))
	byKey := make(map[string]int, len(records))

	for _, record := range records {
		if record == nil {
			continue
		}
		key := CanonicalKey(record)
		if key == "" {
			kept = append(kept, record)
			continue
		}
		if at, seen := byKey[key]; seen {
			if richness(record) > richness(kept[at]) {
				kept[at] = record
			}
			continue
		}
		byKey[key] = len(kept)
		kept = append(kept, record)
	}

	return kept
}

// richness is the quality tiebreak for duplicate records: a longer summary
// plus more key features means a more useful representative.
func richness(record *core.CorpusRecord) int {
	return len(record.Summary) + 16*len(record.KeyFeatures)
}
