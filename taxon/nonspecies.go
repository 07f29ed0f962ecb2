package taxon

import (
	"regexp"
	"strings"

	"github.com/verdantis/plantid/core"
)

var (
	// Family/genus labels in Chinese sources end with 科 (family) or 屬 (genus).
	groupSuffixRe = regexp.MustCompile(`[科屬属]$`)

	// Bibliographic entries carry an authorship parenthetical such as "(L.) Merr."
	// in place of a display name.
	authorshipRe = regexp.MustCompile(`^\(.*\)|\([A-Z][a-z]*\.\)`)

	latinFamilyRe = regexp.MustCompile(`(?i)(aceae|idae)$`)
)

// IsGroupLabel reports whether a candidate's display identity is a taxon
// group (family, genus) or bibliographic label rather than a species. Such
// entries slip into the corpus from index pages and must not appear as
// identification results. Records with no identity at all are not group
// labels; the scoring path keeps them on embedding alone.
func IsGroupLabel(record *core.CorpusRecord) bool {
	if record == nil {
		return false
	}

	common := strings.TrimSpace(record.CommonName)
	if common != "" {
		if groupSuffixRe.MatchString(common) {
			return true
		}
		if authorshipRe.MatchString(common) {
			return true
		}
	}

	scientific := strings.TrimSpace(record.ScientificName)
	if scientific != "" {
		fields := strings.Fields(scientific)
		// A lone capitalized Latin token is a genus or family, not a binomial.
		if len(fields) == 1 {
			if latinFamilyRe.MatchString(fields[0]) {
				return true
			}
			if common == "" {
				return true
			}
		}
	}

	return false
}
