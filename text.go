package plantid

import "strings"

// maxQueryRunes bounds the text sent to the embedding service. Vision models
// occasionally dump whole page transcripts into the description field.
const maxQueryRunes = 512

// nonProsePrefixes mark lines that are artifacts of upstream extraction
// rather than plant description.
var nonProsePrefixes = []string{
	"http://", "https://", "data:", "{", "[", "<",
}

// cleanQueryText strips non-prose artifacts and bounds the length of a query
// before embedding. Lines that look like URLs or markup are dropped; the
// remainder is whitespace-collapsed and truncated at a rune boundary.
func cleanQueryText(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		skip := false
		for _, prefix := range nonProsePrefixes {
			if strings.HasPrefix(line, prefix) {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, line)
		}
	}

	cleaned := strings.Join(strings.Fields(strings.Join(kept, " ")), " ")
	runes := []rune(cleaned)
	if len(runes) > maxQueryRunes {
		cleaned = string(runes[:maxQueryRunes])
	}
	return cleaned
}

// fruitMarkers are substrings whose presence means the query is describing
// fruit. Checked against the raw query text, not tokens, since fruit wording
// often fails tokenization.
var fruitMarkers = []string{
	"果", "莢", "fruit", "berry", "drupe", "capsule", "pod",
}

func mentionsFruit(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range fruitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// fruitFocusText narrows a query down to its fruit-describing clauses for
// the enrichment retrieval pass. Falls back to the full text when no clause
// can be isolated.
func fruitFocusText(text string) string {
	split := func(r rune) bool {
		switch r {
		case '，', '。', '、', '；', ',', '.', ';':
			return true
		}
		return false
	}

	var focused []string
	for _, clause := range strings.FieldsFunc(text, split) {
		clause = strings.TrimSpace(clause)
		if clause != "" && mentionsFruit(clause) {
			focused = append(focused, clause)
		}
	}
	if len(focused) == 0 {
		return text
	}
	return strings.Join(focused, "，")
}
