package badger

import (
	"fmt"
	"strings"

	"github.com/verdantis/plantid/core"
)

// Key prefixes for different data types
const (
	corpusRecordPrefix = "correc"
	corpusNamePrefix   = "cornam"
)

// makeCorpusRecordKey generates a key for a corpus record by ID.
func makeCorpusRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", corpusRecordPrefix, id))
}

// makeNameKey generates a key for the name index.
// Names are lowercased and space-collapsed so lookups tolerate casing
// and spacing differences in user input.
func makeNameKey(name string) []byte {
	normalized := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	return []byte(corpusNamePrefix + ":" + normalized)
}
