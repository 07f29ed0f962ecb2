package vocab

import (
	"regexp"
	"strings"

	"github.com/verdantis/plantid/core"
)

// Method identifies which resolution step matched a phrase.
type Method string

const (
	// MethodDirect is an exact synonym lookup.
	MethodDirect Method = "direct"
	// MethodStrip is a lookup after affix stripping.
	MethodStrip Method = "strip"
	// MethodContains is a substring containment match against high-precision cues.
	MethodContains Method = "contains"
	// MethodRule is a last-resort pattern rule for compound descriptors.
	MethodRule Method = "rule"
)

var (
	punctRe      = regexp.MustCompile(`[（）()、,，;；。\.!?！？'"]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	// Affixes that carry size or age, not identity. Longest first so that
	// 多年生 is stripped before 多年.
	stripPrefixes = []string{
		"多年生", "一二年生", "一年生", "二年生", "多年", "一年", "二年",
		"小型", "大型", "小", "大",
	}
	stripSuffixes = []string{
		"葉序", "葉緣", "葉邊", "葉片", "花序", "果實", "種子", "樹皮",
		"葉", "花", "果", "莖", "根", "枝",
		" leaf", " leaves", " margin", " inflorescence",
	}
)

// Tokenizer maps natural-language feature phrases onto canonical trait
// tokens. It is pure and stateless per call and never mutates the vocabulary.
type Tokenizer struct {
	vocab *Vocabulary
}

// NewTokenizer creates a tokenizer over a vocabulary.
func NewTokenizer(v *Vocabulary) *Tokenizer {
	return &Tokenizer{vocab: v}
}

// Vocabulary returns the backing vocabulary.
func (t *Tokenizer) Vocabulary() *Vocabulary {
	return t.vocab
}

// Normalize strips punctuation and whitespace from a raw phrase.
func Normalize(phrase string) string {
	phrase = punctRe.ReplaceAllString(phrase, "")
	phrase = strings.TrimSpace(phrase)
	phrase = strings.ToLower(phrase)
	return phrase
}

// Tokenize resolves a phrase to a canonical trait token. Resolution order,
// first match wins: exact synonym lookup, affix-stripped lookup, substring
// containment, then pattern rules. Returns ok=false for phrases the
// vocabulary cannot place; callers drop those silently on the scoring path.
func (t *Tokenizer) Tokenize(phrase string) (core.TraitToken, Method, bool) {
	tok := Normalize(phrase)
	if tok == "" || isNoSignal(tok) {
		return core.TraitToken{}, "", false
	}

	// 1. Direct match
	if token, _, ok := t.vocab.Lookup(tok); ok {
		return token, MethodDirect, true
	}
	// Multi-word English phrases normalize spaces but keep word order.
	collapsed := whitespaceRe.ReplaceAllString(tok, " ")
	if token, _, ok := t.vocab.Lookup(collapsed); ok {
		return token, MethodDirect, true
	}

	// 2. Affix stripping, then retry exact lookup
	if stripped := stripAffixes(collapsed); stripped != collapsed && stripped != "" {
		if token, _, ok := t.vocab.Lookup(stripped); ok {
			return token, MethodStrip, true
		}
	}

	// 3. Substring containment against high-precision cues
	if token, ok := t.containsMatch(collapsed); ok {
		return token, MethodContains, true
	}

	// 4. Pattern rules for compound descriptors
	if token, ok := ruleMatch(collapsed); ok {
		return token, MethodRule, true
	}

	return core.TraitToken{}, "", false
}

// TokensFromPhrases tokenizes a batch of raw phrases, deduplicating tokens
// while preserving first-seen order. Unmatched phrases are skipped.
func (t *Tokenizer) TokensFromPhrases(phrases []string) []core.TraitToken {
	tokens := make([]core.TraitToken, 0, len(phrases))
	seen := make(map[core.TraitToken]bool, len(phrases))
	for _, phrase := range phrases {
		token, _, ok := t.Tokenize(phrase)
		if !ok || seen[token] {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	return tokens
}

// Unmatched returns the phrases of a batch that the tokenizer could not
// place. Offline vocabulary-growth tooling feeds on this.
func (t *Tokenizer) Unmatched(phrases []string) []string {
	var unmatched []string
	for _, phrase := range phrases {
		if normalized := Normalize(phrase); normalized == "" || isNoSignal(normalized) {
			continue
		}
		if _, _, ok := t.Tokenize(phrase); !ok {
			unmatched = append(unmatched, phrase)
		}
	}
	return unmatched
}

// Source-side placeholders for "nothing observed".
func isNoSignal(tok string) bool {
	switch tok {
	case "未見描述", "未見", "不明", "unknown", "none":
		return true
	}
	return false
}

func stripAffixes(tok string) string {
	for _, prefix := range stripPrefixes {
		if rest, ok := strings.CutPrefix(tok, prefix); ok && rest != "" {
			return rest
		}
	}
	for _, suffix := range stripSuffixes {
		if rest, ok := strings.CutSuffix(tok, suffix); ok && rest != "" {
			return rest
		}
	}
	return tok
}

// Containment cues are limited to leaf arrangement: values like 互生 are
// unambiguous even embedded in a longer sentence, which is not true of
// single-character color or margin cues.
var arrangementCues = []struct {
	canonical string
	cues      []string
}{
	{"alternate", []string{"互生", "alternate"}},
	{"opposite", []string{"對生", "对生", "opposite"}},
	{"whorled", []string{"輪生", "轮生", "whorled"}},
	{"basal", []string{"基生", "蓮座", "叢生", "rosette"}},
}

func (t *Tokenizer) containsMatch(tok string) (core.TraitToken, bool) {
	for _, cue := range arrangementCues {
		for _, s := range cue.cues {
			if strings.Contains(tok, s) {
				return core.TraitToken{Dimension: "leaf_arrangement", Value: cue.canonical}, true
			}
		}
	}
	return core.TraitToken{}, false
}

// ruleMatch handles compound descriptors that do not correspond to a single
// vocabulary entry: margin variants, textures, phenology, inflorescence and
// fruit compounds, color+organ compounds, and special structures.
func ruleMatch(tok string) (core.TraitToken, bool) {
	token := func(dim, value string) (core.TraitToken, bool) {
		return core.TraitToken{Dimension: dim, Value: value}, true
	}

	// Leaf margin
	switch {
	case strings.Contains(tok, "全緣"):
		return token("leaf_margin", "entire")
	case strings.Contains(tok, "鋸齒"):
		return token("leaf_margin", "serrate")
	case strings.Contains(tok, "波狀"):
		return token("leaf_margin", "wavy")
	case strings.Contains(tok, "裂") && strings.Contains(tok, "葉"):
		return token("leaf_margin", "lobed")
	}

	// Texture
	switch {
	case strings.Contains(tok, "革質"):
		return token("leaf_texture", "coriaceous")
	case strings.Contains(tok, "紙質"):
		return token("leaf_texture", "papery")
	case strings.Contains(tok, "肉質"):
		return token("leaf_texture", "succulent")
	}

	// Phenology
	switch tok {
	case "落葉", "落葉性":
		return token("phenology", "deciduous")
	case "常綠", "常綠性":
		return token("phenology", "evergreen")
	case "半常綠":
		return token("phenology", "semi_evergreen")
	}

	if strings.Contains(tok, "特有") {
		return token("endemism", "endemic")
	}

	switch tok {
	case "雌雄異株":
		return token("reproductive_system", "dioecious")
	case "雌雄同株":
		return token("reproductive_system", "monoecious")
	case "兩性花":
		return token("reproductive_system", "bisexual_flower")
	case "單性花":
		return token("reproductive_system", "unisexual_flower")
	}

	// Inflorescence compounds
	if strings.Contains(tok, "花序") || tok == "單生花" || tok == "單生" {
		switch {
		case strings.Contains(tok, "總狀"):
			return token("inflorescence", "raceme")
		case strings.Contains(tok, "圓錐"):
			return token("inflorescence", "panicle")
		case strings.Contains(tok, "聚繖"), strings.Contains(tok, "聚傘"):
			return token("inflorescence", "cyme")
		case strings.Contains(tok, "繖形"), strings.Contains(tok, "傘形"):
			return token("inflorescence", "umbel")
		case strings.Contains(tok, "穗狀"):
			return token("inflorescence", "spike")
		case strings.Contains(tok, "頭狀"):
			return token("inflorescence", "capitulum")
		case strings.Contains(tok, "繖房"):
			return token("inflorescence", "corymb")
		case strings.Contains(tok, "佛焰"):
			return token("inflorescence", "spadix")
		case strings.Contains(tok, "單生"):
			return token("inflorescence", "solitary")
		}
	}

	// Fruit shape compounds
	if strings.Contains(tok, "果") {
		switch {
		case strings.Contains(tok, "球形"):
			return token("fruit_shape", "globose")
		case strings.Contains(tok, "卵形"):
			return token("fruit_shape", "ovoid")
		case strings.Contains(tok, "橢圓"):
			return token("fruit_shape", "ellipsoid")
		}
	}

	// Leaf base compounds
	if strings.Contains(tok, "基部") {
		switch {
		case strings.Contains(tok, "楔形"):
			return token("leaf_base", "cuneate")
		case strings.Contains(tok, "心形"):
			return token("leaf_base", "cordate")
		case strings.Contains(tok, "圓"):
			return token("leaf_base", "rounded")
		}
	}

	// Color+organ compounds
	if strings.Contains(tok, "花") {
		switch {
		case strings.Contains(tok, "白"):
			return token("flower_color", "white")
		case strings.Contains(tok, "黃"):
			return token("flower_color", "yellow")
		case strings.Contains(tok, "紅"):
			return token("flower_color", "red")
		case strings.Contains(tok, "紫"):
			return token("flower_color", "purple")
		case strings.Contains(tok, "粉"):
			return token("flower_color", "pink")
		case strings.Contains(tok, "橙"):
			return token("flower_color", "orange")
		}
	}

	// Special structures
	switch {
	case strings.Contains(tok, "氣生根"), strings.Contains(tok, "氣根"):
		return token("trunk_root", "aerial_root")
	case strings.Contains(tok, "板根"):
		return token("trunk_root", "buttress")
	case strings.Contains(tok, "胎生"):
		return token("special_features", "viviparous")
	case strings.Contains(tok, "紅苞"), strings.Contains(tok, "苞葉"):
		return token("special_features", "bract_red")
	}

	return core.TraitToken{}, false
}
