package vocab

import "github.com/verdantis/plantid/core"

// Value is one canonical value of a trait dimension, with its scoring weight
// bounds and the natural-language synonyms that resolve to it.
type Value struct {
	Canonical  string
	BaseWeight float64
	WeightCap  float64
	Synonyms   []string
}

// Dimension is a named axis of plant morphology owning an ordered set of
// canonical values. Dimension identifiers are globally unique and stable
// across corpus rebuilds; weights are keyed by them.
type Dimension struct {
	ID string

	// GateOnly dimensions never contribute to the positive feature score;
	// they exist solely for contradiction gating. Life form is gate-only
	// because it is unreliable from images.
	GateOnly bool

	Values []Value
}

type entry struct {
	dimension string
	value     Value
	gateOnly  bool
}

// Vocabulary is the static table of trait dimensions, with a reverse index
// from synonym to canonical token. Built once, read-only afterwards, safe to
// share across goroutines.
type Vocabulary struct {
	dimensions []Dimension
	byID       map[string]*Dimension
	index      map[string]entry // synonym -> owning value, first registration wins
}

// New builds a vocabulary from the given dimensions. Synonym collisions across
// values are tolerated: the first registered value wins, matching the
// tokenizer's first-match resolution order. Canonical value strings are
// themselves registered as synonyms.
func New(dimensions []Dimension) *Vocabulary {
	v := &Vocabulary{
		dimensions: dimensions,
		byID:       make(map[string]*Dimension, len(dimensions)),
		index:      make(map[string]entry),
	}
	for i := range dimensions {
		dim := &dimensions[i]
		v.byID[dim.ID] = dim
		for j, val := range dim.Values {
			val = withDefaults(val)
			dim.Values[j] = val
			v.register(val.Canonical, dim, val)
			for _, syn := range val.Synonyms {
				v.register(syn, dim, val)
			}
		}
	}
	return v
}

func (v *Vocabulary) register(synonym string, dim *Dimension, val Value) {
	if synonym == "" {
		return
	}
	if _, exists := v.index[synonym]; exists {
		return
	}
	v.index[synonym] = entry{dimension: dim.ID, value: val, gateOnly: dim.GateOnly}
}

// Dimensions returns the vocabulary's dimensions in registration order.
func (v *Vocabulary) Dimensions() []Dimension {
	return v.dimensions
}

// Dimension looks up a dimension by identifier.
func (v *Vocabulary) Dimension(id string) (Dimension, bool) {
	dim, ok := v.byID[id]
	if !ok {
		return Dimension{}, false
	}
	return *dim, true
}

// GateOnly reports whether a dimension is excluded from positive scoring.
func (v *Vocabulary) GateOnly(dimensionID string) bool {
	dim, ok := v.byID[dimensionID]
	return ok && dim.GateOnly
}

// Lookup resolves an exact synonym to its canonical token and weight bounds.
func (v *Vocabulary) Lookup(synonym string) (core.TraitToken, Value, bool) {
	e, ok := v.index[synonym]
	if !ok {
		return core.TraitToken{}, Value{}, false
	}
	return core.TraitToken{Dimension: e.dimension, Value: e.value.Canonical}, e.value, true
}

// Bounds returns the base weight and cap for a canonical token.
// Unregistered tokens get zero bounds and ok=false.
func (v *Vocabulary) Bounds(token core.TraitToken) (base, cap float64, ok bool) {
	dim, found := v.byID[token.Dimension]
	if !found {
		return 0, 0, false
	}
	for _, val := range dim.Values {
		if val.Canonical == token.Value {
			return val.BaseWeight, val.WeightCap, true
		}
	}
	return 0, 0, false
}
