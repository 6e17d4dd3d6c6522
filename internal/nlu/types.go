// Package nlu implements the normalization -> entity extraction -> intent
// parsing pipeline that turns a raw utterance into an IntentResolution.
package nlu

// Well-known slot names. The slot set is fixed by the lexicon and extractor
// configuration; it is never discovered dynamically.
const (
	SlotApp      = "app"
	SlotFile     = "file"
	SlotTime     = "time"
	SlotDate     = "date"
	SlotDuration = "duration"
	SlotNumber   = "number"
)

// IntentUnknown is the sentinel intent returned when neither entity rules nor
// skill patterns resolve the utterance.
const IntentUnknown = "unknown"

// EntitySet maps a slot name to the ordered values matched for it.
// A slot with no matches is present with an empty slice, never absent.
type EntitySet map[string][]string

// NewEntitySet returns an EntitySet with every known slot initialized empty.
func NewEntitySet() EntitySet {
	return EntitySet{
		SlotApp:      {},
		SlotFile:     {},
		SlotTime:     {},
		SlotDate:     {},
		SlotDuration: {},
		SlotNumber:   {},
	}
}

// Has reports whether the slot has at least one value.
func (e EntitySet) Has(slot string) bool {
	return len(e[slot]) > 0
}

// First returns the first value for slot, or "" if the slot is empty.
func (e EntitySet) First(slot string) string {
	if vals := e[slot]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Add appends a value to the slot, skipping duplicates.
func (e EntitySet) Add(slot, value string) {
	for _, v := range e[slot] {
		if v == value {
			return
		}
	}
	e[slot] = append(e[slot], value)
}

// Clone returns a deep copy.
func (e EntitySet) Clone() EntitySet {
	out := make(EntitySet, len(e))
	for slot, vals := range e {
		copied := make([]string, len(vals))
		copy(copied, vals)
		out[slot] = copied
	}
	return out
}

// Alternative is a ranked runner-up intent.
type Alternative struct {
	Intent     string
	Confidence float64
}

// IntentResolution is the pipeline's output: the winning intent, its heuristic
// confidence, and the ranked alternatives that lost to it.
//
// Confidence is deterministic, derived from which stage matched
// (entity rule > skill pattern > fallback); it is not a learned score.
type IntentResolution struct {
	Intent       string
	Confidence   float64
	Alternatives []Alternative
	Entities     EntitySet
	RawText      string
	Normalized   string
}

// IsUnknown reports whether the resolution fell through to the sentinel.
func (r *IntentResolution) IsUnknown() bool {
	return r.Intent == IntentUnknown
}
