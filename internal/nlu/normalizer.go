package nlu

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer lowercases input, strips combining diacritical marks, removes
// configured filler phrases, and collapses whitespace. It never fails and is
// idempotent: normalize(normalize(x)) == normalize(x).
//
// The only state is the filler list, which is swappable for lexicon hot
// reload; individual Run calls are otherwise pure.
type Normalizer struct {
	mu      sync.RWMutex
	fillers []string // longest-first
}

// NewNormalizer builds a normalizer from the lexicon's filler phrases.
func NewNormalizer(lex *Lexicon) *Normalizer {
	n := &Normalizer{}
	n.SetLexicon(lex)
	return n
}

// SetLexicon swaps the filler configuration (lexicon hot reload).
func (n *Normalizer) SetLexicon(lex *Lexicon) {
	fillers := lex.FillersLongestFirst()
	n.mu.Lock()
	n.fillers = fillers
	n.mu.Unlock()
}

// stripMarks removes Unicode combining marks after NFD decomposition, so
// "abrí" becomes "abri". Transformer errors degrade to the input unchanged.
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Run normalizes text. It always returns a string, possibly empty.
func (n *Normalizer) Run(text string) string {
	lowered := strings.ToLower(text)

	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		stripped = lowered
	}

	n.mu.RLock()
	fillers := n.fillers
	n.mu.RUnlock()

	// Removing a filler can splice its neighbors into a fresh filler
	// occurrence ("por [can you] favor" -> "por favor"), so removal and
	// whitespace collapse repeat until the text stops changing. Each pass
	// strictly shrinks the string, so this terminates.
	out := strings.Join(strings.Fields(stripped), " ")
	for {
		prev := out
		for _, filler := range fillers {
			out = strings.ReplaceAll(out, filler, " ")
		}
		out = strings.Join(strings.Fields(out), " ")
		if out == prev {
			return out
		}
	}
}
