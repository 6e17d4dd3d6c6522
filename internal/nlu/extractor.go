package nlu

import (
	"regexp"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// Extractor pulls typed slots out of normalized text with word lists and a
// fixed set of named regexes. Absence of a match yields an empty slice for
// the slot, never a missing key; malformed or empty input never fails.
type Extractor struct {
	mu           sync.RWMutex
	apps         []AppSurface // longest surface form first
	maxFuzzyDist int
}

// Slot regexes, applied to normalized (lowercase, diacritic-free) text.
var (
	// "abri chrome", "open chrome", "lanza spotify"
	openAppRe = regexp.MustCompile(`\b(?:abri|abre|open|lanza|launch|start|ejecuta|inicia)\s+([a-z0-9][a-z0-9 ._-]*)`)

	// 24h or 12h clock, plus "a las 5" / "at 5"
	timeRe = regexp.MustCompile(`\b(?:(?:[01]?\d|2[0-3]):[0-5]\d(?:\s*(?:am|pm))?|(?:a las|at)\s+\d{1,2}(?::[0-5]\d)?(?:\s*(?:am|pm))?)\b`)

	// 12/31, 31/12/2026, plus relative day words
	dateRe = regexp.MustCompile(`\b(?:\d{1,2}/\d{1,2}(?:/\d{2,4})?|hoy|manana|today|tomorrow|lunes|martes|miercoles|jueves|viernes|sabado|domingo|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	// "5 minutos", "2 horas", "30 seconds", "10 min"
	durationRe = regexp.MustCompile(`\b\d+\s*(?:segundos?|minutos?|horas?|seconds?|minutes?|hours?|secs?|mins?|hrs?)\b`)

	numberRe = regexp.MustCompile(`\b\d+\b`)

	// "informe.pdf", "notas.txt"
	fileRe = regexp.MustCompile(`\b[\w-]+\.(?:pdf|docx?|xlsx?|pptx?|txt|md|csv|png|jpe?g|gif|mp[34]|zip)\b`)
)

// NewExtractor builds an extractor from the lexicon's app vocabulary.
// maxFuzzyDist is the Levenshtein budget for near-miss app names (0 disables).
func NewExtractor(lex *Lexicon, maxFuzzyDist int) *Extractor {
	e := &Extractor{maxFuzzyDist: maxFuzzyDist}
	e.SetLexicon(lex)
	return e
}

// SetLexicon swaps the app vocabulary (lexicon hot reload).
func (e *Extractor) SetLexicon(lex *Lexicon) {
	apps := lex.AppNames()
	e.mu.Lock()
	e.apps = apps
	e.mu.Unlock()
}

// Extract returns the EntitySet for the given normalized text.
func (e *Extractor) Extract(text string) EntitySet {
	entities := NewEntitySet()
	if strings.TrimSpace(text) == "" {
		return entities
	}

	e.extractApp(text, entities)
	e.extractRegex(fileRe, SlotFile, text, entities)
	e.extractRegex(timeRe, SlotTime, text, entities)
	e.extractRegex(dateRe, SlotDate, text, entities)
	e.extractRegex(durationRe, SlotDuration, text, entities)
	e.extractRegex(numberRe, SlotNumber, text, entities)

	return entities
}

// extractApp tries, in order: direct surface-form membership, the
// "open <app>" capture with exact then fuzzy matching.
func (e *Extractor) extractApp(text string, entities EntitySet) {
	e.mu.RLock()
	apps := e.apps
	fuzzy := e.maxFuzzyDist
	e.mu.RUnlock()

	// (a) direct membership, longest surface form first so "google chrome"
	// resolves before "chrome".
	for _, app := range apps {
		if containsWord(text, app.Surface) {
			entities.Add(SlotApp, app.Canonical)
			return
		}
	}

	// (b) "open <candidate>": exact surface, then bounded edit distance for
	// near misses like "chorme".
	m := openAppRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	candidate := strings.TrimSpace(m[1])
	if candidate == "" {
		return
	}
	// The capture is greedy; try shrinking from the full tail down to the
	// first word so "open google chrome now" still resolves.
	words := strings.Fields(candidate)
	for n := len(words); n >= 1; n-- {
		sub := strings.Join(words[:n], " ")
		for _, app := range apps {
			if sub == app.Surface {
				entities.Add(SlotApp, app.Canonical)
				return
			}
		}
	}
	if fuzzy > 0 {
		first := words[0]
		for _, app := range apps {
			if levenshtein.ComputeDistance(first, app.Surface) <= fuzzy {
				entities.Add(SlotApp, app.Canonical)
				return
			}
		}
	}
}

// extractRegex appends every match of re in left-to-right order.
func (e *Extractor) extractRegex(re *regexp.Regexp, slot, text string, entities EntitySet) {
	for _, m := range re.FindAllString(text, -1) {
		entities.Add(slot, strings.TrimSpace(m))
	}
}

// containsWord reports whether phrase occurs in text on word boundaries.
// Plain substring search would make "arte" match inside "cuarteto".
func containsWord(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		leftOK := start == 0 || text[start-1] == ' '
		rightOK := end == len(text) || text[end] == ' '
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}
