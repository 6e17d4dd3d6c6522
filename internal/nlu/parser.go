package nlu

import (
	"regexp"
	"sync"

	"aura/internal/logging"
)

// Built-in intent names produced by the entity-dominant rules.
const (
	IntentOpenApp    = "open_app"
	IntentSearchFile = "search_file"
	IntentSchedule   = "schedule"
	IntentReminder   = "reminder"
)

// PatternSource supplies the fallback patterns in skill-registration order.
// The skill registry implements this; the parser stays free of a dependency
// on the skills package.
type PatternSource interface {
	// IntentPatterns returns (intent name, compiled patterns) pairs in
	// registration order.
	IntentPatterns() []IntentPatterns
}

// IntentPatterns is one skill's contribution to the fallback stage.
type IntentPatterns struct {
	Intent   string
	Patterns []*regexp.Regexp
}

// ParserConfig carries the per-stage confidence scores.
type ParserConfig struct {
	EntityRuleConfidence float64
	PatternConfidence    float64
	FallbackConfidence   float64
}

// Parser resolves an intent name from entities first, then from skill
// patterns, then falls back to unknown. Entity evidence outranks lexical
// patterns: an extracted app name is unambiguous evidence of an open intent
// regardless of phrasing.
type Parser struct {
	mu     sync.RWMutex
	source PatternSource
	cfg    ParserConfig
}

// NewParser creates a parser. source may be nil until skills register.
func NewParser(cfg ParserConfig, source PatternSource) *Parser {
	return &Parser{cfg: cfg, source: source}
}

// SetPatternSource wires the fallback stage after the registry exists.
func (p *Parser) SetPatternSource(source PatternSource) {
	p.mu.Lock()
	p.source = source
	p.mu.Unlock()
}

// entityRule is one priority-ordered entity-dominant rule.
type entityRule struct {
	intent    string
	satisfied func(EntitySet) bool
}

// Priority order is part of the contract: first satisfied rule wins.
var entityRules = []entityRule{
	{IntentOpenApp, func(e EntitySet) bool { return e.Has(SlotApp) }},
	{IntentSearchFile, func(e EntitySet) bool { return e.Has(SlotFile) }},
	{IntentSchedule, func(e EntitySet) bool { return e.Has(SlotTime) || e.Has(SlotDate) }},
	{IntentReminder, func(e EntitySet) bool { return e.Has(SlotNumber) && e.Has(SlotDuration) }},
}

// Parse returns only the winning intent name. Two-stage resolution,
// first match wins; unknown if nothing matches.
func (p *Parser) Parse(normalized string, entities EntitySet) string {
	candidates := p.Candidates(normalized, entities)
	return candidates[0].Intent
}

// Candidates returns every intent the two stages would accept, best first.
// The head is the winner; the tail feeds IntentResolution.Alternatives so the
// parallel executor has ranked fallbacks to try.
func (p *Parser) Candidates(normalized string, entities EntitySet) []Alternative {
	var out []Alternative
	seen := make(map[string]bool)

	// Stage 1: entity-dominant rules in priority order.
	for _, rule := range entityRules {
		if rule.satisfied(entities) && !seen[rule.intent] {
			out = append(out, Alternative{Intent: rule.intent, Confidence: p.cfg.EntityRuleConfidence})
			seen[rule.intent] = true
		}
	}

	// Stage 2: skill patterns in registration order.
	p.mu.RLock()
	source := p.source
	p.mu.RUnlock()

	if source != nil {
		for _, ip := range source.IntentPatterns() {
			if seen[ip.Intent] {
				continue
			}
			for _, re := range ip.Patterns {
				if re.MatchString(normalized) {
					out = append(out, Alternative{Intent: ip.Intent, Confidence: p.cfg.PatternConfidence})
					seen[ip.Intent] = true
					break
				}
			}
		}
	}

	if len(out) == 0 {
		logging.NLUDebug("no intent for %q, falling back to %s", normalized, IntentUnknown)
		out = append(out, Alternative{Intent: IntentUnknown, Confidence: p.cfg.FallbackConfidence})
	}

	return out
}
