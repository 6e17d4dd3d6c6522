package config

// NLUConfig configures the normalization/extraction/parsing pipeline.
type NLUConfig struct {
	// LexiconPath points at the YAML lexicon (fillers, apps, patterns).
	// Empty means compiled-in defaults only.
	LexiconPath string `yaml:"lexicon_path"`

	// WatchLexicon enables fsnotify hot reload of the lexicon file.
	WatchLexicon bool `yaml:"watch_lexicon"`

	// Confidence assigned when an entity-dominant rule resolves the intent.
	EntityRuleConfidence float64 `yaml:"entity_rule_confidence"`

	// Confidence assigned when a skill pattern regex resolves the intent.
	PatternConfidence float64 `yaml:"pattern_confidence"`

	// Confidence assigned to the unknown fallback.
	FallbackConfidence float64 `yaml:"fallback_confidence"`

	// MaxFuzzyDistance is the Levenshtein budget for app-name matching.
	// 0 disables fuzzy matching.
	MaxFuzzyDistance int `yaml:"max_fuzzy_distance"`
}

// DefaultNLUConfig returns defaults matching the tuned behavior of the
// production assistant this engine was extracted from.
func DefaultNLUConfig() NLUConfig {
	return NLUConfig{
		LexiconPath:          "",
		WatchLexicon:         false,
		EntityRuleConfidence: 0.9,
		PatternConfidence:    0.65,
		FallbackConfidence:   0.2,
		MaxFuzzyDistance:     1,
	}
}
