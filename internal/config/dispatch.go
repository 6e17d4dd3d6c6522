package config

// DispatchConfig configures the skill registry and dispatcher.
type DispatchConfig struct {
	// DefaultTimeout bounds a single skill execution.
	DefaultTimeout string `yaml:"default_timeout"`

	// SearchRoot is the directory the search_file skill walks.
	SearchRoot string `yaml:"search_root"`

	// MaxSearchResults caps the search_file payload.
	MaxSearchResults int `yaml:"max_search_results"`
}

// DefaultDispatchConfig returns sensible defaults.
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		DefaultTimeout:   "10s",
		SearchRoot:       ".",
		MaxSearchResults: 25,
	}
}
