package config

// ReflectionConfig configures the decision journal.
type ReflectionConfig struct {
	// Enabled controls whether decisions are recorded at all.
	Enabled bool `yaml:"enabled"`

	// DatabasePath is the SQLite journal location. Empty means in-memory only.
	DatabasePath string `yaml:"database_path"`

	// FlushInterval is how often the scheduler flushes buffered records.
	FlushInterval string `yaml:"flush_interval"`

	// MaxBuffered caps records held in memory before a forced flush.
	MaxBuffered int `yaml:"max_buffered"`
}

// DefaultReflectionConfig returns sensible defaults.
func DefaultReflectionConfig() ReflectionConfig {
	return ReflectionConfig{
		Enabled:       true,
		DatabasePath:  ".aura/reflection.db",
		FlushInterval: "30s",
		MaxBuffered:   64,
	}
}
