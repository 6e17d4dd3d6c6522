package config

// ExecutorConfig configures low-confidence parallel alternative execution.
//
// The threshold and alternative cap were inherited as tuned values from the
// original assistant; they are configuration, not constants, because nothing
// proves 0.8/2 are more than reasonable defaults.
type ExecutorConfig struct {
	// ConfidenceThreshold gates parallel execution: resolutions at or above
	// it dispatch directly.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// MaxAlternatives is how many ranked alternatives join the primary.
	MaxAlternatives int `yaml:"max_alternatives"`

	// Timeout is the overall wall-clock deadline for one attempt batch.
	Timeout string `yaml:"timeout"`
}

// DefaultExecutorConfig returns sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		ConfidenceThreshold: 0.8,
		MaxAlternatives:     2,
		Timeout:             "3s",
	}
}
