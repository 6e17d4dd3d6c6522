package config

// SchedulerConfig configures the background housekeeping loop.
type SchedulerConfig struct {
	// PollInterval bounds how long the loop sleeps when no task is due.
	PollInterval string `yaml:"poll_interval"`

	// StopTimeout bounds how long Stop waits for the loop to drain.
	StopTimeout string `yaml:"stop_timeout"`
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		PollInterval: "250ms",
		StopTimeout:  "2s",
	}
}
