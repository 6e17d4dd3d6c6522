// Package config holds all aura configuration.
// Config is loaded from .aura/config.yaml with environment overrides;
// a missing file yields defaults so a fresh checkout runs without setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all aura configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Workspace is the directory holding .aura/ runtime data.
	Workspace string `yaml:"workspace"`

	// NLU pipeline configuration
	NLU NLUConfig `yaml:"nlu"`

	// Skill dispatch configuration
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Parallel alternative execution
	Executor ExecutorConfig `yaml:"executor"`

	// Background task scheduler
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Reflection journal
	Reflection ReflectionConfig `yaml:"reflection"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "aura",
		Version: "0.3.0",

		Workspace: ".",

		NLU:        DefaultNLUConfig(),
		Dispatch:   DefaultDispatchConfig(),
		Executor:   DefaultExecutorConfig(),
		Scheduler:  DefaultSchedulerConfig(),
		Reflection: DefaultReflectionConfig(),

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultPath returns the conventional config location inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".aura", "config.yaml")
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if ws := os.Getenv("AURA_WORKSPACE"); ws != "" {
		c.Workspace = ws
	}
	if path := os.Getenv("AURA_DB"); path != "" {
		c.Reflection.DatabasePath = path
	}
	if lex := os.Getenv("AURA_LEXICON"); lex != "" {
		c.NLU.LexiconPath = lex
	}
	if os.Getenv("AURA_DEBUG") == "1" || os.Getenv("AURA_DEBUG") == "true" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

// Validate checks cross-field invariants that YAML parsing cannot express.
func (c *Config) Validate() error {
	if c.Executor.ConfidenceThreshold < 0 || c.Executor.ConfidenceThreshold > 1 {
		return fmt.Errorf("executor.confidence_threshold must be in [0,1], got %v",
			c.Executor.ConfidenceThreshold)
	}
	if c.Executor.MaxAlternatives < 0 {
		return fmt.Errorf("executor.max_alternatives must be >= 0, got %d",
			c.Executor.MaxAlternatives)
	}
	if c.NLU.EntityRuleConfidence < c.NLU.PatternConfidence {
		return fmt.Errorf("nlu.entity_rule_confidence (%v) must be >= nlu.pattern_confidence (%v)",
			c.NLU.EntityRuleConfidence, c.NLU.PatternConfidence)
	}
	return nil
}
