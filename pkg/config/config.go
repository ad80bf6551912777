// Package config holds the YAML-backed runtime configuration for the lab:
// which LLM backend to query, how to log, and how experiments execute.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// Config is the complete runtime configuration.
type Config struct {
	LLM         LLMConfig         `yaml:"llm" validate:"required"`
	Logging     LoggingConfig     `yaml:"logging,omitempty"`
	Experiments ExperimentsConfig `yaml:"experiments" validate:"required"`
}

// LLMConfig selects and tunes the completion backend.
type LLMConfig struct {
	// Provider name (ollama, anthropic)
	Provider string `yaml:"provider" validate:"required,oneof=ollama anthropic"`

	// Model identifier (e.g. llama3.2, claude-3-5-haiku-latest)
	Model string `yaml:"model" validate:"required"`

	// Endpoint for HTTP providers; empty uses the provider default.
	Endpoint string `yaml:"endpoint,omitempty" validate:"omitempty,url"`

	// APIKey for hosted providers; falls back to the environment.
	APIKey string `yaml:"api_key,omitempty"`

	Temperature    float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int     `yaml:"max_tokens" validate:"gt=0"`
	TimeoutSeconds int     `yaml:"timeout_seconds" validate:"gt=0"`
	MaxRetries     int     `yaml:"max_retries" validate:"gte=1"`
}

// Timeout returns the request timeout as a duration.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`

	// File receives a copy of the log when set.
	File string `yaml:"file,omitempty"`
}

// ExperimentsConfig controls how experiment runs execute.
type ExperimentsConfig struct {
	OutputDir              string `yaml:"output_dir" validate:"required"`
	Iterations             int    `yaml:"iterations" validate:"gte=1"`
	Parallel               bool   `yaml:"parallel"`
	MaxWorkers             int    `yaml:"max_workers" validate:"gte=0"`
	Seed                   int64  `yaml:"seed"`
	SaveResults            bool   `yaml:"save_results"`
	GenerateVisualizations bool   `yaml:"generate_visualizations"`
}

// Default returns the configuration used when no file is given: a local
// Ollama backend with three sequential iterations per experiment.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "ollama",
			Model:          "llama3.2",
			Temperature:    0.0,
			MaxTokens:      500,
			TimeoutSeconds: 60,
			MaxRetries:     3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Experiments: ExperimentsConfig{
			OutputDir:              "results",
			Iterations:             3,
			MaxWorkers:             4,
			Seed:                   42,
			SaveResults:            true,
			GenerateVisualizations: true,
		},
	}
}

// Load reads, merges over defaults, and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to read config file"),
			errors.Fields{"path": path})
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.InvalidParameter, "failed to parse config file"),
			errors.Fields{"path": path})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags with go-playground/validator.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, errors.ValidationFailed, "invalid configuration")
	}
	return nil
}
