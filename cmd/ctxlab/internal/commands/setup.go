package commands

import (
	"strings"

	"github.com/contextwindows/ctxlab/pkg/config"
	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/llm"
	"github.com/contextwindows/ctxlab/pkg/logging"
)

// loadConfig returns the file-backed configuration when a path is given,
// otherwise the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// setupLogging installs the process logger: console always, plus a file
// copy when configured. Verbose forces DEBUG regardless of config.
func setupLogging(cfg config.LoggingConfig, verbose bool) error {
	severity := logging.ParseSeverity(strings.ToUpper(cfg.Level))
	if verbose {
		severity = logging.DEBUG
	}

	outputs := []logging.Output{logging.NewConsoleOutput(false)}
	if cfg.File != "" {
		fileOutput, err := logging.NewFileOutput(cfg.File)
		if err != nil {
			return err
		}
		outputs = append(outputs, fileOutput)
	}

	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: severity,
		Outputs:  outputs,
	}))
	return nil
}

// buildClient constructs the completion backend named by the configuration.
func buildClient(cfg config.LLMConfig) (llm.Client, error) {
	opts := []llm.Option{
		llm.WithTemperature(cfg.Temperature),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithTimeout(cfg.Timeout()),
		llm.WithMaxRetries(cfg.MaxRetries),
	}

	switch cfg.Provider {
	case "ollama":
		return llm.NewOllamaClient(cfg.Endpoint, cfg.Model, opts...), nil
	case "anthropic":
		return llm.NewAnthropicClient(cfg.APIKey, cfg.Model, opts...)
	default:
		return nil, errors.WithFields(
			errors.New(errors.InvalidParameter, "unknown LLM provider"),
			errors.Fields{"provider": cfg.Provider})
	}
}
