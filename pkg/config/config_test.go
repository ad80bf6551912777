package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout())
	assert.Equal(t, 3, cfg.Experiments.Iterations)
	assert.True(t, cfg.Experiments.SaveResults)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: anthropic
  model: claude-3-5-haiku-latest
  temperature: 0.0
  max_tokens: 300
  timeout_seconds: 30
  max_retries: 2
experiments:
  output_dir: out
  iterations: 5
  parallel: true
  max_workers: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 300, cfg.LLM.MaxTokens)
	assert.Equal(t, 5, cfg.Experiments.Iterations)
	assert.True(t, cfg.Experiments.Parallel)
	// Untouched fields keep defaults.
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Experiments.GenerateVisualizations)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.ResourceNotFound, errors.CodeOf(err))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: carrier-pigeon
  model: llama3.2
experiments:
  output_dir: out
  iterations: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.ValidationFailed, errors.CodeOf(err))
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))
}
