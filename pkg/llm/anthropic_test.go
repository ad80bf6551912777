package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

func TestNewAnthropicClientRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	client, err := NewAnthropicClient("", "claude-3-5-haiku-latest")
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))
}

func TestNewAnthropicClientFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	client, err := NewAnthropicClient("", "claude-3-5-haiku-latest")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-latest", client.Model())
}

func TestNewAnthropicClientOptions(t *testing.T) {
	client, err := NewAnthropicClient("explicit-key", "claude-3-5-haiku-latest",
		WithMaxTokens(100),
		WithTemperature(0.7))
	require.NoError(t, err)
	assert.Equal(t, 100, client.opts.MaxTokens)
	assert.Equal(t, 0.7, client.opts.Temperature)
}
