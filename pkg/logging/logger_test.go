package logging

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput collects entries in memory for assertions.
type captureOutput struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (c *captureOutput) Write(e LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureOutput) Sync() error  { return nil }
func (c *captureOutput) Close() error { return nil }

func TestLoggerSeverityFiltering(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{Severity: WARN, Outputs: []Output{out}})

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	require.Len(t, out.entries, 2)
	assert.Equal(t, "warn message", out.entries[0].Message)
	assert.Equal(t, "error message", out.entries[1].Message)
}

func TestLoggerContextFields(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{out}})

	ctx := WithModelID(context.Background(), "llama2")
	ctx = WithTokenInfo(ctx, &TokenInfo{TotalTokens: 42})

	logger.Info(ctx, "query done")

	require.Len(t, out.entries, 1)
	assert.Equal(t, "llama2", out.entries[0].ModelID)
	require.NotNil(t, out.entries[0].TokenInfo)
	assert.Equal(t, 42, out.entries[0].TokenInfo.TotalTokens)
}

func TestLoggerDefaultFields(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{
		Severity:      INFO,
		Outputs:       []Output{out},
		DefaultFields: map[string]interface{}{"experiment": "needle"},
	})

	logger.Info(context.Background(), "starting")

	require.Len(t, out.entries, 1)
	assert.Equal(t, "needle", out.entries[0].Fields["experiment"])
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, DEBUG, ParseSeverity("DEBUG"))
	assert.Equal(t, ERROR, ParseSeverity("ERROR"))
	assert.Equal(t, INFO, ParseSeverity("not-a-level"))
}

func TestConsoleOutputFormatting(t *testing.T) {
	var buf bytes.Buffer
	out := &ConsoleOutput{writer: &buf, color: false}

	err := out.Write(LogEntry{
		Severity: INFO,
		Message:  "hello",
		File:     "logger.go",
		Line:     12,
		ModelID:  "llama2",
		Fields:   map[string]interface{}{"step": 3},
	})
	require.NoError(t, err)

	line := buf.String()
	assert.Contains(t, line, "INFO")
	assert.Contains(t, line, "[logger.go:12] hello")
	assert.Contains(t, line, "[model=llama2]")
	assert.Contains(t, line, "step=3")
}

func TestConsoleOutputTruncatesPrompts(t *testing.T) {
	var buf bytes.Buffer
	out := &ConsoleOutput{writer: &buf, color: false}

	long := strings.Repeat("x", 500)
	err := out.Write(LogEntry{
		Severity: DEBUG,
		Message:  "llm call",
		Fields:   map[string]interface{}{"prompt": long},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "...")
	assert.Less(t, len(buf.String()), 300)
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	out, err := NewFileOutput(path)
	require.NoError(t, err)

	require.NoError(t, out.Write(LogEntry{Severity: INFO, Message: "persisted", File: "x.go"}))
	require.NoError(t, out.Sync())
	require.NoError(t, out.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), "persisted")
}

func TestGlobalLogger(t *testing.T) {
	out := &captureOutput{}
	custom := NewLogger(Config{Severity: DEBUG, Outputs: []Output{out}})
	SetLogger(custom)
	defer SetLogger(nil)

	GetLogger().Info(context.Background(), "via global")
	require.Len(t, out.entries, 1)
}
