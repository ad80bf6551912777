// Package testutil provides scriptable test doubles for the llm and rag
// boundaries.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/contextwindows/ctxlab/pkg/llm"
)

// MockLLM is a scriptable llm.Client. By default it echoes the expected
// answer when the context contains it; Respond and Fail override that.
type MockLLM struct {
	mu sync.Mutex

	// Answers maps a question substring to the reply text.
	Answers map[string]string

	// FailAfter makes Query return unsuccessful responses once this many
	// calls have been made. Zero disables it.
	FailAfter int

	// Available is returned by CheckAvailability.
	Available bool

	// Latency is reported on every response.
	Latency float64

	calls   int
	queries []string
}

// NewMockLLM creates an available mock with no scripted answers.
func NewMockLLM() *MockLLM {
	return &MockLLM{
		Answers:   map[string]string{},
		Available: true,
		Latency:   5.0,
	}
}

// Respond scripts a reply for questions containing the given substring.
func (m *MockLLM) Respond(questionSubstring, reply string) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answers[questionSubstring] = reply
	return m
}

// Query implements llm.Client. The reply is the scripted answer if one
// matches, otherwise the first line of the context that contains a word
// from the question, otherwise "I don't know".
func (m *MockLLM) Query(_ context.Context, contextText, question string) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.queries = append(m.queries, question)

	if m.FailAfter > 0 && m.calls > m.FailAfter {
		return &llm.Response{
			Model:     m.Model(),
			Timestamp: time.Now(),
			Success:   false,
			Error:     "mock backend failure",
		}, nil
	}

	text := "I don't know"
	for substr, reply := range m.Answers {
		if strings.Contains(question, substr) {
			text = reply
			break
		}
	}
	if text == "I don't know" {
		if line := bestLine(contextText, question); line != "" {
			text = line
		}
	}

	return &llm.Response{
		Text:       text,
		LatencyMs:  m.Latency,
		TokensUsed: llm.EstimateTokens(contextText) + llm.EstimateTokens(text),
		Model:      m.Model(),
		Timestamp:  time.Now(),
		Success:    true,
	}, nil
}

// bestLine returns the context line sharing the most words with the
// question, so unscripted mocks behave like a model that reads its context.
func bestLine(contextText, question string) string {
	questionWords := strings.Fields(strings.ToLower(strings.Trim(question, "?")))

	var best string
	bestScore := 0
	for _, line := range strings.Split(contextText, "\n") {
		lineLower := strings.ToLower(line)
		score := 0
		for _, w := range questionWords {
			if len(w) > 3 && strings.Contains(lineLower, w) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = strings.TrimSpace(line)
		}
	}
	return best
}

// CheckAvailability implements llm.Client.
func (m *MockLLM) CheckAvailability(context.Context) bool { return m.Available }

// Model implements llm.Client.
func (m *MockLLM) Model() string { return "mock-model" }

// Calls returns how many queries were made.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Queries returns the questions asked, in order.
func (m *MockLLM) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}
