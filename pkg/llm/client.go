// Package llm provides the text-completion boundary used by experiments:
// a narrow Client contract, HTTP/SDK backends, and retry with exponential
// backoff. Terminal transient failures are returned as unsuccessful
// responses rather than errors so that experiments can degrade to
// zero-score rows instead of aborting.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// Response is the result of one completion query.
type Response struct {
	Text       string    `json:"text"`
	LatencyMs  float64   `json:"latency_ms"`
	TokensUsed int       `json:"tokens_used"`
	Model      string    `json:"model"`
	Timestamp  time.Time `json:"timestamp"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// Client is the text-completion contract consumed by experiments.
type Client interface {
	// Query asks the model the question against the given context.
	// A transient backend failure that exhausts retries is reported as
	// Response{Success: false} with a nil error; only invalid input returns
	// a non-nil error.
	Query(ctx context.Context, contextText, question string) (*Response, error)

	// CheckAvailability reports whether the backend is reachable.
	CheckAvailability(ctx context.Context) bool

	// Model returns the backend model identifier.
	Model() string
}

// Options configure a completion backend. The zero temperature default keeps
// generation deterministic for reproducible experiments.
type Options struct {
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
}

// DefaultOptions returns the standard experiment settings.
func DefaultOptions() Options {
	return Options{
		Temperature:       0.0,
		MaxTokens:         500,
		Timeout:           60 * time.Second,
		MaxRetries:        3,
		InitialBackoff:    time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Option mutates Options.
type Option func(*Options)

func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

func WithBackoff(initial time.Duration, multiplier float64) Option {
	return func(o *Options) {
		o.InitialBackoff = initial
		o.BackoffMultiplier = multiplier
	}
}

// BuildPrompt renders the fixed context/question prompt shape.
func BuildPrompt(contextText, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer: ", contextText, question)
}

// validateQuery rejects an empty question. Contexts may be empty.
func validateQuery(question string) error {
	if strings.TrimSpace(question) == "" {
		return errors.New(errors.InvalidParameter, "question cannot be empty")
	}
	return nil
}

// EstimateTokens approximates token usage when the backend does not report
// it, using the ~4 characters per token heuristic.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// failedResponse builds the terminal-failure response for a model.
func failedResponse(model, errMsg string) *Response {
	return &Response{
		Model:     model,
		Timestamp: time.Now(),
		Success:   false,
		Error:     errMsg,
	}
}
