package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/logging"
)

// DefaultOllamaEndpoint is the standard local Ollama address.
const DefaultOllamaEndpoint = "http://localhost:11434"

// OllamaClient queries an Ollama-hosted model over its HTTP API.
type OllamaClient struct {
	baseURL string
	model   string
	opts    Options
	http    *http.Client
}

// NewOllamaClient creates a client for the given endpoint and model.
// An empty endpoint falls back to the default local address.
func NewOllamaClient(endpoint, model string, opts ...Option) *OllamaClient {
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}

	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &OllamaClient{
		baseURL: endpoint,
		model:   model,
		opts:    options,
		http:    &http.Client{Timeout: options.Timeout},
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	CreatedAt       string `json:"created_at"`
	Response        string `json:"response"`
	EvalCount       int    `json:"eval_count"`
	PromptEvalCount int    `json:"prompt_eval_count"`
}

// Model implements Client.
func (o *OllamaClient) Model() string { return o.model }

// Query implements Client. Transient failures are retried with exponential
// backoff; a terminal failure is reported as an unsuccessful Response.
func (o *OllamaClient) Query(ctx context.Context, contextText, question string) (*Response, error) {
	if err := validateQuery(question); err != nil {
		return nil, err
	}

	logger := logging.GetLogger()
	prompt := BuildPrompt(contextText, question)

	var lastErr error
	for attempt := 0; attempt < o.opts.MaxRetries; attempt++ {
		if err := errors.CheckContext(ctx, "ollama query"); err != nil {
			return nil, err
		}

		resp, err := o.generate(ctx, prompt)
		if err == nil {
			logger.Debug(ctx, "Query successful: %.2fms, %d tokens", resp.LatencyMs, resp.TokensUsed)
			return resp, nil
		}
		lastErr = err
		logger.Warn(ctx, "Query attempt %d/%d failed: %v", attempt+1, o.opts.MaxRetries, err)

		if attempt < o.opts.MaxRetries-1 {
			backoff := time.Duration(float64(o.opts.InitialBackoff) *
				math.Pow(o.opts.BackoffMultiplier, float64(attempt)))
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.Canceled, "context canceled during retry backoff")
			case <-time.After(backoff):
			}
		}
	}

	logger.Error(ctx, "Query failed after %d attempts: %v", o.opts.MaxRetries, lastErr)
	return failedResponse(o.model, lastErr.Error()), nil
}

func (o *OllamaClient) generate(ctx context.Context, prompt string) (*Response, error) {
	reqBody := ollamaRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: o.opts.Temperature,
			NumPredict:  o.opts.MaxTokens,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidParameter, "failed to marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidParameter, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.http.Do(req)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.LLMGenerationFailed, "failed to send request"),
			errors.Fields{"model": o.model})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.LLMGenerationFailed, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithFields(
			errors.New(errors.LLMGenerationFailed, fmt.Sprintf("API request failed with status code %d", resp.StatusCode)),
			errors.Fields{
				"model":       o.model,
				"status_code": resp.StatusCode,
			})
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to unmarshal response")
	}

	latency := time.Since(start)
	tokens := ollamaResp.EvalCount + ollamaResp.PromptEvalCount
	if tokens == 0 {
		tokens = EstimateTokens(ollamaResp.Response)
	}

	return &Response{
		Text:       ollamaResp.Response,
		LatencyMs:  float64(latency) / float64(time.Millisecond),
		TokensUsed: tokens,
		Model:      o.model,
		Timestamp:  time.Now(),
		Success:    true,
	}, nil
}

// CheckAvailability implements Client by listing installed models.
func (o *OllamaClient) CheckAvailability(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
