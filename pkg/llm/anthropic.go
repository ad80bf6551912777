package llm

import (
	"context"
	goerrors "errors"
	"math"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/logging"
)

// AnthropicClient queries Anthropic's Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	opts   Options
}

// NewAnthropicClient creates a client for the given model. An empty apiKey
// falls back to the ANTHROPIC_API_KEY environment variable.
func NewAnthropicClient(apiKey, model string, opts ...Option) (*AnthropicClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New(errors.InvalidParameter, "API key is required")
	}

	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(options.Timeout),
	)

	return &AnthropicClient{
		client: &client,
		model:  model,
		opts:   options,
	}, nil
}

// Model implements Client.
func (a *AnthropicClient) Model() string { return a.model }

// Query implements Client.
func (a *AnthropicClient) Query(ctx context.Context, contextText, question string) (*Response, error) {
	if err := validateQuery(question); err != nil {
		return nil, err
	}

	logger := logging.GetLogger()
	prompt := BuildPrompt(contextText, question)

	var lastErr error
	for attempt := 0; attempt < a.opts.MaxRetries; attempt++ {
		if err := errors.CheckContext(ctx, "anthropic query"); err != nil {
			return nil, err
		}

		resp, err := a.generate(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		logger.Warn(ctx, "Query attempt %d/%d failed: %v", attempt+1, a.opts.MaxRetries, err)

		if attempt < a.opts.MaxRetries-1 {
			backoff := time.Duration(float64(a.opts.InitialBackoff) *
				math.Pow(a.opts.BackoffMultiplier, float64(attempt)))
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.Canceled, "context canceled during retry backoff")
			case <-time.After(backoff):
			}
		}
	}

	logger.Error(ctx, "Query failed after %d attempts: %v", a.opts.MaxRetries, lastErr)
	return failedResponse(a.model, lastErr.Error()), nil
}

func (a *AnthropicClient) generate(ctx context.Context, prompt string) (*Response, error) {
	start := time.Now()

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: anthropic.Model(a.model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
		MaxTokens:   int64(a.opts.MaxTokens),
		Temperature: anthropic.Float(a.opts.Temperature),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if goerrors.As(err, &apiErr) {
			logging.GetLogger().Error(ctx, "Anthropic API error: status code %d", apiErr.StatusCode)
		}
		return nil, errors.WithFields(
			errors.Wrap(err, errors.LLMGenerationFailed, "failed to generate response"),
			errors.Fields{"model": a.model})
	}

	if message == nil || len(message.Content) == 0 {
		return nil, errors.New(errors.LLMGenerationFailed, "received empty content from Anthropic API")
	}

	var responseText string
	if block := message.Content[0]; block.Type == "text" {
		responseText = block.Text
	}

	return &Response{
		Text:       responseText,
		LatencyMs:  float64(time.Since(start)) / float64(time.Millisecond),
		TokensUsed: int(message.Usage.InputTokens + message.Usage.OutputTokens),
		Model:      a.model,
		Timestamp:  time.Now(),
		Success:    true,
	}, nil
}

// CheckAvailability implements Client with a minimal single-token request.
func (a *AnthropicClient) CheckAvailability(ctx context.Context) bool {
	_, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: anthropic.Model(a.model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
		MaxTokens: 1,
	})
	return err == nil
}
