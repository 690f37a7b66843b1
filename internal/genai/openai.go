package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiGenerator answers through a chat completions endpoint. It serves
// OpenAI itself and the OpenAI-compatible providers (Groq, Cerebras).
type openaiGenerator struct {
	client   openai.Client
	model    string
	provider Provider
	params   Params
}

// newOpenAIGenerator creates a generator for an OpenAI-compatible provider.
// Returns nil if apiKey is empty (provider disabled).
func newOpenAIGenerator(provider Provider, cfg ProviderConfig, params Params, opts ...option.RequestOption) (*openaiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		if baseURL, ok = ProviderEndpoint[provider]; !ok {
			return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModels[provider]
	}

	// Retries are handled by WithRetry so backoff and fallback stay in one place
	opts = append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &openaiGenerator{
		client:   openai.NewClient(opts...),
		model:    model,
		provider: provider,
		params:   params,
	}, nil
}

// Generate sends one chat completion.
func (g *openaiGenerator) Generate(ctx context.Context, systemRole, userText string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemRole),
			openai.UserMessage(userText),
		},
		Temperature: openai.Float(g.params.Temperature),
	}
	if g.params.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.params.MaxTokens))
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.DebugContext(ctx, "chat completion failed",
			"provider", g.provider,
			"model", g.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", g.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", WrapError(ErrEmptyResponse, g.provider, 0)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", WrapError(ErrEmptyResponse, g.provider, 0)
	}

	slog.DebugContext(ctx, "chat completion finished",
		"provider", g.provider,
		"model", g.model,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason,
		"duration_ms", duration.Milliseconds())

	return text, nil
}

// wrapError attaches the HTTP status and retry hint of an API error.
func (g *openaiGenerator) wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return WrapError(err, g.provider, 0)
	}
	wrapped := &LLMError{
		Err:        err,
		StatusCode: apiErr.StatusCode,
		Provider:   g.provider,
	}
	if apiErr.Response != nil {
		wrapped.RetryAfter = ParseRetryAfter(apiErr.Response.Header)
	}
	return wrapped
}

// Provider returns the provider type for this generator.
func (g *openaiGenerator) Provider() Provider {
	return g.provider
}

// Model returns the model name.
func (g *openaiGenerator) Model() string {
	return g.model
}

// Close releases resources. The HTTP client needs no cleanup.
func (g *openaiGenerator) Close() error {
	return nil
}
