package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiGenerator answers through the Gemini API.
type geminiGenerator struct {
	client *genai.Client
	model  string
	params Params
}

// newGeminiGenerator creates a Gemini generator.
// Returns nil if the API key is empty (provider disabled).
func newGeminiGenerator(ctx context.Context, cfg ProviderConfig, params Params) (*geminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModels[ProviderGemini]
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiGenerator{
		client: client,
		model:  model,
		params: params,
	}, nil
}

// Generate sends one generateContent request.
func (g *geminiGenerator) Generate(ctx context.Context, systemRole, userText string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemRole, genai.RoleUser),
		Temperature:       genai.Ptr(float32(g.params.Temperature)),
		// Thinking tokens count against MaxOutputTokens; short replies do not need them
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}
	if g.params.MaxTokens > 0 {
		config.MaxOutputTokens = int32(g.params.MaxTokens)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userText), config)
	duration := time.Since(start)

	if err != nil {
		slog.DebugContext(ctx, "generate content failed",
			"provider", ProviderGemini,
			"model", g.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", WrapError(err, ProviderGemini, apiErr.Code)
		}
		return "", WrapError(err, ProviderGemini, 0)
	}

	if resp == nil {
		return "", WrapError(ErrEmptyResponse, ProviderGemini, 0)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", WrapError(ErrEmptyResponse, ProviderGemini, 0)
	}

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "generate content finished",
			"provider", ProviderGemini,
			"model", g.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds())
	}

	return text, nil
}

// Provider returns the provider type for this generator.
func (g *geminiGenerator) Provider() Provider {
	return ProviderGemini
}

// Model returns the model name.
func (g *geminiGenerator) Model() string {
	return g.model
}

// Close releases resources.
// genai.Client does not require explicit cleanup in the current SDK version.
func (g *geminiGenerator) Close() error {
	return nil
}
