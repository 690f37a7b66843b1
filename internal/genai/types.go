// Package genai generates counselor replies with hosted LLM APIs.
//
// Architecture:
//   - OpenAI, Groq and Cerebras: github.com/openai/openai-go/v3 (Groq and
//     Cerebras through their OpenAI-compatible endpoints)
//   - Gemini: google.golang.org/genai
//
// Fallback strategy:
//  1. Provider retry: transient errors retried with full-jitter backoff
//  2. Provider chain: next provider in LLM_PROVIDERS order
package genai

import (
	"context"
	"fmt"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderOpenAI is OpenAI's chat completions API.
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq is Groq's OpenAI-compatible API.
	ProviderGroq Provider = "groq"
	// ProviderCerebras is Cerebras's OpenAI-compatible API.
	ProviderCerebras Provider = "cerebras"
)

// ProviderEndpoint is the default base URL of each OpenAI-compatible provider.
var ProviderEndpoint = map[Provider]string{
	ProviderOpenAI:   "https://api.openai.com/v1/",
	ProviderGroq:     "https://api.groq.com/openai/v1/",
	ProviderCerebras: "https://api.cerebras.ai/v1/",
}

// IsOpenAICompatible returns true if the provider uses OpenAI-compatible API.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// ParseProvider converts a configured provider name.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(name); p {
	case ProviderOpenAI, ProviderGemini, ProviderGroq, ProviderCerebras:
		return p, nil
	default:
		return "", fmt.Errorf("unknown LLM provider %q", name)
	}
}

// Generator produces a reply to userText under systemRole.
type Generator interface {
	// Generate returns the model's text. An empty answer is reported as
	// ErrEmptyResponse, never as "" with a nil error.
	Generate(ctx context.Context, systemRole, userText string) (string, error)
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Model returns the model name requests are sent to.
	Model() string
	// Close releases any resources held by the generator.
	Close() error
}

// Params are the sampling settings shared by every provider.
type Params struct {
	MaxTokens   int
	Temperature float64
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per provider (including initial).
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
}

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	APIKey  string
	Model   string // Provider default when empty
	BaseURL string // Provider default when empty
}

// LLMConfig holds configuration for all LLM providers.
type LLMConfig struct {
	// Providers is the ordered list of providers to try. Providers without an
	// API key are skipped.
	Providers []Provider

	OpenAI   ProviderConfig
	Gemini   ProviderConfig
	Groq     ProviderConfig
	Cerebras ProviderConfig

	Params      Params
	RetryConfig RetryConfig

	// RequestTimeout bounds one shared generation across the whole chain.
	RequestTimeout time.Duration
}

// DefaultModels is the model used for each provider when none is configured.
var DefaultModels = map[Provider]string{
	ProviderOpenAI:   "gpt-4o-mini",
	ProviderGemini:   "gemini-2.5-flash",
	ProviderGroq:     "llama-3.3-70b-versatile",
	ProviderCerebras: "llama-3.3-70b",
}

// DefaultProviders is the default provider order for fallback.
var DefaultProviders = []Provider{ProviderOpenAI, ProviderGemini, ProviderGroq, ProviderCerebras}

// Defaults
const (
	DefaultMaxTokens         = 500
	DefaultTemperature       = 0.7
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
	DefaultRequestTimeout    = 20 * time.Second
)

// HasAnyProvider returns true if at least one listed provider has an API key.
func (c *LLMConfig) HasAnyProvider() bool {
	return len(c.ConfiguredProviders()) > 0
}

// HasProvider returns true if the specified provider is configured with an API key.
func (c *LLMConfig) HasProvider(p Provider) bool {
	pc := c.GetProviderConfig(p)
	return pc != nil && pc.APIKey != ""
}

// GetProviderConfig returns the configuration for a specific provider.
func (c *LLMConfig) GetProviderConfig(p Provider) *ProviderConfig {
	switch p {
	case ProviderOpenAI:
		return &c.OpenAI
	case ProviderGemini:
		return &c.Gemini
	case ProviderGroq:
		return &c.Groq
	case ProviderCerebras:
		return &c.Cerebras
	default:
		return nil
	}
}

// ConfiguredProviders returns the providers with API keys, in c.Providers
// order. Duplicates are dropped.
func (c *LLMConfig) ConfiguredProviders() []Provider {
	result := make([]Provider, 0, len(c.Providers))
	seen := make(map[Provider]bool, len(c.Providers))
	for _, p := range c.Providers {
		if seen[p] || !c.HasProvider(p) {
			continue
		}
		seen[p] = true
		result = append(result, p)
	}
	return result
}
