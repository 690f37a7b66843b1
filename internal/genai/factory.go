package genai

import (
	"context"
	"log/slog"
)

// NewGenerator builds the reply generator chain from cfg.
// Providers are tried in cfg.Providers order; those without an API key are
// skipped. Returns nil when no provider is usable, which disables generation.
func NewGenerator(ctx context.Context, cfg LLMConfig) (*FallbackGenerator, error) {
	var chain []Generator

	for _, p := range cfg.ConfiguredProviders() {
		pc := *cfg.GetProviderConfig(p)

		var (
			g   Generator
			err error
		)
		switch p {
		case ProviderGemini:
			var gg *geminiGenerator
			if gg, err = newGeminiGenerator(ctx, pc, cfg.Params); gg != nil {
				g = gg
			}
		default:
			var og *openaiGenerator
			if og, err = newOpenAIGenerator(p, pc, cfg.Params); og != nil {
				g = og
			}
		}
		if err != nil {
			slog.WarnContext(ctx, "failed to create reply generator", "provider", p, "error", err)
			continue
		}
		if g != nil {
			chain = append(chain, g)
		}
	}

	if len(chain) == 0 {
		slog.InfoContext(ctx, "no LLM provider configured, replies come from the knowledge table")
		return nil, nil
	}

	f := NewFallbackGenerator(cfg.RetryConfig, chain...)
	f.timeout = cfg.RequestTimeout
	slog.InfoContext(ctx, "reply generator configured",
		"primary", f.Provider(),
		"model", f.Model(),
		"chain", f.Providers())
	return f, nil
}

// DefaultLLMConfig returns a default LLM configuration.
// API keys must be provided separately.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Providers: DefaultProviders,
		Params: Params{
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
		RetryConfig:    DefaultRetryConfig(),
		RequestTimeout: DefaultRequestTimeout,
	}
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}
