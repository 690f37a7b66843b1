package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmstudyabroad/counselor-bot/internal/config"
	"github.com/mmstudyabroad/counselor-bot/internal/counselor"
	"github.com/mmstudyabroad/counselor-bot/internal/genai"
	"github.com/mmstudyabroad/counselor-bot/internal/knowledge"
	"github.com/mmstudyabroad/counselor-bot/internal/messenger"
	"github.com/mmstudyabroad/counselor-bot/internal/metrics"
	"github.com/mmstudyabroad/counselor-bot/internal/r2client"
)

// The builders below are shared by the server, the MCP server and the
// operator CLI so all three answer and deliver the same way.

// NewObjectStore returns an R2 client when credentials are complete, or nil.
func NewObjectStore(ctx context.Context, cfg *config.Config) (*r2client.Client, error) {
	if !cfg.R2.Complete() {
		return nil, nil
	}
	return r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2.ResolvedEndpoint(),
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretAccessKey,
		BucketName:  cfg.R2.BucketName,
	})
}

// LoadKnowledge loads the table named by KNOWLEDGE_SOURCE.
func LoadKnowledge(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*knowledge.Base, error) {
	src, err := knowledge.ParseSource(cfg.KnowledgeSource)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, config.KnowledgeLoad)
	defer cancel()

	var store knowledge.ObjectStore
	if src.Kind == knowledge.SourceR2 {
		client, err := NewObjectStore(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("knowledge store: %w", err)
		}
		if client == nil {
			return nil, fmt.Errorf("knowledge source %s needs R2 credentials", src)
		}
		store = client
	}

	kb, err := knowledge.Load(ctx, src, store)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.SetKnowledgeEntries(string(src.Kind), kb.Len())
	}
	slog.InfoContext(ctx, "knowledge table loaded", "source", src.String(), "entries", kb.Len())
	return kb, nil
}

// BuildLLMConfig maps the environment configuration onto the generator chain.
func BuildLLMConfig(cfg *config.Config) genai.LLMConfig {
	llmCfg := genai.DefaultLLMConfig()

	llmCfg.OpenAI = genai.ProviderConfig{APIKey: cfg.LLM.OpenAIAPIKey, Model: cfg.LLM.OpenAIModel, BaseURL: cfg.LLM.OpenAIBaseURL}
	llmCfg.Gemini = genai.ProviderConfig{APIKey: cfg.LLM.GeminiAPIKey, Model: cfg.LLM.GeminiModel}
	llmCfg.Groq = genai.ProviderConfig{APIKey: cfg.LLM.GroqAPIKey, Model: cfg.LLM.GroqModel}
	llmCfg.Cerebras = genai.ProviderConfig{APIKey: cfg.LLM.CerebrasAPIKey, Model: cfg.LLM.CerebrasModel}

	if cfg.LLM.MaxTokens > 0 {
		llmCfg.Params.MaxTokens = cfg.LLM.MaxTokens
	}
	llmCfg.Params.Temperature = cfg.LLM.Temperature
	if cfg.LLM.Timeout > 0 {
		llmCfg.RequestTimeout = cfg.LLM.Timeout
	}
	if cfg.LLM.MaxAttempts > 0 {
		llmCfg.RetryConfig.MaxAttempts = cfg.LLM.MaxAttempts
	}

	if len(cfg.LLM.Providers) > 0 {
		providers := make([]genai.Provider, 0, len(cfg.LLM.Providers))
		for _, name := range cfg.LLM.Providers {
			p, err := genai.ParseProvider(name)
			if err != nil {
				slog.Warn("ignoring unknown provider", "name", name)
				continue
			}
			providers = append(providers, p)
		}
		if len(providers) > 0 {
			llmCfg.Providers = providers
		}
	}

	return llmCfg
}

// NewGenerator builds the reply generator, or returns nil when no provider is
// configured.
func NewGenerator(ctx context.Context, cfg *config.Config) *genai.FallbackGenerator {
	if !cfg.HasLLMProvider() {
		slog.InfoContext(ctx, "no LLM provider configured, replies come from the knowledge table")
		return nil
	}
	gen, err := genai.NewGenerator(ctx, BuildLLMConfig(cfg))
	if err != nil {
		slog.WarnContext(ctx, "reply generator initialization failed", "error", err)
		return nil
	}
	return gen
}

// NewCounselor assembles the responder. gen and gate may be nil.
func NewCounselor(cfg *config.Config, kb *knowledge.Base, gen *genai.FallbackGenerator, gate counselor.Gate) *counselor.Counselor {
	opts := []counselor.Option{counselor.WithTimeout(cfg.LLM.Timeout)}
	if gen != nil {
		opts = append(opts, counselor.WithGenerator(gen))
	}
	if gate != nil {
		opts = append(opts, counselor.WithGate(gate))
	}
	return counselor.New(kb, opts...)
}

// NewMessengerClient returns a Graph API client for the configured page.
// limiter may be nil.
func NewMessengerClient(cfg *config.Config, limiter messenger.Waiter, m *metrics.Metrics) *messenger.Client {
	return messenger.NewClient(messenger.ClientConfig{
		BaseURL:       cfg.GraphAPIURL(),
		AccessToken:   cfg.PageAccessToken,
		Timeout:       config.GraphAPIRequest,
		Limiter:       limiter,
		Metrics:       m,
		MaxTextLength: cfg.Bot.MaxMessageLength,
		MaxRetries:    2,
	})
}
