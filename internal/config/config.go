// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and validates them before the server starts.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultLLMProviders is the provider order used when LLM_PROVIDERS is unset.
const DefaultLLMProviders = "openai,gemini,groq,cerebras"

// Config holds all application configuration
type Config struct {
	// Messenger
	PageAccessToken string
	VerifyToken     string
	// VerifyTokenGenerated is true when FB_VERIFY_TOKEN was unset and a random token was generated.
	VerifyTokenGenerated bool
	AppSecret            string
	GraphAPIBaseURL      string
	GraphAPIVersion      string

	// Reply generation
	LLM LLMConfig

	// Knowledge table source: empty (built-in), a .yaml/.yaml.zst path or r2://key.
	KnowledgeSource string

	// R2 / S3 object storage
	R2 R2Config

	// Error tracking (Better Stack Errors via the Sentry SDK)
	SentryToken      string
	SentryHost       string
	SentrySampleRate float64
	Environment      string

	// Better Stack logs
	BetterStackToken    string
	BetterStackEndpoint string

	// Metrics Authentication
	MetricsUsername string // Username for /metrics Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics Basic Auth (empty = no auth)

	// Server
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data
	DataDir         string
	ProfileCacheTTL time.Duration

	Bot BotConfig
}

// LLMConfig configures the external reply generators.
type LLMConfig struct {
	Providers   []string // Ordered provider names (openai, gemini, groq, cerebras)
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration // Bound for one reply generation across providers and retries
	MaxAttempts int           // Attempts per provider before falling back

	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	GeminiModel    string
	GroqAPIKey     string
	GroqModel      string
	CerebrasAPIKey string
	CerebrasModel  string
}

// R2Config holds S3-compatible object storage credentials.
type R2Config struct {
	AccountID       string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
}

// BotConfig holds webhook processing limits.
type BotConfig struct {
	WebhookTimeout time.Duration // Bound for processing one webhook event

	// Per-user message limits (token bucket)
	UserRateBurst  float64
	UserRateRefill float64 // Tokens per second

	// Per-user LLM limits (token bucket + daily cap)
	LLMBurstTokens   float64
	LLMRefillPerHour float64
	LLMDailyLimit    int // 0 disables the daily cap

	SendRateRPS       float64 // Graph API send budget across all users
	SenderParallelism int     // Senders processed concurrently per webhook

	MaxEventsPerWebhook int
	MaxMessageLength    int // Messenger text limit in characters
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PageAccessToken: getEnv(EnvPageAccessToken, ""),
		VerifyToken:     strings.TrimSpace(getEnv(EnvVerifyToken, "")),
		AppSecret:       getEnv(EnvAppSecret, ""),
		GraphAPIBaseURL: getEnv(EnvGraphAPIBaseURL, "https://graph.facebook.com"),
		GraphAPIVersion: getEnv(EnvGraphAPIVersion, "v21.0"),

		LLM: LLMConfig{
			Providers:      parseList(getEnv(EnvLLMProviders, DefaultLLMProviders)),
			MaxTokens:      getIntEnv(EnvLLMMaxTokens, 500),
			Temperature:    getFloatEnv(EnvLLMTemperature, 0.7),
			Timeout:        getDurationEnv(EnvLLMTimeout, LLMRequest),
			MaxAttempts:    getIntEnv(EnvLLMMaxAttempts, 2),
			OpenAIAPIKey:   strings.TrimSpace(getEnv(EnvOpenAIAPIKey, "")),
			OpenAIModel:    getEnv(EnvOpenAIModel, "gpt-4o-mini"),
			OpenAIBaseURL:  getEnv(EnvOpenAIBaseURL, ""),
			GeminiAPIKey:   strings.TrimSpace(getEnv(EnvGeminiAPIKey, "")),
			GeminiModel:    getEnv(EnvGeminiModel, "gemini-2.5-flash"),
			GroqAPIKey:     strings.TrimSpace(getEnv(EnvGroqAPIKey, "")),
			GroqModel:      getEnv(EnvGroqModel, "llama-3.3-70b-versatile"),
			CerebrasAPIKey: strings.TrimSpace(getEnv(EnvCerebrasAPIKey, "")),
			CerebrasModel:  getEnv(EnvCerebrasModel, "llama-3.3-70b"),
		},

		KnowledgeSource: getEnv(EnvKnowledgeSource, ""),

		R2: R2Config{
			AccountID:       getEnv(EnvR2AccountID, ""),
			Endpoint:        getEnv(EnvR2Endpoint, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
		},

		SentryToken:      getEnv(EnvSentryToken, ""),
		SentryHost:       getEnv(EnvSentryHost, ""),
		SentrySampleRate: getFloatEnv(EnvSentrySampleRate, 1.0),
		Environment:      getEnv(EnvEnvironment, "production"),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		Port:            getEnv(EnvPort, "3000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataDir:         getEnv(EnvDataDir, getDefaultDataDir()),
		ProfileCacheTTL: getDurationEnv(EnvProfileCacheTTL, 24*time.Hour),

		Bot: BotConfig{
			WebhookTimeout:      getDurationEnv(EnvWebhookTimeout, WebhookProcessing),
			UserRateBurst:       getFloatEnv(EnvUserRateBurst, 15),
			UserRateRefill:      getFloatEnv(EnvUserRateRefill, 0.1),
			LLMBurstTokens:      getFloatEnv(EnvLLMRateBurst, 20),
			LLMRefillPerHour:    getFloatEnv(EnvLLMRateRefill, 30),
			LLMDailyLimit:       getIntEnv(EnvLLMRateDaily, 150),
			SendRateRPS:         getFloatEnv(EnvSendRateRPS, 50),
			SenderParallelism:   getIntEnv(EnvSenderParallel, 8),
			MaxEventsPerWebhook: 100,
			MaxMessageLength:    2000,
		},
	}

	if cfg.VerifyToken == "" {
		cfg.VerifyToken = randomToken()
		cfg.VerifyTokenGenerated = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration consistency and joins every problem found.
func (c *Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be a port number, got %q", EnvPort, c.Port))
	}
	if c.VerifyToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvVerifyToken))
	}
	if c.GraphAPIBaseURL == "" || c.GraphAPIVersion == "" {
		errs = append(errs, errors.New("graph api base url and version are required"))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.ProfileCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvProfileCacheTTL, c.ProfileCacheTTL))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("llm config: %w", err))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}
	if strings.HasPrefix(c.KnowledgeSource, "r2://") && !c.R2.Complete() {
		errs = append(errs, fmt.Errorf("%s uses r2:// but R2 credentials are incomplete", EnvKnowledgeSource))
	}
	if c.SentryToken != "" && c.SentryHost == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is set", EnvSentryHost, EnvSentryToken))
	}

	return errors.Join(errs...)
}

// Validate checks the generation settings.
func (l LLMConfig) Validate() error {
	var errs []error
	if l.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvLLMMaxTokens, l.MaxTokens))
	}
	if l.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvLLMTimeout, l.Timeout))
	}
	if l.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvLLMMaxAttempts, l.MaxAttempts))
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 2], got %v", EnvLLMTemperature, l.Temperature))
	}
	for _, p := range l.Providers {
		switch p {
		case "openai", "gemini", "groq", "cerebras":
		default:
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", EnvLLMProviders, p))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the webhook processing limits.
func (b BotConfig) Validate() error {
	var errs []error
	if b.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvWebhookTimeout, b.WebhookTimeout))
	}
	if b.UserRateBurst <= 0 || b.UserRateRefill <= 0 {
		errs = append(errs, errors.New("user rate limit burst and refill must be positive"))
	}
	if b.LLMBurstTokens <= 0 || b.LLMRefillPerHour <= 0 {
		errs = append(errs, errors.New("llm rate limit burst and refill must be positive"))
	}
	if b.LLMDailyLimit < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvLLMRateDaily, b.LLMDailyLimit))
	}
	if b.SendRateRPS <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSendRateRPS, b.SendRateRPS))
	}
	if b.SenderParallelism < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvSenderParallel, b.SenderParallelism))
	}
	return errors.Join(errs...)
}

// Complete reports whether every credential needed to reach the bucket is set.
func (r R2Config) Complete() bool {
	return r.BucketName != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" &&
		(r.Endpoint != "" || r.AccountID != "")
}

// ResolvedEndpoint returns the S3 endpoint, deriving the Cloudflare R2 URL from the account ID.
func (r R2Config) ResolvedEndpoint() string {
	if r.Endpoint != "" {
		return r.Endpoint
	}
	if r.AccountID == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.AccountID)
}

// HasLLMProvider returns true if at least one listed provider has an API key.
func (c *Config) HasLLMProvider() bool {
	for _, p := range c.LLM.Providers {
		if c.LLM.APIKey(p) != "" {
			return true
		}
	}
	return false
}

// APIKey returns the key configured for provider, or "".
func (l LLMConfig) APIKey(provider string) string {
	switch provider {
	case "openai":
		return l.OpenAIAPIKey
	case "gemini":
		return l.GeminiAPIKey
	case "groq":
		return l.GroqAPIKey
	case "cerebras":
		return l.CerebrasAPIKey
	}
	return ""
}

// SignatureVerificationEnabled reports whether inbound webhook signatures are checked.
func (c *Config) SignatureVerificationEnabled() bool {
	return c.AppSecret != ""
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "counselor.db")
}

// GraphAPIURL returns the versioned Graph API root.
func (c *Config) GraphAPIURL() string {
	return strings.TrimRight(c.GraphAPIBaseURL, "/") + "/" + c.GraphAPIVersion
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func randomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
