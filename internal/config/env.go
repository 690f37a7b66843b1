package config

// Environment variable keys. The Messenger and OpenAI names match the
// variables used by existing deployments of the bot.
//
//nolint:gosec // Keys, not credentials.
const (
	// Messenger
	EnvPageAccessToken = "FB_PAGE_ACCESS_TOKEN"
	EnvVerifyToken     = "FB_VERIFY_TOKEN"
	EnvAppSecret       = "FB_APP_SECRET"
	EnvGraphAPIVersion = "FB_GRAPH_API_VERSION"
	EnvGraphAPIBaseURL = "FB_GRAPH_API_BASE_URL"

	// Server
	EnvPort            = "WEBHOOK_PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvWebhookTimeout  = "WEBHOOK_TIMEOUT"
	EnvEnvironment     = "APP_ENV"

	// Data
	EnvDataDir         = "DATA_DIR"
	EnvProfileCacheTTL = "PROFILE_CACHE_TTL"
	EnvKnowledgeSource = "KNOWLEDGE_SOURCE"

	// LLM
	EnvLLMProviders   = "LLM_PROVIDERS"
	EnvLLMMaxTokens   = "LLM_MAX_TOKENS"
	EnvLLMTemperature = "LLM_TEMPERATURE"
	EnvLLMTimeout     = "LLM_TIMEOUT"
	EnvLLMMaxAttempts = "LLM_MAX_ATTEMPTS"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvOpenAIModel    = "OPENAI_MODEL"
	EnvOpenAIBaseURL  = "OPENAI_BASE_URL"
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvGeminiModel    = "GEMINI_MODEL"
	EnvGroqAPIKey     = "GROQ_API_KEY"
	EnvGroqModel      = "GROQ_MODEL"
	EnvCerebrasAPIKey = "CEREBRAS_API_KEY"
	EnvCerebrasModel  = "CEREBRAS_MODEL"

	// Rate limits
	EnvUserRateBurst  = "USER_RATE_BURST"
	EnvUserRateRefill = "USER_RATE_REFILL"
	EnvLLMRateBurst   = "LLM_RATE_BURST"
	EnvLLMRateRefill  = "LLM_RATE_REFILL_PER_HOUR"
	EnvLLMRateDaily   = "LLM_RATE_DAILY"
	EnvSendRateRPS    = "SEND_RATE_RPS"
	EnvSenderParallel = "WEBHOOK_SENDER_PARALLELISM"

	// R2 / S3 knowledge storage
	EnvR2AccountID       = "R2_ACCOUNT_ID"
	EnvR2Endpoint        = "R2_ENDPOINT"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "R2_BUCKET_NAME"

	// Sentry (Better Stack Errors)
	EnvSentryToken      = "SENTRY_TOKEN"
	EnvSentryHost       = "SENTRY_HOST"
	EnvSentrySampleRate = "SENTRY_SAMPLE_RATE"

	// Better Stack logs
	EnvBetterStackToken    = "BETTERSTACK_SOURCE_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Metrics auth
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"
)
