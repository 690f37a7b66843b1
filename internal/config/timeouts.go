package config

import "time"

// Webhook timeouts.
//
// Messenger expects the webhook to answer with 200 quickly and re-delivers
// events it considers unacknowledged, so replies are produced after the
// response has been written.
const (
	// WebhookProcessing bounds the processing of one webhook event,
	// including reply generation and Graph API calls.
	WebhookProcessing = 60 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout. Webhook payloads are small.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 15 * time.Second

	// WebhookHTTPIdle is the idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second

	// WebhookMaxBodyBytes caps the accepted webhook body.
	WebhookMaxBodyBytes = 1 << 20
)

// Generation timeouts.
const (
	// LLMRequest bounds a single reply-generation call across all providers
	// and retries. Past it, the matched knowledge entry or the fallback text is used.
	LLMRequest = 20 * time.Second
)

// Graph API.
const (
	// GraphAPIRequest is the HTTP client timeout for one Graph API call.
	GraphAPIRequest = 10 * time.Second
)

// Database timeouts.
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals.
const (
	// ProfileCleanupInterval is how often expired cached profiles are deleted.
	ProfileCleanupInterval = 12 * time.Hour

	// ProfileCleanupInitialDelay lets the server settle before the first cleanup.
	ProfileCleanupInitialDelay = 5 * time.Minute

	// RateLimiterCleanupInterval is how often idle per-user limiters are removed.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Knowledge loading.
const (
	// KnowledgeLoad bounds fetching the knowledge table at startup.
	KnowledgeLoad = 30 * time.Second
)

// GracefulShutdown is the default timeout for graceful server shutdown.
const GracefulShutdown = 30 * time.Second
