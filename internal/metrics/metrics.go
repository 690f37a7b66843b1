package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// Reply metrics
	RepliesTotal      *prometheus.CounterVec
	TopicMatchesTotal *prometheus.CounterVec

	// LLM metrics
	LLMTotal           *prometheus.CounterVec
	LLMDuration        *prometheus.HistogramVec
	LLMFallbackTotal   *prometheus.CounterVec
	LLMFallbackLatency *prometheus.HistogramVec
	LLMRetryTotal      *prometheus.CounterVec

	// Graph API metrics
	GraphAPIRequestsTotal   *prometheus.CounterVec
	GraphAPIDurationSeconds *prometheus.HistogramVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec
	RateLimiterDropped      *prometheus.CounterVec
	RateLimiterUsers        *prometheus.GaugeVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Knowledge metrics
	KnowledgeEntries *prometheus.GaugeVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Webhook metrics
		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "counselor_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 20, 30}, // Includes LLM round trips
			},
			[]string{"event_type"}, // event_type: message, postback, attachment, command
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_webhook_requests_total",
				Help: "Total number of webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error, skipped
		),

		// Reply metrics
		RepliesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_replies_total",
				Help: "Total number of replies by source",
			},
			[]string{"source"}, // source: fallback, generic, generated, knowledge
		),

		TopicMatchesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_topic_matches_total",
				Help: "Total number of messages matched to each knowledge entry",
			},
			[]string{"entry"},
		),

		// LLM metrics
		LLMTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_llm_requests_total",
				Help: "Total number of reply generation requests by provider and status",
			},
			[]string{"provider", "status"}, // status: success, timeout, rate_limit, server_error, ...
		),

		LLMDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "counselor_llm_duration_seconds",
				Help:    "Successful reply generation duration in seconds by provider",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 12, 20},
			},
			[]string{"provider"},
		),

		LLMFallbackTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_llm_fallback_total",
				Help: "Total number of successful provider fallbacks",
			},
			[]string{"from", "to"},
		),

		LLMFallbackLatency: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "counselor_llm_fallback_latency_seconds",
				Help:    "Total generation latency when a fallback provider answered",
				Buckets: []float64{0.5, 1, 2, 4, 8, 12, 20},
			},
			[]string{"from", "to"},
		),

		LLMRetryTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_llm_retries_total",
				Help: "Total number of same-provider retries",
			},
			[]string{"provider"},
		),

		// Graph API metrics
		GraphAPIRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_graph_api_requests_total",
				Help: "Total number of Graph API calls by operation and status",
			},
			[]string{"operation", "status"}, // operation: send, action, profile
		),

		GraphAPIDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "counselor_graph_api_duration_seconds",
				Help:    "Graph API call duration in seconds by operation",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		),

		// HTTP metrics
		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: invalid_signature, invalid_body, timeout, etc.
		),

		// Cache metrics
		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_cache_hits_total",
				Help: "Total number of cache hits by module",
			},
			[]string{"module"},
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_cache_misses_total",
				Help: "Total number of cache misses by module",
			},
			[]string{"module"},
		),

		// Rate limiter metrics
		RateLimiterWaitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "counselor_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for rate limiter token by limiter type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5}, // 1ms to 5s
			},
			[]string{"limiter_type"}, // limiter_type: send
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: llm, user, send
		),

		RateLimiterUsers: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "counselor_rate_limiter_active_keys",
				Help: "Number of keys currently tracked by a keyed rate limiter",
			},
			[]string{"limiter_type"},
		),

		// Singleflight metrics
		SingleflightDedupTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "counselor_singleflight_dedup_total",
				Help: "Total number of deduplicated requests (requests that waited instead of executing)",
			},
			[]string{"module"}, // module: llm, profile
		),

		// Knowledge metrics
		KnowledgeEntries: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "counselor_knowledge_entries",
				Help: "Number of knowledge entries loaded, by source",
			},
			[]string{"source"}, // source: builtin, file, r2
		),
	}

	return m
}

// RecordWebhook records a processed webhook event
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordReply records a resolved reply and the entry it matched, if any.
func (m *Metrics) RecordReply(source, entryID string) {
	m.RepliesTotal.WithLabelValues(source).Inc()
	if entryID != "" {
		m.TopicMatchesTotal.WithLabelValues(entryID).Inc()
	}
}

// RecordLLM records one generation attempt chain against a provider.
func (m *Metrics) RecordLLM(provider, status string, duration float64) {
	m.LLMTotal.WithLabelValues(provider, status).Inc()
	if status == "success" {
		m.LLMDuration.WithLabelValues(provider).Observe(duration)
	}
}

// RecordLLMFallback records a provider fallback that produced an answer.
func (m *Metrics) RecordLLMFallback(from, to string, totalDuration float64) {
	m.LLMFallbackTotal.WithLabelValues(from, to).Inc()
	m.LLMFallbackLatency.WithLabelValues(from, to).Observe(totalDuration)
}

// RecordLLMRetry records a same-provider retry
func (m *Metrics) RecordLLMRetry(provider string) {
	m.LLMRetryTotal.WithLabelValues(provider).Inc()
}

// RecordGraphAPI records a Graph API call
func (m *Metrics) RecordGraphAPI(operation, status string, duration float64) {
	m.GraphAPIRequestsTotal.WithLabelValues(operation, status).Inc()
	m.GraphAPIDurationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(module string) {
	m.CacheHitsTotal.WithLabelValues(module).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(module string) {
	m.CacheMissesTotal.WithLabelValues(module).Inc()
}

// RecordRateLimiterWait records time spent waiting for rate limiter
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterUsers sets the number of keys a keyed limiter tracks
func (m *Metrics) SetRateLimiterUsers(limiterType string, count int) {
	m.RateLimiterUsers.WithLabelValues(limiterType).Set(float64(count))
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

// SetKnowledgeEntries records the size of the loaded knowledge table
func (m *Metrics) SetKnowledgeEntries(source string, count int) {
	m.KnowledgeEntries.Reset()
	m.KnowledgeEntries.WithLabelValues(source).Set(float64(count))
}
