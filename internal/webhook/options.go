package webhook

import (
	"time"

	"github.com/mmstudyabroad/counselor-bot/internal/config"
	"github.com/mmstudyabroad/counselor-bot/internal/logger"
	"github.com/mmstudyabroad/counselor-bot/internal/metrics"
)

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithBotConfig applies the webhook processing limits.
func WithBotConfig(cfg config.BotConfig) HandlerOption {
	return func(h *Handler) {
		if cfg.WebhookTimeout > 0 {
			h.webhookTimeout = cfg.WebhookTimeout
		}
		if cfg.MaxEventsPerWebhook > 0 {
			h.maxEventsPerWebhook = cfg.MaxEventsPerWebhook
		}
		if cfg.SenderParallelism > 0 {
			h.senderParallelism = cfg.SenderParallelism
		}
	}
}

// WithWebhookTimeout sets the timeout for processing one event.
func WithWebhookTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		h.webhookTimeout = timeout
	}
}

// WithAppSecret enables signature verification of POST bodies.
func WithAppSecret(secret string) HandlerOption {
	return func(h *Handler) {
		h.appSecret = secret
	}
}

// WithUserLimiter limits how many messages one user may send.
func WithUserLimiter(l Limiter) HandlerOption {
	return func(h *Handler) {
		h.userLimiter = l
	}
}

// WithStats records which topic answered each reply.
func WithStats(s StatsRecorder) HandlerOption {
	return func(h *Handler) {
		h.stats = s
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = l
	}
}
