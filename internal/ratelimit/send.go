package ratelimit

import (
	"context"
	"time"

	"github.com/mmstudyabroad/counselor-bot/internal/metrics"
)

// SendLimiter is the process-wide budget for Graph API calls, shared by all
// senders so bursts of webhooks cannot exceed the page's send rate.
type SendLimiter struct {
	*Limiter
	metrics *metrics.Metrics
}

// NewSendLimiter allows rps calls per second with a burst of one second's worth.
// m may be nil.
func NewSendLimiter(rps float64, m *metrics.Metrics) *SendLimiter {
	return &SendLimiter{
		Limiter: New(rps, rps),
		metrics: m,
	}
}

// Wait blocks until a call may be made and records the time spent waiting.
func (s *SendLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	err := s.Limiter.Wait(ctx)
	if s.metrics != nil {
		if err != nil {
			s.metrics.RecordRateLimiterDrop("send")
		} else {
			s.metrics.RecordRateLimiterWait("send", time.Since(start).Seconds())
		}
	}
	return err
}
