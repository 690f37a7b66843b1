// Package sentry provides Sentry SDK initialization for Better Stack error tracking integration.
// It wraps the Sentry Go SDK to simplify configuration and integration with Better Stack's
// error collection backend.
package sentry

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/mmstudyabroad/counselor-bot/internal/ctxutil"
)

// Config holds Sentry configuration for Better Stack integration.
type Config struct {
	// Token is the Better Stack Errors application token.
	Token string

	// Host is the Better Stack Errors ingesting host (e.g., "errors.betterstack.com").
	Host string

	// Environment identifies the deployment environment (e.g., "production", "staging").
	Environment string

	// Release identifies the application release version.
	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0 = 100%).
	SampleRate float64

	// Debug enables Sentry SDK debug logging.
	Debug bool
}

// Initialize sets up the Sentry SDK with Better Stack configuration.
// If Token is empty, Sentry is disabled and nil is returned.
// The DSN is constructed as: https://$TOKEN@$HOST/1
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil // Sentry disabled
	}

	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	// The project ID (/1) is required by the SDK but ignored by Better Stack
	dsn := fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host)

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
		BeforeSend:       scrubEvent,
	})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException captures an error and sends it to Sentry.
func CaptureException(err error) {
	sentry.CaptureException(err)
}

// CaptureExceptionWithContext captures an error tagged with the sender and
// message IDs carried by ctx.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		applyContextTags(ctx, scope)
		hub.CaptureException(err)
	})
}

// RecoverWithContext reports a recovered panic value.
func RecoverWithContext(ctx context.Context, recovered any) {
	if recovered == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		applyContextTags(ctx, scope)
		hub.RecoverWithContext(ctx, recovered)
	})
}

func applyContextTags(ctx context.Context, scope *sentry.Scope) {
	if userID := ctxutil.GetUserID(ctx); userID != "" {
		scope.SetUser(sentry.User{ID: userID})
	}
	if requestID, ok := ctxutil.GetRequestID(ctx); ok {
		scope.SetTag("request_id", requestID)
	}
	if mid := ctxutil.GetMessageID(ctx); mid != "" {
		scope.SetTag("mid", mid)
	}
}

// tokenPattern matches Graph API access tokens embedded in URLs and messages.
var tokenPattern = regexp.MustCompile(`(access_token=)[^&\s"]+`)

// scrubEvent removes page access tokens from outgoing events.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil {
		return nil
	}
	event.Message = redact(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = redact(event.Exception[i].Value)
	}
	if event.Request != nil {
		event.Request.URL = redact(event.Request.URL)
		if q, err := url.ParseQuery(event.Request.QueryString); err == nil && q.Has("access_token") {
			q.Set("access_token", "[redacted]")
			event.Request.QueryString = q.Encode()
		}
	}
	return event
}

func redact(s string) string {
	return tokenPattern.ReplaceAllString(s, "${1}[redacted]")
}
