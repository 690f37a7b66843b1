// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	requestIDKey contextKey = "ctxutil.requestID"
	messageIDKey contextKey = "ctxutil.messageID"
)

// WithUserID adds the Messenger sender PSID to the context.
// It keys per-user rate limits and log correlation.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the PSID stored in ctx, or "".
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithMessageID adds the Messenger message ID (mid) to the context.
func WithMessageID(ctx context.Context, mid string) context.Context {
	return context.WithValue(ctx, messageIDKey, mid)
}

// GetMessageID returns the Messenger message ID stored in ctx, or "".
func GetMessageID(ctx context.Context) string {
	if mid, ok := ctx.Value(messageIDKey).(string); ok {
		return mid
	}
	return ""
}

// PreserveTracing creates a detached context that keeps only tracing values.
// The result is independent of the parent's cancellation and deadline, so
// webhook processing can continue after the HTTP response has been written.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if userID := GetUserID(ctx); userID != "" {
		newCtx = WithUserID(newCtx, userID)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}
	if mid := GetMessageID(ctx); mid != "" {
		newCtx = WithMessageID(newCtx, mid)
	}

	return newCtx
}
