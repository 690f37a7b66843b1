package logger

import (
	"context"
	"log/slog"

	"github.com/mmstudyabroad/counselor-bot/internal/ctxutil"
)

// ContextHandler enriches records with tracing values stored in the context:
// the Messenger sender PSID (user_id), the inbound request ID and the
// Messenger message ID (mid).
//
// Canceling the context does not affect record processing.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a new ContextHandler that wraps the provided handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds context values as attributes and delegates to the wrapped handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if userID := ctxutil.GetUserID(ctx); userID != "" {
			r.AddAttrs(slog.String("user_id", userID))
		}
		if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
			r.AddAttrs(slog.String("request_id", requestID))
		}
		if mid := ctxutil.GetMessageID(ctx); mid != "" {
			r.AddAttrs(slog.String("mid", mid))
		}
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler wrapping the handler with attrs applied.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a new ContextHandler wrapping the handler with the group applied.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}
