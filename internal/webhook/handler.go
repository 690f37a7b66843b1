// Package webhook receives Messenger webhook deliveries and answers each
// sender through the counselor.
package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mmstudyabroad/counselor-bot/internal/config"
	"github.com/mmstudyabroad/counselor-bot/internal/counselor"
	"github.com/mmstudyabroad/counselor-bot/internal/ctxutil"
	apperrors "github.com/mmstudyabroad/counselor-bot/internal/errors"
	"github.com/mmstudyabroad/counselor-bot/internal/logger"
	"github.com/mmstudyabroad/counselor-bot/internal/messenger"
	"github.com/mmstudyabroad/counselor-bot/internal/metrics"
	"github.com/mmstudyabroad/counselor-bot/internal/sentry"
)

// Responder resolves a user's text into a reply.
// *counselor.Counselor implements it.
type Responder interface {
	Reply(ctx context.Context, text string) counselor.Reply
}

// Sender delivers replies and sender actions.
// *messenger.Client implements it.
type Sender interface {
	SendText(ctx context.Context, recipientID, text string) ([]string, error)
	SendAction(ctx context.Context, recipientID string, action messenger.Action) error
}

// StatsRecorder counts which topic answered a reply.
type StatsRecorder interface {
	RecordTopicHit(ctx context.Context, entryID, source string) error
}

// Limiter decides whether a key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// Handler handles Messenger webhook requests.
type Handler struct {
	verifyToken string
	appSecret   string
	responder   Responder
	sender      Sender
	stats       StatsRecorder
	userLimiter Limiter
	metrics     *metrics.Metrics
	logger      *logger.Logger
	wg          sync.WaitGroup // Tracks async event processing

	webhookTimeout      time.Duration
	maxEventsPerWebhook int
	senderParallelism   int
}

// NewHandler creates a webhook handler. verifyToken answers subscription
// checks; responder and sender produce and deliver replies.
func NewHandler(verifyToken string, responder Responder, sender Sender, opts ...HandlerOption) *Handler {
	h := &Handler{
		verifyToken:         strings.TrimSpace(verifyToken),
		responder:           responder,
		sender:              sender,
		webhookTimeout:      config.WebhookProcessing,
		maxEventsPerWebhook: 100,
		senderParallelism:   8,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.NewWithWriter("error", io.Discard)
	}
	h.logger = h.logger.WithModule("webhook")
	return h
}

// Verify answers GET /webhook: the subscription handshake, or a usage note
// for a plain visit.
func (h *Handler) Verify(c *gin.Context) {
	mode, hasMode := c.GetQuery("hub.mode")
	token, hasToken := c.GetQuery("hub.verify_token")
	token = strings.TrimSpace(token)

	switch {
	case mode == "subscribe" && hasToken && h.verifyToken != "" && token == h.verifyToken:
		h.logger.Info("Webhook verified")
		c.String(http.StatusOK, c.Query("hub.challenge"))
	case !hasMode && !hasToken:
		c.String(http.StatusOK, UsageText)
	default:
		h.logger.WithField("mode", mode).
			WithField("has_token", hasToken).
			WithField("expected_token_length", len(h.verifyToken)).
			Warn("Webhook verification failed")
		c.AbortWithStatus(http.StatusForbidden)
	}
}

// Handle answers POST /webhook. The delivery is acknowledged at once and the
// events are processed in the background.
func (h *Handler) Handle(c *gin.Context) {
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, config.WebhookMaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WithField("limit", tooLarge.Limit).Warn("Webhook body too large")
			h.recordWebhook("batch", "too_large", 0)
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.WithError(err).Warn("Failed to read webhook body")
		h.recordWebhook("batch", "read_error", 0)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	if err := messenger.VerifySignature(h.appSecret, body, c.GetHeader(messenger.SignatureHeader)); err != nil {
		h.logger.WithError(err).Warn("Rejected webhook with bad signature")
		h.recordWebhook("batch", "invalid_signature", 0)
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	payload, err := messenger.ParsePayload(body)
	if err != nil {
		// Messenger retries non-2xx deliveries; a body we cannot read will not improve
		h.logger.WithError(err).Warn("Ignoring unparsable webhook body")
		h.recordWebhook("batch", "invalid_body", 0)
		c.String(http.StatusOK, EventReceived)
		return
	}

	if !payload.IsPage() {
		h.logger.WithField("object", payload.Object).Info("Ignoring non-page webhook")
		h.recordWebhook("batch", "not_page", 0)
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	c.String(http.StatusOK, EventReceived)

	events := payload.Events()
	if len(events) > h.maxEventsPerWebhook {
		h.logger.WithField("event_count", len(events)).
			WithField("limit", h.maxEventsPerWebhook).
			Warn("Too many events in webhook batch; truncating")
		events = events[:h.maxEventsPerWebhook]
	}
	h.recordWebhook("batch", "received", time.Since(start).Seconds())
	if len(events) == 0 {
		return
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx := ctxutil.WithRequestID(ctxutil.PreserveTracing(c.Request.Context()), requestID)

	h.wg.Go(func() {
		h.dispatch(ctx, events, start)
	})
}

// dispatch processes one delivery. Senders run concurrently up to the
// configured parallelism; each sender's events run in order.
func (h *Handler) dispatch(ctx context.Context, events []messenger.Event, webhookStart time.Time) {
	senders, bySender := messenger.GroupBySender(events)

	var g errgroup.Group
	g.SetLimit(h.senderParallelism)
	for _, psid := range senders {
		g.Go(func() error {
			h.processSender(ctx, psid, bySender[psid])
			return nil
		})
	}
	_ = g.Wait()

	h.logger.WithRequestID(requestIDOf(ctx)).
		WithField("event_count", len(events)).
		WithField("sender_count", len(senders)).
		WithField("batch_duration_ms", time.Since(webhookStart).Milliseconds()).
		Debug("Webhook batch processed")
}

func (h *Handler) processSender(ctx context.Context, psid string, events []messenger.Event) {
	ctx = ctxutil.WithUserID(ctx, psid)

	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).
				WithField("stack", string(debug.Stack())).
				ErrorContext(ctx, "Panic in async event processing")
			sentry.RecoverWithContext(ctx, r)
		}
	}()

	for i := range events {
		h.processEventWithTimeout(ctx, &events[i])
	}
}

// processEventWithTimeout bounds one event, so a slow reply cannot use up
// the time of the sender's later events.
func (h *Handler) processEventWithTimeout(ctx context.Context, ev *messenger.Event) {
	ctx, cancel := context.WithTimeout(ctx, h.webhookTimeout)
	defer cancel()
	h.processEvent(ctx, ev)
}

// processEvent handles a single messaging event.
func (h *Handler) processEvent(ctx context.Context, ev *messenger.Event) {
	start := time.Now()
	kind := ev.Kind()
	log := h.logger.WithField("event_type", kind)

	var err error
	switch kind {
	case messenger.KindMessage:
		ctx = ctxutil.WithMessageID(ctx, ev.Message.Mid)
		err = h.handleMessage(ctx, ev.Sender.ID, ev.Message)
	case messenger.KindEcho:
		log.DebugContext(ctx, "Skipping echo of page message")
		return
	case messenger.KindPostback:
		log.WithField("title", ev.Postback.Title).
			WithField("payload", ev.Postback.Payload).
			InfoContext(ctx, "Postback received")
	case messenger.KindDelivery:
		log.WithField("watermark", ev.Delivery.Watermark).DebugContext(ctx, "Delivery acknowledged")
	case messenger.KindRead:
		log.WithField("watermark", ev.Read.Watermark).DebugContext(ctx, "Read acknowledged")
	default:
		log.DebugContext(ctx, "Unsupported event type")
		return
	}

	status := "success"
	if err != nil {
		status = "error"
		log.WithError(err).ErrorContext(ctx, "Failed to handle event")
		if !errors.Is(err, apperrors.ErrNotConfigured) && !errors.Is(err, context.Canceled) {
			sentry.CaptureExceptionWithContext(ctx, err)
		}
	}
	h.recordWebhook(kind, status, time.Since(start).Seconds())
}

// handleMessage answers a user message. Text wins over attachments; a
// message with attachments only gets a fixed note.
func (h *Handler) handleMessage(ctx context.Context, psid string, msg *messenger.Message) error {
	if msg.Text == "" && len(msg.Attachments) == 0 {
		return nil
	}

	if !h.allowUser(psid) {
		h.logger.WarnContext(ctx, "User rate limit exceeded")
		if h.metrics != nil {
			h.metrics.RecordRateLimiterDrop("user")
		}
		_, err := h.sender.SendText(ctx, psid, RateLimitedReply)
		return err
	}

	if msg.Text != "" {
		if IsPSIDCommand(msg.Text) {
			_, err := h.sender.SendText(ctx, psid, PSIDReply(psid))
			return err
		}
		return h.respond(ctx, psid, msg.Text)
	}

	types := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		types = append(types, a.Type)
	}
	h.logger.WithField("attachment_types", types).InfoContext(ctx, "Attachment received")
	_, err := h.sender.SendText(ctx, psid, AttachmentReply)
	return err
}

// respond shows the typing indicator, resolves text and sends the reply.
func (h *Handler) respond(ctx context.Context, psid, text string) error {
	if err := h.sender.SendAction(ctx, psid, messenger.ActionTypingOn); err != nil {
		h.logger.WithError(err).DebugContext(ctx, "Failed to show typing indicator")
	}

	reply := h.responder.Reply(ctx, text)
	if h.metrics != nil {
		h.metrics.RecordReply(string(reply.Source), reply.EntryID)
	}
	if h.stats != nil {
		if err := h.stats.RecordTopicHit(ctx, reply.EntryID, string(reply.Source)); err != nil {
			h.logger.WithError(err).WarnContext(ctx, "Failed to record topic statistics")
		}
	}

	ids, err := h.sender.SendText(ctx, psid, reply.Text)
	if err != nil {
		return err
	}

	h.logger.WithFields(map[string]any{
		"source":      reply.Source,
		"entry_id":    reply.EntryID,
		"score":       reply.Score,
		"text_length": len(text),
		"parts":       len(ids),
	}).InfoContext(ctx, "Replied to user")
	return nil
}

func (h *Handler) allowUser(psid string) bool {
	return h.userLimiter == nil || h.userLimiter.Allow(psid)
}

func (h *Handler) recordWebhook(eventType, status string, seconds float64) {
	if h.metrics != nil {
		h.metrics.RecordWebhook(eventType, status, seconds)
	}
}

func requestIDOf(ctx context.Context) string {
	id, _ := ctxutil.GetRequestID(ctx)
	return id
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
