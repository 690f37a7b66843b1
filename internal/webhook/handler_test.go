package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmstudyabroad/counselor-bot/internal/config"
	"github.com/mmstudyabroad/counselor-bot/internal/counselor"
	"github.com/mmstudyabroad/counselor-bot/internal/ctxutil"
	"github.com/mmstudyabroad/counselor-bot/internal/messenger"
	"github.com/mmstudyabroad/counselor-bot/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testVerifyToken = "verify-me"
	testAppSecret   = "app-secret"
)

type sentMessage struct {
	PSID string
	Text string
}

type stubSender struct {
	mu      sync.Mutex
	texts   []sentMessage
	actions []sentMessage
	err     error
}

func (s *stubSender) SendText(_ context.Context, psid, text string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.texts = append(s.texts, sentMessage{psid, text})
	return []string{fmt.Sprintf("mid.%d", len(s.texts))}, nil
}

func (s *stubSender) SendAction(_ context.Context, psid string, action messenger.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, sentMessage{psid, string(action)})
	return nil
}

func (s *stubSender) sent() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.texts...)
}

func (s *stubSender) sentTo(psid string) []string {
	var out []string
	for _, m := range s.sent() {
		if m.PSID == psid {
			out = append(out, m.Text)
		}
	}
	return out
}

// echoResponder replies "re: <text>" and records the PSID carried by ctx.
type echoResponder struct {
	mu    sync.Mutex
	users []string
	panic bool
}

func (r *echoResponder) Reply(ctx context.Context, text string) counselor.Reply {
	if r.panic {
		panic("boom")
	}
	r.mu.Lock()
	r.users = append(r.users, ctxutil.GetUserID(ctx))
	r.mu.Unlock()
	return counselor.Reply{Text: "re: " + text, Source: counselor.SourceKnowledge, EntryID: "ged", Score: 1}
}

type stubStats struct {
	mu   sync.Mutex
	hits []string
}

func (s *stubStats) RecordTopicHit(_ context.Context, entryID, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = append(s.hits, entryID+"/"+source)
	return nil
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func newTestHandler(t *testing.T, opts ...HandlerOption) (*Handler, *stubSender, *echoResponder, *gin.Engine) {
	t.Helper()
	sender := &stubSender{}
	responder := &echoResponder{}
	opts = append([]HandlerOption{WithAppSecret(testAppSecret), WithWebhookTimeout(5 * time.Second)}, opts...)
	h := NewHandler(testVerifyToken, responder, sender, opts...)

	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Handle)
	return h, sender, responder, r
}

func post(t *testing.T, r *gin.Engine, body string, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sign {
		req.Header.Set(messenger.SignatureHeader, messenger.Sign(testAppSecret, []byte(body)))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func waitIdle(t *testing.T, h *Handler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))
}

// pageBody builds a page payload with one messaging event per JSON fragment.
func pageBody(events ...string) string {
	return `{"object":"page","entry":[{"id":"PAGE","time":1,"messaging":[` + strings.Join(events, ",") + `]}]}`
}

func textEvent(psid, mid, text string) string {
	b, _ := json.Marshal(map[string]any{
		"sender":    map[string]string{"id": psid},
		"recipient": map[string]string{"id": "PAGE"},
		"timestamp": 1,
		"message":   map[string]string{"mid": mid, "text": text},
	})
	return string(b)
}

func TestVerify(t *testing.T) {
	t.Parallel()
	_, _, _, r := newTestHandler(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"subscribe", "?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", http.StatusOK, "12345"},
		{"token trimmed", "?hub.mode=subscribe&hub.verify_token=%20verify-me%20&hub.challenge=c", http.StatusOK, "c"},
		{"plain visit", "", http.StatusOK, UsageText},
		{"wrong token", "?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=c", http.StatusForbidden, ""},
		{"wrong mode", "?hub.mode=unsubscribe&hub.verify_token=verify-me&hub.challenge=c", http.StatusForbidden, ""},
		{"token only", "?hub.verify_token=verify-me", http.StatusForbidden, ""},
		{"mode only", "?hub.mode=subscribe", http.StatusForbidden, ""},
		{"challenge only", "?hub.challenge=c", http.StatusOK, UsageText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestVerify_EmptyConfiguredToken(t *testing.T) {
	t.Parallel()
	h := NewHandler("", &echoResponder{}, &stubSender{})
	r := gin.New()
	r.GET("/webhook", h.Verify)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=&hub.challenge=c", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandle_Responses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		sign       bool
		wantStatus int
		wantBody   string
	}{
		{"missing signature", pageBody(), false, http.StatusForbidden, ""},
		{"page event", pageBody(), true, http.StatusOK, EventReceived},
		{"unparsable body", "not json", true, http.StatusOK, EventReceived},
		{"non-page object", `{"object":"user","entry":[]}`, true, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _, _, r := newTestHandler(t)
			w := post(t, r, tt.body, tt.sign)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			waitIdle(t, h)
		})
	}
}

func TestHandle_BadSignature(t *testing.T) {
	t.Parallel()
	h, sender, _, r := newTestHandler(t)

	body := pageBody(textEvent("U1", "m1", "GED"))
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(messenger.SignatureHeader, messenger.Sign("wrong-secret", []byte(body)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	waitIdle(t, h)
	assert.Empty(t, sender.sent())
}

func TestHandle_NoSecretSkipsVerification(t *testing.T) {
	t.Parallel()
	sender := &stubSender{}
	h := NewHandler(testVerifyToken, &echoResponder{}, sender)
	r := gin.New()
	r.POST("/webhook", h.Handle)

	w := post(t, r, pageBody(textEvent("U1", "m1", "hello")), false)
	assert.Equal(t, http.StatusOK, w.Code)
	waitIdle(t, h)
	assert.Equal(t, []string{"re: hello"}, sender.sentTo("U1"))
}

func TestHandle_BodyTooLarge(t *testing.T) {
	t.Parallel()
	_, _, _, r := newTestHandler(t)

	big := `{"object":"page","pad":"` + strings.Repeat("x", config.WebhookMaxBodyBytes) + `"}`
	w := post(t, r, big, true)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHandle_TextMessage(t *testing.T) {
	t.Parallel()
	stats := &stubStats{}
	m := metrics.New(prometheus.NewRegistry())
	h, sender, responder, r := newTestHandler(t, WithStats(stats), WithMetrics(m))

	w := post(t, r, pageBody(textEvent("U1", "m1", "Tell me about GED")), true)
	require.Equal(t, http.StatusOK, w.Code)
	waitIdle(t, h)

	assert.Equal(t, []sentMessage{{"U1", "re: Tell me about GED"}}, sender.sent())
	assert.Equal(t, []sentMessage{{"U1", string(messenger.ActionTypingOn)}}, sender.actions)
	assert.Equal(t, []string{"U1"}, responder.users, "responder sees the sender PSID")
	assert.Equal(t, []string{"ged/knowledge"}, stats.hits)

	assert.InDelta(t, 1, testutil.ToFloat64(m.RepliesTotal.WithLabelValues("knowledge")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues("message", "success")), 0)
}

func TestHandle_PSIDCommand(t *testing.T) {
	t.Parallel()
	h, sender, responder, r := newTestHandler(t)

	post(t, r, pageBody(textEvent("1234567890", "m1", "  My PSID ")), true)
	waitIdle(t, h)

	assert.Equal(t, []string{PSIDReply("1234567890")}, sender.sentTo("1234567890"))
	assert.Empty(t, responder.users, "PSID command bypasses the counselor")
	assert.Empty(t, sender.actions)
}

func TestHandle_AttachmentOnly(t *testing.T) {
	t.Parallel()
	h, sender, responder, r := newTestHandler(t)

	ev := `{"sender":{"id":"U1"},"recipient":{"id":"PAGE"},"timestamp":1,"message":{"mid":"m1","attachments":[{"type":"image","payload":{"url":"https://example.com/x.png"}}]}}`
	post(t, r, pageBody(ev), true)
	waitIdle(t, h)

	assert.Equal(t, []string{AttachmentReply}, sender.sentTo("U1"))
	assert.Empty(t, responder.users)
}

func TestHandle_TextWithAttachment(t *testing.T) {
	t.Parallel()
	h, sender, _, r := newTestHandler(t)

	ev := `{"sender":{"id":"U1"},"recipient":{"id":"PAGE"},"timestamp":1,"message":{"mid":"m1","text":"IGCSE?","attachments":[{"type":"file","payload":{}}]}}`
	post(t, r, pageBody(ev), true)
	waitIdle(t, h)

	assert.Equal(t, []string{"re: IGCSE?"}, sender.sentTo("U1"), "text is answered instead of the attachment note")
}

func TestHandle_IgnoredEvents(t *testing.T) {
	t.Parallel()
	h, sender, responder, r := newTestHandler(t)

	body := pageBody(
		`{"sender":{"id":"PAGE"},"recipient":{"id":"U1"},"timestamp":1,"message":{"mid":"m1","text":"echo","is_echo":true}}`,
		`{"sender":{"id":"U1"},"recipient":{"id":"PAGE"},"timestamp":2,"postback":{"title":"Start","payload":"GET_STARTED"}}`,
		`{"sender":{"id":"U1"},"recipient":{"id":"PAGE"},"timestamp":3,"delivery":{"watermark":3}}`,
		`{"sender":{"id":"U1"},"recipient":{"id":"PAGE"},"timestamp":4,"read":{"watermark":4}}`,
		`{"sender":{"id":"U1"},"recipient":{"id":"PAGE"},"timestamp":5,"message":{"mid":"m2"}}`,
		`{"recipient":{"id":"PAGE"},"timestamp":6,"message":{"mid":"m3","text":"no sender"}}`,
	)
	w := post(t, r, body, true)
	assert.Equal(t, http.StatusOK, w.Code)
	waitIdle(t, h)

	assert.Empty(t, sender.sent())
	assert.Empty(t, responder.users)
}

func TestHandle_PerSenderOrder(t *testing.T) {
	t.Parallel()
	h, sender, _, r := newTestHandler(t, WithBotConfig(config.BotConfig{SenderParallelism: 4}))

	var events []string
	for i := range 5 {
		for _, psid := range []string{"A", "B", "C"} {
			events = append(events, textEvent(psid, fmt.Sprintf("%s%d", psid, i), fmt.Sprintf("q%d", i)))
		}
	}
	post(t, r, pageBody(events...), true)
	waitIdle(t, h)

	want := []string{"re: q0", "re: q1", "re: q2", "re: q3", "re: q4"}
	for _, psid := range []string{"A", "B", "C"} {
		assert.Equal(t, want, sender.sentTo(psid), "sender %s", psid)
	}
}

// slowResponder takes delay per reply unless ctx ends first.
type slowResponder struct {
	delay time.Duration
}

func (r slowResponder) Reply(ctx context.Context, text string) counselor.Reply {
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
	}
	return counselor.Reply{Text: "re: " + text, Source: counselor.SourceGenerated}
}

// ctxSender fails once ctx is done, like a real Graph API call.
type ctxSender struct {
	stubSender
}

func (s *ctxSender) SendText(ctx context.Context, psid, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.stubSender.SendText(ctx, psid, text)
}

func TestHandle_EachEventGetsItsOwnTimeout(t *testing.T) {
	t.Parallel()
	sender := &ctxSender{}
	h := NewHandler(testVerifyToken, slowResponder{delay: 80 * time.Millisecond}, sender,
		WithAppSecret(testAppSecret), WithWebhookTimeout(150*time.Millisecond))
	r := gin.New()
	r.POST("/webhook", h.Handle)

	post(t, r, pageBody(
		textEvent("A", "m1", "q1"),
		textEvent("A", "m2", "q2"),
		textEvent("A", "m3", "q3"),
	), true)
	waitIdle(t, h)

	assert.Equal(t, []string{"re: q1", "re: q2", "re: q3"}, sender.sentTo("A"))
}

func TestHandle_MaxEventsPerWebhook(t *testing.T) {
	t.Parallel()
	h, sender, _, r := newTestHandler(t, WithBotConfig(config.BotConfig{MaxEventsPerWebhook: 2}))

	post(t, r, pageBody(
		textEvent("U1", "m1", "one"),
		textEvent("U1", "m2", "two"),
		textEvent("U1", "m3", "three"),
	), true)
	waitIdle(t, h)

	assert.Equal(t, []string{"re: one", "re: two"}, sender.sentTo("U1"))
}

func TestHandle_UserRateLimited(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	h, sender, responder, r := newTestHandler(t, WithUserLimiter(denyAll{}), WithMetrics(m))

	post(t, r, pageBody(textEvent("U1", "m1", "GED")), true)
	waitIdle(t, h)

	assert.Equal(t, []string{RateLimitedReply}, sender.sentTo("U1"))
	assert.Empty(t, responder.users)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimiterDropped.WithLabelValues("user")), 0)
}

func TestHandle_SendFailure(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	h, sender, _, r := newTestHandler(t, WithMetrics(m))
	sender.err = errors.New("graph down")

	w := post(t, r, pageBody(textEvent("U1", "m1", "GED")), true)
	assert.Equal(t, http.StatusOK, w.Code)
	waitIdle(t, h)

	assert.InDelta(t, 1, testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues("message", "error")), 0)
}

func TestHandle_PanicRecovered(t *testing.T) {
	t.Parallel()
	sender := &stubSender{}
	h := NewHandler(testVerifyToken, &echoResponder{panic: true}, sender)
	r := gin.New()
	r.POST("/webhook", h.Handle)

	w := post(t, r, pageBody(textEvent("U1", "m1", "hi"), textEvent("U2", "m2", "hi")), false)
	assert.Equal(t, http.StatusOK, w.Code)
	waitIdle(t, h)
	assert.Empty(t, sender.sent())
}

func TestHandle_WithCounselor(t *testing.T) {
	t.Parallel()
	sender := &stubSender{}
	h := NewHandler(testVerifyToken, counselor.New(nil), sender)
	r := gin.New()
	r.POST("/webhook", h.Handle)

	post(t, r, pageBody(textEvent("U1", "m1", "hello"), textEvent("U1", "m2", "👋")), false)
	waitIdle(t, h)

	replies := sender.sentTo("U1")
	require.Len(t, replies, 2)
	assert.NotEmpty(t, replies[0])
	assert.NotContains(t, replies[0], "**", "replies are plain text")
	assert.Equal(t, counselor.New(nil).Resolve(context.Background(), "👋"), replies[1])
}

func TestShutdown_ContextCanceled(t *testing.T) {
	t.Parallel()
	h := NewHandler(testVerifyToken, &echoResponder{}, &stubSender{})

	h.wg.Add(1)
	defer h.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Shutdown(ctx), context.Canceled)
}
