package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/mmstudyabroad/counselor-bot/internal/errors"
	"github.com/mmstudyabroad/counselor-bot/internal/metrics"
)

// Action is a sender action shown in the conversation.
type Action string

// Sender actions accepted by the Send API.
const (
	ActionTypingOn  Action = "typing_on"
	ActionTypingOff Action = "typing_off"
	ActionMarkSeen  Action = "mark_seen"
)

// ParseAction validates a sender action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.TrimSpace(s)); a {
	case ActionTypingOn, ActionTypingOff, ActionMarkSeen:
		return a, nil
	default:
		return "", apperrors.NewValidationError("action", fmt.Sprintf("unknown sender action %q (want typing_on, typing_off or mark_seen)", s))
	}
}

// Profile is the public profile of a user as seen by the page.
type Profile struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

// profileFields is requested from the user profile API.
const profileFields = "first_name,last_name,profile_pic"

// Waiter blocks until an outbound call may be made.
// *ratelimit.SendLimiter implements it.
type Waiter interface {
	Wait(ctx context.Context) error
}

// ClientConfig configures a Graph API client.
type ClientConfig struct {
	BaseURL       string // Versioned root, e.g. https://graph.facebook.com/v21.0
	AccessToken   string // Page access token; empty disables sending
	Timeout       time.Duration
	Limiter       Waiter           // Optional send budget
	Metrics       *metrics.Metrics // Optional
	MaxTextLength int              // Characters per message; 0 means MaxTextLength
	MaxRetries    int              // Retries of throttled or failed calls
	RetryDelay    time.Duration
	HTTPClient    *http.Client // Optional; overrides Timeout
}

// Client calls the Graph API Send and User Profile endpoints.
// It is safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	limiter       Waiter
	metrics       *metrics.Metrics
	maxTextLength int
	maxRetries    int
	retryDelay    time.Duration
}

// NewClient creates a Graph API client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	maxLen := cfg.MaxTextLength
	if maxLen <= 0 || maxLen > MaxTextLength {
		maxLen = MaxTextLength
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		token:         cfg.AccessToken,
		limiter:       cfg.Limiter,
		metrics:       cfg.Metrics,
		maxTextLength: maxLen,
		maxRetries:    max(cfg.MaxRetries, 0),
		retryDelay:    retryDelay,
	}
}

// Configured reports whether a page access token is set.
func (c *Client) Configured() bool {
	return c.token != ""
}

type sendRequest struct {
	Recipient     Party        `json:"recipient"`
	Message       *textMessage `json:"message,omitempty"`
	SenderAction  Action       `json:"sender_action,omitempty"`
	MessagingType string       `json:"messaging_type,omitempty"`
}

type textMessage struct {
	Text string `json:"text"`
}

type sendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

type errorResponse struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// SendText sends text to recipientID as a RESPONSE message, split into as
// many messages as the length limit requires. It returns the message IDs of
// the parts that were sent; on error the IDs of earlier parts are returned
// with it.
func (c *Client) SendText(ctx context.Context, recipientID, text string) ([]string, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("send message: page access token: %w", apperrors.ErrNotConfigured)
	}
	if strings.TrimSpace(recipientID) == "" {
		return nil, apperrors.NewValidationError("recipient_id", "must not be empty")
	}
	parts := SplitText(text, c.maxTextLength)
	if len(parts) == 0 {
		return nil, apperrors.ErrEmptyMessage
	}

	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		var resp sendResponse
		err := c.call(ctx, "send_message", http.MethodPost, "/me/messages", nil, sendRequest{
			Recipient:     Party{ID: recipientID},
			Message:       &textMessage{Text: part},
			MessagingType: "RESPONSE",
		}, &resp)
		if err != nil {
			return ids, err
		}
		ids = append(ids, resp.MessageID)
	}
	return ids, nil
}

// SendAction shows a sender action such as the typing indicator.
func (c *Client) SendAction(ctx context.Context, recipientID string, action Action) error {
	if !c.Configured() {
		return fmt.Errorf("sender action: page access token: %w", apperrors.ErrNotConfigured)
	}
	if strings.TrimSpace(recipientID) == "" {
		return apperrors.NewValidationError("recipient_id", "must not be empty")
	}
	if _, err := ParseAction(string(action)); err != nil {
		return err
	}
	return c.call(ctx, "sender_action", http.MethodPost, "/me/messages", nil, sendRequest{
		Recipient:    Party{ID: recipientID},
		SenderAction: action,
	}, nil)
}

// GetProfile fetches the first name, last name and picture of userID.
func (c *Client) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("user profile: page access token: %w", apperrors.ErrNotConfigured)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewValidationError("user_id", "must not be empty")
	}

	var p Profile
	query := url.Values{"fields": {profileFields}}
	if err := c.call(ctx, "get_profile", http.MethodGet, "/"+url.PathEscape(userID), query, nil, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = userID
	}
	return &p, nil
}

// call performs one Graph API request with retries, decoding a successful
// body into out when out is non-nil.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("graph api %s: encode request: %w", op, err)
		}
	}

	start := time.Now()
	err := retryWithBackoff(ctx, c.maxRetries, c.retryDelay, func() error {
		return c.do(ctx, op, method, path, query, payload, out)
	})
	c.record(op, err, time.Since(start))
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("graph api %s: %w", op, err)
		}
	}

	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("access_token", c.token)

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+q.Encode(), reqBody)
	if err != nil {
		return fmt.Errorf("graph api %s: create request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph api %s: %w", op, redactURLError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("graph api %s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		graphErr := &apperrors.GraphError{Op: op, StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil {
			graphErr.Code = er.Error.Code
			graphErr.Type = er.Error.Type
			graphErr.Message = er.Error.Message
		}
		slog.DebugContext(ctx, "graph api call failed",
			"operation", op,
			"status", resp.StatusCode,
			"code", graphErr.Code,
			"fbtrace_id", er.Error.FBTraceID)
		return graphErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("graph api %s: decode response: %w", op, err)
		}
	}
	return nil
}

func (c *Client) record(op string, err error, d time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		c.metrics.RecordHTTPError(errorType(err), "messenger")
	}
	c.metrics.RecordGraphAPI(op, status, d.Seconds())
}

// errorType labels err for metrics.
func errorType(err error) string {
	var graphErr *apperrors.GraphError
	switch {
	case errors.As(err, &graphErr) && graphErr.StatusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case graphErr != nil && graphErr.StatusCode >= 500:
		return "server_error"
	case graphErr != nil:
		return "client_error"
	case strings.Contains(err.Error(), "deadline exceeded") || strings.Contains(err.Error(), "Timeout"):
		return "timeout"
	default:
		return "network"
	}
}

// redactURLError strips the query string, which carries the access token,
// from transport errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
			u.RawQuery = ""
			return &url.Error{Op: urlErr.Op, URL: u.String(), Err: urlErr.Err}
		}
	}
	return err
}
