// Package mcpserver exposes the Messenger page and the counselor as Model
// Context Protocol tools, so an assistant can message users and look up
// answers on an operator's behalf.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mmstudyabroad/counselor-bot/internal/buildinfo"
	"github.com/mmstudyabroad/counselor-bot/internal/messenger"
	"github.com/mmstudyabroad/counselor-bot/internal/metrics"
	"github.com/mmstudyabroad/counselor-bot/internal/storage"
)

// ServerName identifies the server to MCP clients.
const ServerName = "messenger-mcp-server"

// Tool names.
const (
	ToolSendMessage  = "send_message"
	ToolGetUserInfo  = "get_user_info"
	ToolSendTyping   = "send_typing_indicator"
	ToolAskCounselor = "ask_counselor"
)

// Messenger is the Graph API surface the tools use.
// *messenger.Client implements it.
type Messenger interface {
	SendText(ctx context.Context, recipientID, text string) ([]string, error)
	SendAction(ctx context.Context, recipientID string, action messenger.Action) error
	GetProfile(ctx context.Context, userID string) (*messenger.Profile, error)
}

// ProfileCache stores profiles between calls. *storage.DB implements it.
type ProfileCache interface {
	GetProfile(ctx context.Context, psid string) (*storage.Profile, error)
	SaveProfile(ctx context.Context, p *storage.Profile) error
}

// Responder answers a question. *counselor.Counselor implements it.
type Responder interface {
	Resolve(ctx context.Context, text string) string
}

// Deps are the collaborators behind the tools. Profiles, Responder and
// Metrics are optional; without a Responder ask_counselor is not offered.
type Deps struct {
	Messenger Messenger
	Profiles  ProfileCache
	Responder Responder
	Metrics   *metrics.Metrics
}

type tools struct {
	Deps
}

// New builds an MCP server with the Messenger tools registered.
func New(deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: buildinfo.Release(),
	}, nil)

	t := &tools{Deps: deps}

	server.AddTool(&mcp.Tool{
		Name:        ToolSendMessage,
		Description: "Send a message to a Facebook Messenger user",
		InputSchema: objectSchema(map[string]any{
			"recipient_id": stringProp("The PSID (Page-Scoped ID) of the recipient"),
			"message_text": stringProp("The text message to send"),
		}, "recipient_id", "message_text"),
	}, t.sendMessage)

	server.AddTool(&mcp.Tool{
		Name:        ToolGetUserInfo,
		Description: "Get information about a Messenger user",
		InputSchema: objectSchema(map[string]any{
			"user_id": stringProp("The PSID of the user"),
		}, "user_id"),
	}, t.getUserInfo)

	server.AddTool(&mcp.Tool{
		Name:        ToolSendTyping,
		Description: "Send typing indicator to show the bot is typing",
		InputSchema: objectSchema(map[string]any{
			"recipient_id": stringProp("The PSID of the recipient"),
			"action": map[string]any{
				"type":        "string",
				"enum":        []string{string(messenger.ActionTypingOn), string(messenger.ActionTypingOff), string(messenger.ActionMarkSeen)},
				"description": "The typing action to perform",
			},
		}, "recipient_id", "action"),
	}, t.sendTyping)

	if deps.Responder != nil {
		server.AddTool(&mcp.Tool{
			Name:        ToolAskCounselor,
			Description: "Answer a study-abroad question the way the Messenger bot would",
			InputSchema: objectSchema(map[string]any{
				"question": stringProp("The student's question"),
			}, "question"),
		}, t.askCounselor)
	}

	return server
}

func (t *tools) sendMessage(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		RecipientID string `json:"recipient_id"`
		MessageText string `json:"message_text"`
	}
	if err := bindArgs(req, &args, "recipient_id", "message_text"); err != nil {
		return errorResult(err), nil
	}

	ids, err := t.Messenger.SendText(ctx, args.RecipientID, args.MessageText)
	if err != nil {
		return toolError(ctx, ToolSendMessage, err), nil
	}
	return textResult("Message sent successfully. Message ID: " + strings.Join(ids, ", ")), nil
}

func (t *tools) getUserInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		UserID string `json:"user_id"`
	}
	if err := bindArgs(req, &args, "user_id"); err != nil {
		return errorResult(err), nil
	}

	profile, err := t.profile(ctx, args.UserID)
	if err != nil {
		return toolError(ctx, ToolGetUserInfo, err), nil
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return toolError(ctx, ToolGetUserInfo, err), nil
	}
	return textResult(string(data)), nil
}

// profile serves userID from the cache when fresh, otherwise from the
// Graph API, caching the result.
func (t *tools) profile(ctx context.Context, userID string) (*messenger.Profile, error) {
	if t.Profiles != nil {
		cached, err := t.Profiles.GetProfile(ctx, userID)
		if err != nil {
			slog.WarnContext(ctx, "profile cache read failed", "error", err)
		}
		if cached != nil {
			t.recordCache(true)
			return &messenger.Profile{
				ID:         cached.PSID,
				FirstName:  cached.FirstName,
				LastName:   cached.LastName,
				ProfilePic: cached.ProfilePic,
			}, nil
		}
		t.recordCache(false)
	}

	p, err := t.Messenger.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if t.Profiles != nil {
		if err := t.Profiles.SaveProfile(ctx, &storage.Profile{
			PSID:       p.ID,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			ProfilePic: p.ProfilePic,
		}); err != nil {
			slog.WarnContext(ctx, "profile cache write failed", "error", err)
		}
	}
	return p, nil
}

func (t *tools) recordCache(hit bool) {
	if t.Metrics == nil {
		return
	}
	if hit {
		t.Metrics.RecordCacheHit("profile")
	} else {
		t.Metrics.RecordCacheMiss("profile")
	}
}

func (t *tools) sendTyping(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		RecipientID string `json:"recipient_id"`
		Action      string `json:"action"`
	}
	if err := bindArgs(req, &args, "recipient_id", "action"); err != nil {
		return errorResult(err), nil
	}

	action, err := messenger.ParseAction(args.Action)
	if err != nil {
		return errorResult(err), nil
	}
	if err := t.Messenger.SendAction(ctx, args.RecipientID, action); err != nil {
		return toolError(ctx, ToolSendTyping, err), nil
	}
	return textResult(fmt.Sprintf("Typing indicator '%s' sent successfully", action)), nil
}

func (t *tools) askCounselor(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Question string `json:"question"`
	}
	if err := bindArgs(req, &args); err != nil {
		return errorResult(err), nil
	}
	return textResult(t.Responder.Resolve(ctx, args.Question)), nil
}

// bindArgs decodes the call arguments into dst and checks that the named
// string fields are present and non-blank.
func bindArgs(req *mcp.CallToolRequest, dst any, required ...string) error {
	raw := json.RawMessage(`{}`)
	if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
		raw = req.Params.Arguments
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	var errs []error
	for _, name := range required {
		if s, ok := fields[name].(string); !ok || strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	return errors.Join(errs...)
}

func toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	slog.WarnContext(ctx, "mcp tool failed", "tool", tool, "error", err)
	return errorResult(err)
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func stringProp(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}
