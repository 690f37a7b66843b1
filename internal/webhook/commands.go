package webhook

import (
	"fmt"
	"slices"
	"strings"
)

// psidCommands make the bot reveal the sender's page-scoped ID, which
// operators need to address a user from counselorctl or the MCP tools.
var psidCommands = []string{
	"my psid",
	"what's my id",
	"what is my id",
	"my id",
}

// AttachmentReply answers messages that carry attachments but no text.
const AttachmentReply = "I received your attachment. I’m best at answering questions about scholarships, OSSD, GED, A-Levels, IGCSE, and foundation programs. Send me a text question!"

// RateLimitedReply tells a user who sends too fast to slow down.
const RateLimitedReply = "You're sending messages very quickly. Please wait a moment and try again."

// UsageText is shown for a plain browser visit to GET /webhook.
const UsageText = "Webhook endpoint is running.\n\n" +
	"Facebook verification: GET /webhook?hub.mode=subscribe&hub.verify_token=YOUR_TOKEN&hub.challenge=CHALLENGE\n" +
	"Events: POST /webhook (with x-hub-signature-256)"

// EventReceived acknowledges a webhook delivery.
const EventReceived = "EVENT_RECEIVED"

// IsPSIDCommand reports whether text asks for the sender's PSID.
func IsPSIDCommand(text string) bool {
	return slices.Contains(psidCommands, strings.ToLower(strings.TrimSpace(text)))
}

// PSIDReply is the answer to a PSID command.
func PSIDReply(psid string) string {
	return fmt.Sprintf("Your PSID is: %s\n\nUse this when testing with counselorctl send or the MCP send_message tool.", psid)
}
