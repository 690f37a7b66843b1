package messenger

import (
	"encoding/json"
	"fmt"
)

// ObjectPage is the Payload.Object value of page subscriptions.
const ObjectPage = "page"

// Payload is the body of a webhook POST.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the events of one page delivered in a single batch.
type Entry struct {
	ID        string  `json:"id"`
	Time      int64   `json:"time"`
	Messaging []Event `json:"messaging"`
}

// Party identifies a sender or recipient by page-scoped ID.
type Party struct {
	ID string `json:"id"`
}

// Event is one messaging event. Exactly one of Message, Postback, Delivery
// and Read is normally set.
type Event struct {
	Sender    Party     `json:"sender"`
	Recipient Party     `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Postback  *Postback `json:"postback,omitempty"`
	Delivery  *Delivery `json:"delivery,omitempty"`
	Read      *Read     `json:"read,omitempty"`
}

// Message is an inbound (or echoed outbound) message.
type Message struct {
	Mid         string       `json:"mid"`
	Text        string       `json:"text,omitempty"`
	IsEcho      bool         `json:"is_echo,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	QuickReply  *QuickReply  `json:"quick_reply,omitempty"`
}

// Attachment is an image, file, audio, video or location sent by the user.
type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

// AttachmentPayload holds the attachment location.
type AttachmentPayload struct {
	URL string `json:"url,omitempty"`
}

// QuickReply carries the payload of a tapped quick reply.
type QuickReply struct {
	Payload string `json:"payload"`
}

// Postback is a button tap.
type Postback struct {
	Mid     string `json:"mid,omitempty"`
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// Delivery acknowledges delivered messages.
type Delivery struct {
	Mids      []string `json:"mids,omitempty"`
	Watermark int64    `json:"watermark"`
}

// Read acknowledges messages read up to Watermark.
type Read struct {
	Watermark int64 `json:"watermark"`
}

// Event kinds reported by Event.Kind.
const (
	KindMessage  = "message"
	KindEcho     = "echo"
	KindPostback = "postback"
	KindDelivery = "delivery"
	KindRead     = "read"
	KindUnknown  = "unknown"
)

// Kind classifies the event. Echoes of the page's own messages are reported
// separately from user messages.
func (e *Event) Kind() string {
	switch {
	case e.Message != nil && e.Message.IsEcho:
		return KindEcho
	case e.Message != nil:
		return KindMessage
	case e.Postback != nil:
		return KindPostback
	case e.Delivery != nil:
		return KindDelivery
	case e.Read != nil:
		return KindRead
	default:
		return KindUnknown
	}
}

// ParsePayload decodes a webhook body.
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	return &p, nil
}

// IsPage reports whether the payload belongs to a page subscription.
func (p *Payload) IsPage() bool {
	return p.Object == ObjectPage
}

// Events flattens the entries' events in delivery order, dropping events
// without a sender.
func (p *Payload) Events() []Event {
	var out []Event
	for _, entry := range p.Entry {
		for _, ev := range entry.Messaging {
			if ev.Sender.ID == "" {
				continue
			}
			out = append(out, ev)
		}
	}
	return out
}

// GroupBySender partitions events by sender PSID. Senders appear in order of
// their first event and each sender's events keep their relative order.
func GroupBySender(events []Event) (senders []string, bySender map[string][]Event) {
	bySender = make(map[string][]Event)
	for _, ev := range events {
		id := ev.Sender.ID
		if _, seen := bySender[id]; !seen {
			senders = append(senders, id)
		}
		bySender[id] = append(bySender[id], ev)
	}
	return senders, bySender
}
