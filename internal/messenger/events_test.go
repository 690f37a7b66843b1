package messenger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "object": "page",
  "entry": [
    {
      "id": "PAGE",
      "time": 1700000000000,
      "messaging": [
        {"sender": {"id": "U1"}, "recipient": {"id": "PAGE"}, "timestamp": 1, "message": {"mid": "m1", "text": "hello"}},
        {"sender": {"id": "U2"}, "recipient": {"id": "PAGE"}, "timestamp": 2, "postback": {"title": "Start", "payload": "GET_STARTED"}},
        {"sender": {"id": "U1"}, "recipient": {"id": "PAGE"}, "timestamp": 3, "message": {"mid": "m2", "attachments": [{"type": "image", "payload": {"url": "https://example.com/a.png"}}]}}
      ]
    },
    {
      "id": "PAGE",
      "time": 1700000000001,
      "messaging": [
        {"sender": {"id": "PAGE"}, "recipient": {"id": "U1"}, "timestamp": 4, "message": {"mid": "m3", "text": "reply", "is_echo": true}},
        {"sender": {"id": "U2"}, "recipient": {"id": "PAGE"}, "timestamp": 5, "delivery": {"mids": ["m0"], "watermark": 5}},
        {"sender": {"id": "U2"}, "recipient": {"id": "PAGE"}, "timestamp": 6, "read": {"watermark": 6}},
        {"recipient": {"id": "PAGE"}, "timestamp": 7, "message": {"mid": "m4", "text": "no sender"}}
      ]
    }
  ]
}`

func TestParsePayload(t *testing.T) {
	t.Parallel()

	p, err := ParsePayload([]byte(samplePayload))
	require.NoError(t, err)
	assert.True(t, p.IsPage())
	require.Len(t, p.Entry, 2)

	events := p.Events()
	require.Len(t, events, 6, "event without sender is dropped")

	kinds := make([]string, len(events))
	for i := range events {
		kinds[i] = events[i].Kind()
	}
	assert.Equal(t, []string{KindMessage, KindPostback, KindMessage, KindEcho, KindDelivery, KindRead}, kinds)

	assert.Equal(t, "hello", events[0].Message.Text)
	assert.Equal(t, "GET_STARTED", events[1].Postback.Payload)
	require.Len(t, events[2].Message.Attachments, 1)
	assert.Equal(t, "image", events[2].Message.Attachments[0].Type)
	assert.Equal(t, "https://example.com/a.png", events[2].Message.Attachments[0].Payload.URL)
}

func TestParsePayload_Invalid(t *testing.T) {
	t.Parallel()

	for _, body := range []string{"", "not json", `["array"]`, `{"object":`} {
		_, err := ParsePayload([]byte(body))
		assert.Error(t, err, "body %q", body)
	}
}

func TestPayload_IsPage(t *testing.T) {
	t.Parallel()

	p, err := ParsePayload([]byte(`{"object":"instagram","entry":[]}`))
	require.NoError(t, err)
	assert.False(t, p.IsPage())
	assert.Empty(t, p.Events())
}

func TestEvent_KindUnknown(t *testing.T) {
	t.Parallel()

	ev := Event{Sender: Party{ID: "U"}}
	assert.Equal(t, KindUnknown, ev.Kind())
}

func TestGroupBySender(t *testing.T) {
	t.Parallel()

	p, err := ParsePayload([]byte(samplePayload))
	require.NoError(t, err)

	senders, bySender := GroupBySender(p.Events())
	assert.Equal(t, []string{"U1", "U2", "PAGE"}, senders)

	require.Len(t, bySender["U1"], 2)
	assert.Equal(t, "m1", bySender["U1"][0].Message.Mid)
	assert.Equal(t, "m2", bySender["U1"][1].Message.Mid)
	assert.Len(t, bySender["U2"], 3)
	assert.Len(t, bySender["PAGE"], 1)
}
