package gmail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxpulse/internal/insights"
)

func TestParseMessage(t *testing.T) {
	raw := &gmail.Message{
		Id:       "msg-1",
		ThreadId: "thread-1",
		Snippet:  "Quarterly numbers attached",
		LabelIds: []string{"UNREAD", "IMPORTANT", "INBOX"},
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Alice Example <alice@example.com>"},
				{Name: "Subject", Value: "Q3 report"},
				{Name: "Date", Value: "Mon, 24 Aug 2026 09:15:00 +0200"},
			},
		},
	}

	got := parseMessage(raw)

	assert.Equal(t, "msg-1", got.ID)
	assert.Equal(t, "thread-1", got.ThreadID)
	assert.Equal(t, "alice@example.com", got.Sender)
	assert.Equal(t, "Q3 report", got.Subject)
	assert.Equal(t, "Quarterly numbers attached", got.Snippet)
	assert.True(t, got.IsUnread)
	assert.True(t, got.HasLabel(insights.LabelImportant))

	expected := time.Date(2026, 8, 24, 9, 15, 0, 0, time.FixedZone("", 2*3600))
	assert.True(t, got.ReceivedAt.Equal(expected))
}

func TestParseMessageReadWithoutUnreadLabel(t *testing.T) {
	raw := &gmail.Message{
		Id:       "msg-2",
		LabelIds: []string{"INBOX"},
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "bob@example.com"},
			},
		},
	}

	got := parseMessage(raw)
	assert.False(t, got.IsUnread)
	assert.Equal(t, "bob@example.com", got.Sender)
}

func TestParseMessageFallsBackToInternalDate(t *testing.T) {
	internal := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	raw := &gmail.Message{
		Id:           "msg-3",
		InternalDate: internal.UnixMilli(),
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Date", Value: "not a date"},
			},
		},
	}

	got := parseMessage(raw)
	assert.True(t, got.ReceivedAt.Equal(internal))
}

func TestParseMessageWithoutPayload(t *testing.T) {
	got := parseMessage(&gmail.Message{Id: "msg-4"})

	assert.Equal(t, "msg-4", got.ID)
	assert.Empty(t, got.Sender)
	assert.True(t, got.ReceivedAt.IsZero())
}

func TestSenderAddress(t *testing.T) {
	tests := []struct {
		from     string
		expected string
	}{
		{"Alice Example <alice@example.com>", "alice@example.com"},
		{"alice@example.com", "alice@example.com"},
		{"\"Example, Alice\" <alice@example.com>", "alice@example.com"},
		{"not-an-address", "not-an-address"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, senderAddress(tt.from), tt.from)
	}
}
