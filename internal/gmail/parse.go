package gmail

import (
	"net/mail"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxpulse/internal/insights"
)

// parseMessage normalizes a metadata-format Gmail message. It never
// fails: malformed headers degrade to the raw header value, and a
// missing or unparsable Date header falls back to the server-side
// internal date.
func parseMessage(raw *gmail.Message) insights.Message {
	m := insights.Message{
		ID:       raw.Id,
		ThreadID: raw.ThreadId,
		Snippet:  raw.Snippet,
		Labels:   raw.LabelIds,
	}

	var dateHeader string
	if raw.Payload != nil {
		for _, h := range raw.Payload.Headers {
			switch h.Name {
			case "From":
				m.Sender = senderAddress(h.Value)
			case "Subject":
				m.Subject = h.Value
			case "Date":
				dateHeader = h.Value
			}
		}
	}

	m.ReceivedAt = parseDate(dateHeader, raw.InternalDate)

	for _, label := range raw.LabelIds {
		if label == insights.LabelUnread {
			m.IsUnread = true
			break
		}
	}
	return m
}

// senderAddress extracts the bare address from a From header like
// `Alice Example <alice@example.com>`. Headers that don't parse as an
// address are returned verbatim so scoring still sees something.
func senderAddress(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return from
	}
	return addr.Address
}

// parseDate parses an RFC 2822 Date header, falling back to the
// message's internal date (milliseconds since epoch) when the header
// is absent or malformed.
func parseDate(header string, internalDate int64) time.Time {
	if header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t
		}
	}
	if internalDate > 0 {
		return time.UnixMilli(internalDate).UTC()
	}
	return time.Time{}
}
