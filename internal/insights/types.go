package insights

import (
	"strings"
	"time"
)

// Message is a normalized Gmail message as consumed by the scorer and
// the engine. Values are immutable once fetched and owned by the
// engine for the duration of a single query.
type Message struct {
	ID            string    `json:"id"`
	ThreadID      string    `json:"threadId,omitempty"`
	Sender        string    `json:"sender"`
	Subject       string    `json:"subject"`
	Snippet       string    `json:"snippet,omitempty"`
	ReceivedAt    time.Time `json:"receivedAt"`
	Labels        []string  `json:"labels,omitempty"`
	IsUnread      bool      `json:"isUnread"`
	HasAttachment bool      `json:"hasAttachment,omitempty"`
}

// SenderDomain returns the part of the sender address after "@",
// lowercased. Returns "" if the sender has no domain part.
func (m Message) SenderDomain() string {
	addr := m.Sender
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(addr[at+1:])
}

// SenderLocalPart returns the part of the sender address before "@",
// lowercased.
func (m Message) SenderLocalPart() string {
	addr := m.Sender
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return strings.ToLower(addr)
	}
	return strings.ToLower(addr[:at])
}

// HasLabel reports whether the message carries the given label.
func (m Message) HasLabel(label string) bool {
	for _, l := range m.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// ScoredMessage pairs a Message with its importance score. Scores are
// derived values, recomputed on every fetch and never cached.
type ScoredMessage struct {
	Message
	Score int `json:"importanceScore"`
}

// SenderSummary aggregates the messages of one sender within a query
// window. AverageImportance is the arithmetic mean of the constituent
// scores.
type SenderSummary struct {
	Sender            string    `json:"sender"`
	TotalCount        int       `json:"totalCount"`
	UnreadCount       int       `json:"unreadCount"`
	AverageImportance float64   `json:"averageImportance"`
	LatestDate        time.Time `json:"latestDate"`
}

// DailyBreakdown counts messages for one calendar day of the weekly
// insight window.
type DailyBreakdown struct {
	Date                string `json:"date"` // YYYY-MM-DD
	TotalCount          int    `json:"totalCount"`
	UnreadCount         int    `json:"unreadCount"`
	HighImportanceCount int    `json:"highImportanceCount"`
}

// WeeklyInsights is the aggregate result of the fixed 7-day window
// ending at the time of the call.
type WeeklyInsights struct {
	TotalCount          int              `json:"totalCount"`
	UnreadCount         int              `json:"unreadCount"`
	HighImportanceCount int              `json:"highImportanceCount"`
	DailyBreakdown      []DailyBreakdown `json:"dailyBreakdown"`
	TopUnread           []ScoredMessage  `json:"topUnread"`
}
