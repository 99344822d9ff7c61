// ABOUTME: Message model for conversation transcripts
// ABOUTME: Kind tags user turns, bot turns, and synthesized handoff notices

package convo

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies who (or what) produced a transcript entry.
type Kind string

const (
	// KindUser is a message typed by the person chatting.
	KindUser Kind = "user"

	// KindBot is an ordinary agent reply.
	KindBot Kind = "bot"

	// KindHandoff is a synthesized notice that the session transferred to
	// another agent. It renders distinctly and never goes back to the
	// backend as conversation history.
	KindHandoff Kind = "handoff"
)

// Status tracks delivery state for user messages.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// Message is one transcript entry. IDs are unique within a conversation.
type Message struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Status    Status `json:"status,omitempty"`
}

// Record is the persisted state for one (tenant, session) pair.
type Record struct {
	Messages      []Message
	ActiveAgentID string
}

// NewUserMessage builds a user turn with status sent.
func NewUserMessage(text string, at time.Time) Message {
	return Message{
		ID:        uuid.New().String(),
		Kind:      KindUser,
		Text:      text,
		Timestamp: FormatTimestamp(at),
		Status:    StatusSent,
	}
}

// NewBotMessage builds an ordinary agent reply.
func NewBotMessage(text string, at time.Time) Message {
	return Message{
		ID:        uuid.New().String(),
		Kind:      KindBot,
		Text:      text,
		Timestamp: FormatTimestamp(at),
	}
}

// NewHandoffNotice builds a synthesized transfer notification.
func NewHandoffNotice(text string, at time.Time) Message {
	return Message{
		ID:        uuid.New().String(),
		Kind:      KindHandoff,
		Text:      text,
		Timestamp: FormatTimestamp(at),
	}
}

// FormatTimestamp renders a display timestamp the way the transcript shows it.
func FormatTimestamp(t time.Time) string {
	return t.Format("15:04")
}

// HistoryEntry is one {role, content} pair sent to the backend.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History maps the last n non-notification messages to backend history
// entries, translating bot turns to the assistant role. Handoff notices
// are dropped before the window is taken.
func History(messages []Message, n int) []HistoryEntry {
	filtered := make([]Message, 0, len(messages))
	for _, m := range messages {
		switch m.Kind {
		case KindUser, KindBot:
			filtered = append(filtered, m)
		case KindHandoff:
			// Synthesized notices never leave the client.
		}
	}

	if n > 0 && len(filtered) > n {
		filtered = filtered[len(filtered)-n:]
	}

	history := make([]HistoryEntry, 0, len(filtered))
	for _, m := range filtered {
		role := "user"
		if m.Kind == KindBot {
			role = "assistant"
		}
		history = append(history, HistoryEntry{Role: role, Content: m.Text})
	}
	return history
}
