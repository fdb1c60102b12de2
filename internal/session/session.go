package session

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the layout of Message.Timestamp (YYYY-MM-DD HH:MM:SS).
const TimestampLayout = "2006-01-02 15:04:05"

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message represents a single chat message. Messages are values and are
// never modified once appended to a Transcript.
type Message struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewMessage creates a message stamped with t in TimestampLayout.
func NewMessage(role Role, text string, t time.Time) Message {
	return Message{
		Role:      role,
		Text:      text,
		Timestamp: t.Format(TimestampLayout),
	}
}

// Transcript is the ordered log of one conversation. It is owned by a
// single shell session and is not safe for concurrent use.
type Transcript struct {
	ID        string
	StartTime time.Time
	messages  []Message
}

// NewTranscript creates an empty transcript with a fresh session ID.
func NewTranscript() *Transcript {
	return &Transcript{
		ID:        uuid.NewString(),
		StartTime: time.Now(),
	}
}

// Append adds messages to the end of the transcript.
func (t *Transcript) Append(msgs ...Message) {
	t.messages = append(t.messages, msgs...)
}

// Clear drops every message. The session ID is kept.
func (t *Transcript) Clear() {
	t.messages = nil
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Messages returns a copy of the messages in insertion order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}
