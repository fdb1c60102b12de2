// Package prompt renders conversation history and assembles the payload
// sent to the model backend.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"TheraChat/internal/session"
)

// HistoryWindow is the number of prior messages included in a prompt.
const HistoryWindow = 10

// SystemInstructions is the system prompt sent with every model request.
const SystemInstructions = "You are a compassionate, non-judgmental therapeutic assistant. " +
	"Use active listening, reflective statements, empathy, and practical, evidence-informed coping " +
	"strategies (like grounding, breathing, scheduling small activities, CBT-style reframing) where appropriate. " +
	"Always clarify when unsure, ask gentle follow-up questions, summarize the client's concerns, and offer " +
	"options (e.g., short coping steps now, longer-term strategies, or referral to a professional). " +
	"Do NOT provide medical, legal, or diagnostic statements. If the user expresses suicidal ideation, self-harm, " +
	"or immediate danger, follow safety guidance: encourage contacting emergency services and provide crisis resources. " +
	"Keep responses brief (2-6 short paragraphs) and supportive. Ask permission before giving exercises or worksheets."

var (
	// ErrEmptyTranscript is returned by BuildPayload when there is no current message.
	ErrEmptyTranscript = errors.New("prompt: transcript is empty")

	// ErrMalformedLine is returned by ParseLine for lines not produced by FormatLine.
	ErrMalformedLine = errors.New("prompt: malformed history line")
)

// Payload is the history and current message for one model turn.
type Payload struct {
	HistoryText    string `json:"history"`
	CurrentMessage string `json:"current_message"`
}

// UserPrompt renders the payload into the user turn of the model request.
func (p Payload) UserPrompt() string {
	return fmt.Sprintf("Conversation history:\n%s\n\nCurrent user message: %s\n\nRespond as a caring therapist.",
		p.HistoryText, p.CurrentMessage)
}

// FormatLine renders one message as "[timestamp] ROLE: text".
func FormatLine(msg session.Message) string {
	return fmt.Sprintf("[%s] %s: %s", msg.Timestamp, strings.ToUpper(string(msg.Role)), msg.Text)
}

// ParseLine is the inverse of FormatLine for text without newlines.
func ParseLine(line string) (session.Message, error) {
	rest, ok := strings.CutPrefix(line, "[")
	if !ok {
		return session.Message{}, ErrMalformedLine
	}
	ts, rest, ok := strings.Cut(rest, "] ")
	if !ok {
		return session.Message{}, ErrMalformedLine
	}
	role, text, ok := strings.Cut(rest, ": ")
	if !ok {
		return session.Message{}, ErrMalformedLine
	}
	r := session.Role(strings.ToLower(role))
	if !r.Valid() || strings.ToUpper(role) != role {
		return session.Message{}, fmt.Errorf("%w: unknown role %q", ErrMalformedLine, role)
	}
	return session.Message{Role: r, Text: text, Timestamp: ts}, nil
}

// RenderHistory renders the last HistoryWindow messages, one line each.
func RenderHistory(msgs []session.Message) string {
	if len(msgs) > HistoryWindow {
		msgs = msgs[len(msgs)-HistoryWindow:]
	}
	lines := make([]string, len(msgs))
	for i, msg := range msgs {
		lines[i] = FormatLine(msg)
	}
	return strings.Join(lines, "\n")
}

// BuildPayload splits a transcript into rendered history and the current
// message. The last element is the current message and is excluded from
// the history.
func BuildPayload(transcript []session.Message) (Payload, error) {
	if len(transcript) == 0 {
		return Payload{}, ErrEmptyTranscript
	}
	last := len(transcript) - 1
	return Payload{
		HistoryText:    RenderHistory(transcript[:last]),
		CurrentMessage: transcript[last].Text,
	}, nil
}
