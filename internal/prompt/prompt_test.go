package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TheraChat/internal/session"
)

func msg(role session.Role, text, ts string) session.Message {
	return session.Message{Role: role, Text: text, Timestamp: ts}
}

func numbered(n int) []session.Message {
	out := make([]session.Message, n)
	for i := range out {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleAssistant
		}
		out[i] = msg(role, fmt.Sprintf("m%d", i), fmt.Sprintf("2024-01-01 10:00:%02d", i))
	}
	return out
}

func TestRenderHistoryEmpty(t *testing.T) {
	assert.Equal(t, "", RenderHistory(nil))
	assert.Equal(t, "", RenderHistory([]session.Message{}))
}

func TestRenderHistoryFormat(t *testing.T) {
	got := RenderHistory([]session.Message{
		msg(session.RoleUser, "I've been anxious lately", "2024-05-01 09:00:00"),
		msg(session.RoleAssistant, "Tell me more", "2024-05-01 09:00:05"),
	})
	want := "[2024-05-01 09:00:00] USER: I've been anxious lately\n[2024-05-01 09:00:05] ASSISTANT: Tell me more"
	assert.Equal(t, want, got)
}

func TestRenderHistoryWindow(t *testing.T) {
	tests := []struct {
		n     int
		first int
		lines int
	}{
		{1, 0, 1},
		{9, 0, 9},
		{10, 0, 10},
		{11, 1, 10},
		{25, 15, 10},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.n), func(t *testing.T) {
			msgs := numbered(tc.n)
			lines := strings.Split(RenderHistory(msgs), "\n")
			require.Len(t, lines, tc.lines)
			for i, line := range lines {
				assert.Equal(t, FormatLine(msgs[tc.first+i]), line)
			}
		})
	}
}

func TestRenderHistoryDoesNotMutate(t *testing.T) {
	msgs := numbered(12)
	before := append([]session.Message(nil), msgs...)
	_ = RenderHistory(msgs)
	assert.Equal(t, before, msgs)
}

func TestParseLineRoundTrip(t *testing.T) {
	cases := []session.Message{
		msg(session.RoleUser, "hello", "2024-01-01 00:00:00"),
		msg(session.RoleAssistant, "Note: this has a colon: twice", "2024-12-31 23:59:59"),
		msg(session.RoleUser, "[brackets] and ] stray", "2024-06-15 12:30:45"),
		msg(session.RoleUser, "", "2024-06-15 12:30:45"),
	}
	for _, want := range cases {
		got, err := ParseLine(FormatLine(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseLineMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"no brackets",
		"[2024-01-01 00:00:00 USER: missing close",
		"[2024-01-01 00:00:00] USER missing colon",
		"[2024-01-01 00:00:00] SYSTEM: unknown",
		"[2024-01-01 00:00:00] user: lower case",
	} {
		_, err := ParseLine(line)
		assert.ErrorIs(t, err, ErrMalformedLine, line)
	}
}

func TestBuildPayloadEmpty(t *testing.T) {
	_, err := BuildPayload(nil)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestBuildPayloadSingleMessage(t *testing.T) {
	p, err := BuildPayload([]session.Message{msg(session.RoleUser, "hi there", "2024-01-01 00:00:00")})
	require.NoError(t, err)
	assert.Equal(t, "", p.HistoryText)
	assert.Equal(t, "hi there", p.CurrentMessage)
}

func TestBuildPayloadExcludesCurrent(t *testing.T) {
	transcript := []session.Message{
		msg(session.RoleUser, "I've been anxious lately", "2024-05-01 09:00:00"),
		msg(session.RoleAssistant, "Tell me more", "2024-05-01 09:00:05"),
		msg(session.RoleUser, "Work is stressful", "2024-05-01 09:01:00"),
	}
	before := append([]session.Message(nil), transcript...)

	p, err := BuildPayload(transcript)
	require.NoError(t, err)
	assert.Equal(t, RenderHistory(transcript[:2]), p.HistoryText)
	assert.NotContains(t, p.HistoryText, "Work is stressful")
	assert.Equal(t, "Work is stressful", p.CurrentMessage)
	assert.Equal(t, before, transcript)
}

func TestBuildPayloadWindowsHistory(t *testing.T) {
	transcript := numbered(15)
	p, err := BuildPayload(transcript)
	require.NoError(t, err)
	assert.Equal(t, RenderHistory(transcript[4:14]), p.HistoryText)
	assert.Equal(t, "m14", p.CurrentMessage)
}

func TestUserPrompt(t *testing.T) {
	p := Payload{HistoryText: "[t] USER: a", CurrentMessage: "b"}
	assert.Equal(t,
		"Conversation history:\n[t] USER: a\n\nCurrent user message: b\n\nRespond as a caring therapist.",
		p.UserPrompt())
}
