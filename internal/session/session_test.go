package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageTimestamp(t *testing.T) {
	at := time.Date(2024, 3, 9, 7, 5, 1, 0, time.Local)
	msg := NewMessage(RoleUser, "hello", at)

	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, "2024-03-09 07:05:01", msg.Timestamp)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
	assert.False(t, Role("").Valid())
}

func TestTranscriptLifecycle(t *testing.T) {
	tr := NewTranscript()
	require.NotEmpty(t, tr.ID)
	assert.Equal(t, 0, tr.Len())

	assert.Empty(t, tr.Messages())
	assert.WithinDuration(t, time.Now(), tr.StartTime, time.Minute)

	now := time.Now()
	tr.Append(NewMessage(RoleUser, "one", now))
	tr.Append(NewMessage(RoleAssistant, "two", now), NewMessage(RoleUser, "three", now))

	assert.Equal(t, 3, tr.Len())
	msgs := tr.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{msgs[0].Text, msgs[1].Text, msgs[2].Text})

	id := tr.ID
	tr.Clear()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, id, tr.ID)
}

func TestMessagesReturnsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewMessage(RoleUser, "original", time.Now()))

	msgs := tr.Messages()
	msgs[0].Text = "changed"

	assert.Equal(t, "original", tr.Messages()[0].Text)
}

func TestTranscriptsAreIndependent(t *testing.T) {
	a, b := NewTranscript(), NewTranscript()
	assert.NotEqual(t, a.ID, b.ID)

	a.Append(NewMessage(RoleUser, "only in a", time.Now()))
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 0, b.Len())
}
