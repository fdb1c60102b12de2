package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TheraChat/internal/session"
)

var sample = []session.Message{
	{Role: session.RoleUser, Text: "I can't sleep", Timestamp: "2024-02-02 22:10:00"},
	{Role: session.RoleAssistant, Text: "That sounds hard.", Timestamp: "2024-02-02 22:10:04"},
}

const sampleText = "[2024-02-02 22:10:00] USER: I can't sleep\n\n[2024-02-02 22:10:04] ASSISTANT: That sounds hard."

func TestText(t *testing.T) {
	assert.Equal(t, sampleText, Text(sample))
	assert.Equal(t, "", Text(nil))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample))
	assert.Equal(t, sampleText, buf.String())

	buf.Reset()
	assert.ErrorIs(t, Write(&buf, nil), ErrNothingToExport)
	assert.Zero(t, buf.Len())
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")

	written, err := ToFile(path, sample)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Equal(t, sampleText, string(data))
}

func TestToFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	_, err := ToFile(path, nil)
	assert.ErrorIs(t, err, ErrNothingToExport)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
