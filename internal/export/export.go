// Package export writes a conversation transcript as plain text.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"TheraChat/internal/prompt"
	"TheraChat/internal/session"
)

// DefaultFileName is used when no export path is given.
const DefaultFileName = "therapy_conversation.txt"

// ErrNothingToExport is returned for an empty transcript.
var ErrNothingToExport = errors.New("no conversation to export")

// Text renders messages one per entry with a blank line between entries.
func Text(msgs []session.Message) string {
	entries := make([]string, len(msgs))
	for i, msg := range msgs {
		entries[i] = prompt.FormatLine(msg)
	}
	return strings.Join(entries, "\n\n")
}

// Write writes the plain-text dump of msgs to w.
func Write(w io.Writer, msgs []session.Message) error {
	if len(msgs) == 0 {
		return ErrNothingToExport
	}
	if _, err := io.WriteString(w, Text(msgs)); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ToFile writes the dump to path, creating parent directories as needed,
// and returns the absolute path written.
func ToFile(path string, msgs []session.Message) (string, error) {
	if len(msgs) == 0 {
		return "", ErrNothingToExport
	}
	if path == "" {
		path = DefaultFileName
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve export path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(abs, []byte(Text(msgs)), 0600); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return abs, nil
}
