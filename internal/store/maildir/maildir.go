// Package maildir implements a Store that writes each message to a flat
// text file in a single directory.
package maildir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/telliott/maildrop/internal/mail"
)

// Store writes one human-readable text record per message id.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mail directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Write renders the record and writes it to email<id>.txt inside the
// store directory, replacing any earlier record with the same id.
func (s *Store) Write(_ context.Context, msg *mail.Message) error {
	path := filepath.Join(s.dir, fmt.Sprintf("email%d.txt", msg.ID))
	if err := os.WriteFile(path, []byte(render(msg)), 0o644); err != nil {
		return fmt.Errorf("failed to write message record: %w", err)
	}
	return nil
}

// Name returns the store name.
func (s *Store) Name() string {
	return "file"
}

// render produces the on-disk record: the message-id line, the header
// fields in fixed order, then a "Body: " marker followed by the body
// lines verbatim. Absent header fields render as empty values.
func render(msg *mail.Message) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Message %d\n", msg.ID)
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", msg.To)
	fmt.Fprintf(&b, "Date: %s\n", msg.Date)
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body: ")

	for _, line := range msg.Body {
		b.WriteString(line + "\n")
	}

	return b.String()
}
