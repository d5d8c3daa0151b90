// Package stdout implements a Store that prints message records to
// standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/telliott/maildrop/internal/mail"
)

// Store prints message records to stdout in a human-readable format.
type Store struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Store that writes to os.Stdout.
func New() *Store {
	return &Store{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Store that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Store {
	return &Store{writer: w}
}

// Write prints the message record in a readable format.
func (s *Store) Write(_ context.Context, msg *mail.Message) error {
	var b strings.Builder

	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Message %d\n", msg.ID)
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", msg.To)
	fmt.Fprintf(&b, "Date: %s\n", msg.Date)
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body:\n")

	for _, line := range msg.Body {
		b.WriteString(line + "\n")
	}

	b.WriteString("========================================\n")

	if _, err := fmt.Fprint(s.writer, b.String()); err != nil {
		return fmt.Errorf("failed to print message record: %w", err)
	}

	return nil
}

// Name returns the store name.
func (s *Store) Name() string {
	return "stdout"
}
