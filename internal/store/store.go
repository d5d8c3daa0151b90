// Package store defines the interface for message persistence backends.
package store

import (
	"context"

	"github.com/telliott/maildrop/internal/mail"
)

// Store is the interface message persistence backends must implement.
// Each backend turns a completed message record into a durable (or at
// least visible) artifact.
type Store interface {
	// Write persists a message record. Records are keyed by the record's
	// connection id; writing the same id again replaces the earlier record.
	Write(ctx context.Context, msg *mail.Message) error

	// Name returns the human-readable name of this store.
	Name() string
}
