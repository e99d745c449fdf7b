package ports

import (
	"context"
	"errors"

	"admin-notes-backend/domain/events"
)

// ErrVersionConflict is returned by OptionStore.Put when the stored record
// version no longer matches the version the caller read.
var ErrVersionConflict = errors.New("option version conflict")

// OptionRecord is the persisted form of a named option holding a list of strings.
// Version is 0 for an option that has never been written.
type OptionRecord struct {
	Values  []string
	Version uint64
}

// OptionStore persists named options. This is a port in hexagonal architecture;
// the notes service does not know which storage technology sits behind it.
type OptionStore interface {
	// Get returns the record stored under name, or an empty record with
	// Version 0 when the option does not exist yet.
	Get(ctx context.Context, name string) (OptionRecord, error)

	// Put stores values under name if the current version equals
	// expectedVersion, and returns the new version. A mismatch returns
	// ErrVersionConflict and leaves the stored record untouched.
	Put(ctx context.Context, name string, values []string, expectedVersion uint64) (uint64, error)
}

// EventPublisher publishes domain events to external subscribers
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}
