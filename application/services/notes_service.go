package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"admin-notes-backend/application/ports"
	"admin-notes-backend/domain/events"
	"admin-notes-backend/domain/notes"
	"admin-notes-backend/infrastructure/observability"
	pkgerrors "admin-notes-backend/pkg/errors"

	"go.uber.org/zap"
)

const (
	// DefaultOptionName is the option key the notes are stored under.
	DefaultOptionName = "wp_auto_admin_notes"

	defaultMaxRetries = 5
)

// NotesServiceConfig configures the notes service
type NotesServiceConfig struct {
	OptionName string
	// RejectEmptyNotes refuses notes that sanitize to an empty string.
	RejectEmptyNotes bool
	// MaxRetries bounds read-modify-write attempts on version conflicts.
	MaxRetries int
}

// NotesService owns the notes collection and serializes every mutation.
// Writes happen under an in-process mutex and present the version they read,
// so writers in other processes sharing the store cannot be silently overwritten.
type NotesService struct {
	store     ports.OptionStore
	publisher ports.EventPublisher
	sanitizer *notes.Sanitizer
	metrics   *observability.Collector
	logger    *zap.Logger
	config    NotesServiceConfig

	mu    sync.Mutex
	ready atomic.Bool
	now   func() time.Time
}

// NewNotesService creates a new notes service. publisher and metrics may be nil.
func NewNotesService(
	store ports.OptionStore,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
	config NotesServiceConfig,
) *NotesService {
	if config.OptionName == "" {
		config.OptionName = DefaultOptionName
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotesService{
		store:     store,
		publisher: publisher,
		sanitizer: notes.NewSanitizer(),
		metrics:   metrics,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// OptionName returns the option key the service reads and writes
func (s *NotesService) OptionName() string {
	return s.config.OptionName
}

// Ready reports whether EnsureDefaults has completed
func (s *NotesService) Ready() bool {
	return s.ready.Load()
}

// List returns the notes in stored order
func (s *NotesService) List(ctx context.Context) ([]string, error) {
	collection, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetNotesStored(collection.Len())
	return collection.Notes(), nil
}

// Append sanitizes text, stores it at the end of the collection and returns
// its index.
func (s *NotesService) Append(ctx context.Context, text string) (int, error) {
	clean := s.sanitizer.Sanitize(text)
	if clean == "" && s.config.RejectEmptyNotes {
		s.metrics.RecordMutation("append", "rejected")
		return 0, pkgerrors.NewValidationError("note is empty after sanitization")
	}

	result, err := s.mutate(ctx, "append", func(c notes.Collection) (notes.Collection, bool) {
		return c.Append(clean), true
	})
	if err != nil {
		return 0, err
	}

	index := result.after.Len() - 1
	s.logger.Info("Note added",
		zap.String("option", s.config.OptionName),
		zap.Int("index", index),
		zap.Uint64("version", result.version),
	)
	s.publish(ctx, events.NewNoteAdded(s.config.OptionName, result.version, index, clean, s.now()))
	return index, nil
}

// Delete removes the note at index. An index outside the collection is a
// no-op and reports false without error.
func (s *NotesService) Delete(ctx context.Context, index int) (bool, error) {
	result, err := s.mutate(ctx, "delete", func(c notes.Collection) (notes.Collection, bool) {
		return c.Delete(index)
	})
	if err != nil {
		return false, err
	}
	if !result.changed {
		s.logger.Debug("Delete ignored, index out of range",
			zap.Int("index", index),
			zap.Int("count", result.before.Len()),
		)
		return false, nil
	}

	removed, _ := result.before.At(index)
	s.logger.Info("Note deleted",
		zap.String("option", s.config.OptionName),
		zap.Int("index", index),
		zap.Uint64("version", result.version),
	)
	s.publish(ctx, events.NewNoteDeleted(s.config.OptionName, result.version, index, removed, s.now()))
	return true, nil
}

// Update replaces the note at index with sanitized text. An index outside the
// collection is a no-op and reports false without error.
func (s *NotesService) Update(ctx context.Context, index int, text string) (bool, error) {
	clean := s.sanitizer.Sanitize(text)
	if clean == "" && s.config.RejectEmptyNotes {
		s.metrics.RecordMutation("update", "rejected")
		return false, pkgerrors.NewValidationError("note is empty after sanitization")
	}

	result, err := s.mutate(ctx, "update", func(c notes.Collection) (notes.Collection, bool) {
		return c.Update(index, clean)
	})
	if err != nil {
		return false, err
	}
	if !result.changed {
		s.logger.Debug("Update ignored, index out of range", zap.Int("index", index))
		return false, nil
	}

	previous, _ := result.before.At(index)
	s.logger.Info("Note updated",
		zap.String("option", s.config.OptionName),
		zap.Int("index", index),
		zap.Uint64("version", result.version),
	)
	s.publish(ctx, events.NewNoteUpdated(s.config.OptionName, result.version, index, previous, clean, s.now()))
	return true, nil
}

// EnsureDefaults seeds the two welcome notes when the collection is empty and
// marks the service ready. Calling it again is a no-op.
func (s *NotesService) EnsureDefaults(ctx context.Context) (bool, error) {
	result, err := s.mutate(ctx, "seed", func(c notes.Collection) (notes.Collection, bool) {
		return c.WithDefaults()
	})
	if err != nil {
		return false, err
	}
	s.ready.Store(true)

	if !result.changed {
		return false, nil
	}

	s.logger.Info("Default notes seeded",
		zap.String("option", s.config.OptionName),
		zap.Int("count", result.after.Len()),
	)
	s.publish(ctx, events.NewNotesSeeded(s.config.OptionName, result.version, result.after.Len(), s.now()))
	return true, nil
}

type mutation struct {
	before  notes.Collection
	after   notes.Collection
	version uint64
	changed bool
}

// mutate runs a read-modify-write cycle, retrying on version conflicts.
func (s *NotesService) mutate(
	ctx context.Context,
	operation string,
	apply func(notes.Collection) (notes.Collection, bool),
) (mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return mutation{}, err
		}

		before, version, err := s.load(ctx)
		if err != nil {
			s.metrics.RecordMutation(operation, "failed")
			return mutation{}, err
		}

		after, changed := apply(before)
		if !changed {
			s.metrics.RecordMutation(operation, "noop")
			return mutation{before: before, after: before, version: version}, nil
		}

		start := time.Now()
		newVersion, err := s.store.Put(ctx, s.config.OptionName, after.Notes(), version)
		s.metrics.RecordStoreOperation("put", err, time.Since(start))
		if errors.Is(err, ports.ErrVersionConflict) {
			s.metrics.RecordConflict()
			s.logger.Warn("Version conflict writing notes, retrying",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Uint64("expected_version", version),
			)
			continue
		}
		if err != nil {
			s.metrics.RecordMutation(operation, "failed")
			return mutation{}, storeError("put", err)
		}

		s.metrics.RecordMutation(operation, "applied")
		s.metrics.SetNotesStored(after.Len())
		return mutation{before: before, after: after, version: newVersion, changed: true}, nil
	}

	s.metrics.RecordMutation(operation, "failed")
	return mutation{}, pkgerrors.NewConflictError("notes were modified concurrently, retry the request").
		WithCode(pkgerrors.CodeVersionConflict).
		WithCause(ports.ErrVersionConflict)
}

func (s *NotesService) load(ctx context.Context) (notes.Collection, uint64, error) {
	start := time.Now()
	record, err := s.store.Get(ctx, s.config.OptionName)
	s.metrics.RecordStoreOperation("get", err, time.Since(start))
	if err != nil {
		return notes.Collection{}, 0, storeError("get", err)
	}
	return notes.NewCollection(record.Values), record.Version, nil
}

func (s *NotesService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	// The write is already committed; a lost event must not fail the request.
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}

func storeError(operation string, err error) error {
	if pkgerrors.IsAppError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return pkgerrors.NewDatabaseError(operation, err)
}
