package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"admin-notes-backend/application/ports"
	"admin-notes-backend/domain/events"
	"admin-notes-backend/domain/notes"
	"admin-notes-backend/infrastructure/observability"
	"admin-notes-backend/infrastructure/persistence/memory"
	pkgerrors "admin-notes-backend/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}

// racingStore lets another writer sneak in before the first n Puts.
type racingStore struct {
	*memory.OptionStore
	races int
}

func (s *racingStore) Put(ctx context.Context, name string, values []string, expected uint64) (uint64, error) {
	if s.races > 0 {
		s.races--
		current, _ := s.OptionStore.Get(ctx, name)
		if _, err := s.OptionStore.Put(ctx, name, append(current.Values, "concurrent"), current.Version); err != nil {
			return 0, err
		}
	}
	return s.OptionStore.Put(ctx, name, values, expected)
}

type failingStore struct {
	getErr error
	putErr error
}

func (s *failingStore) Get(ctx context.Context, name string) (ports.OptionRecord, error) {
	return ports.OptionRecord{Values: []string{"existing"}, Version: 1}, s.getErr
}

func (s *failingStore) Put(ctx context.Context, name string, values []string, expected uint64) (uint64, error) {
	return 0, s.putErr
}

func newTestService(t *testing.T, store ports.OptionStore, config NotesServiceConfig) (*NotesService, *recordingPublisher, *observability.Collector) {
	t.Helper()
	publisher := &recordingPublisher{}
	metrics := observability.NewCollector("test")
	return NewNotesService(store, publisher, metrics, zap.NewNop(), config), publisher, metrics
}

func seed(t *testing.T, store ports.OptionStore, values ...string) {
	t.Helper()
	_, err := store.Put(context.Background(), DefaultOptionName, values, 0)
	require.NoError(t, err)
}

func TestNotesService_EnsureDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("Should seed exactly two notes into an empty store", func(t *testing.T) {
		service, publisher, _ := newTestService(t, memory.NewOptionStore(), NotesServiceConfig{})
		assert.False(t, service.Ready())

		seeded, err := service.EnsureDefaults(ctx)
		require.NoError(t, err)
		assert.True(t, seeded)
		assert.True(t, service.Ready())

		list, err := service.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, notes.DefaultNotes(), list)
		assert.Equal(t, []string{events.TypeNotesSeeded}, publisher.types())
	})

	t.Run("Should be idempotent", func(t *testing.T) {
		service, _, _ := newTestService(t, memory.NewOptionStore(), NotesServiceConfig{})

		_, err := service.EnsureDefaults(ctx)
		require.NoError(t, err)
		seeded, err := service.EnsureDefaults(ctx)
		require.NoError(t, err)
		assert.False(t, seeded)

		list, err := service.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("Should not touch existing notes", func(t *testing.T) {
		store := memory.NewOptionStore()
		seed(t, store, "mine")
		service, _, _ := newTestService(t, store, NotesServiceConfig{})

		seeded, err := service.EnsureDefaults(ctx)
		require.NoError(t, err)
		assert.False(t, seeded)
		assert.True(t, service.Ready())

		list, _ := service.List(ctx)
		assert.Equal(t, []string{"mine"}, list)
	})
}

func TestNotesService_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("Should append sanitized text as the last element", func(t *testing.T) {
		store := memory.NewOptionStore()
		seed(t, store, "a", "b")
		service, publisher, _ := newTestService(t, store, NotesServiceConfig{})

		index, err := service.Append(ctx, "  <strong>Renew</strong> SSL\tcertificate ")
		require.NoError(t, err)
		assert.Equal(t, 2, index)

		list, _ := service.List(ctx)
		assert.Equal(t, []string{"a", "b", "Renew SSL certificate"}, list)
		assert.Equal(t, []string{events.TypeNoteAdded}, publisher.types())
	})

	t.Run("Should store empty notes by default", func(t *testing.T) {
		service, _, _ := newTestService(t, memory.NewOptionStore(), NotesServiceConfig{})

		_, err := service.Append(ctx, "<br>")
		require.NoError(t, err)

		list, _ := service.List(ctx)
		assert.Equal(t, []string{""}, list)
	})

	t.Run("Should reject empty notes when configured", func(t *testing.T) {
		service, _, _ := newTestService(t, memory.NewOptionStore(), NotesServiceConfig{RejectEmptyNotes: true})

		_, err := service.Append(ctx, "   ")
		assert.True(t, pkgerrors.IsValidation(err))

		list, _ := service.List(ctx)
		assert.Empty(t, list)
	})

	t.Run("Should keep writing when event publishing fails", func(t *testing.T) {
		store := memory.NewOptionStore()
		publisher := &recordingPublisher{err: errors.New("bus down")}
		service := NewNotesService(store, publisher, nil, zap.NewNop(), NotesServiceConfig{})

		_, err := service.Append(ctx, "still saved")
		require.NoError(t, err)

		list, _ := service.List(ctx)
		assert.Equal(t, []string{"still saved"}, list)
	})
}

func TestNotesService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Should remove entry and shift followers", func(t *testing.T) {
		store := memory.NewOptionStore()
		seed(t, store, "a", "b", "c")
		service, publisher, _ := newTestService(t, store, NotesServiceConfig{})

		deleted, err := service.Delete(ctx, 0)
		require.NoError(t, err)
		assert.True(t, deleted)

		list, _ := service.List(ctx)
		assert.Equal(t, []string{"b", "c"}, list)
		assert.Equal(t, []string{events.TypeNoteDeleted}, publisher.types())
	})

	t.Run("Should leave list unchanged for out of range index", func(t *testing.T) {
		store := memory.NewOptionStore()
		seed(t, store, "a", "b")
		service, publisher, metrics := newTestService(t, store, NotesServiceConfig{})

		for _, index := range []int{-1, 2, 50} {
			deleted, err := service.Delete(ctx, index)
			require.NoError(t, err)
			assert.False(t, deleted)
		}

		list, _ := service.List(ctx)
		assert.Equal(t, []string{"a", "b"}, list)
		assert.Empty(t, publisher.types())
		assert.Equal(t, 3.0, testutil.ToFloat64(metrics.NoteMutations.WithLabelValues("delete", "noop")))

		record, _ := store.Get(ctx, DefaultOptionName)
		assert.Equal(t, uint64(1), record.Version, "no-op must not write")
	})
}

func TestNotesService_Update(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOptionStore()
	seed(t, store, "a", "b")
	service, _, _ := newTestService(t, store, NotesServiceConfig{})

	updated, err := service.Update(ctx, 1, "<i>B</i>")
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = service.Update(ctx, 5, "ignored")
	require.NoError(t, err)
	assert.False(t, updated)

	list, _ := service.List(ctx)
	assert.Equal(t, []string{"a", "B"}, list)
}

func TestNotesService_Concurrency(t *testing.T) {
	ctx := context.Background()

	t.Run("Should retry after a conflicting writer", func(t *testing.T) {
		store := &racingStore{OptionStore: memory.NewOptionStore(), races: 2}
		service, _, metrics := newTestService(t, store, NotesServiceConfig{})

		_, err := service.Append(ctx, "mine")
		require.NoError(t, err)

		list, _ := service.List(ctx)
		assert.Equal(t, []string{"concurrent", "concurrent", "mine"}, list)
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StoreConflicts))
	})

	t.Run("Should surface conflict after exhausting retries", func(t *testing.T) {
		store := &racingStore{OptionStore: memory.NewOptionStore(), races: 10}
		service, _, _ := newTestService(t, store, NotesServiceConfig{MaxRetries: 3})

		_, err := service.Append(ctx, "mine")
		assert.True(t, pkgerrors.IsConflict(err))
		assert.ErrorIs(t, err, ports.ErrVersionConflict)
	})

	t.Run("Should not lose appends from parallel callers", func(t *testing.T) {
		service, _, _ := newTestService(t, memory.NewOptionStore(), NotesServiceConfig{})

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := service.Append(ctx, fmt.Sprintf("note %d", i))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		list, _ := service.List(ctx)
		assert.Len(t, list, 20)
	})
}

func TestNotesService_StoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("Should surface read failures as database errors", func(t *testing.T) {
		service, _, _ := newTestService(t, &failingStore{getErr: errors.New("connection refused")}, NotesServiceConfig{})

		_, err := service.List(ctx)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	})

	t.Run("Should surface write failures and never report success", func(t *testing.T) {
		service, publisher, _ := newTestService(t, &failingStore{putErr: errors.New("throttled")}, NotesServiceConfig{})

		_, err := service.Append(ctx, "lost?")
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
		assert.Empty(t, publisher.types())
	})

	t.Run("Should pass through unavailable errors", func(t *testing.T) {
		unavailable := pkgerrors.NewUnavailableError("option-store")
		service, _, _ := newTestService(t, &failingStore{putErr: unavailable}, NotesServiceConfig{})

		_, err := service.Delete(ctx, 0)
		assert.True(t, pkgerrors.IsUnavailable(err))
	})
}

func TestNotesService_Export(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOptionStore()
	seed(t, store, "a", "b,c")
	service, _, metrics := newTestService(t, store, NotesServiceConfig{})

	t.Run("Should write single column CSV with standard quoting", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, service.Export(ctx, ExportCSV, &buf))

		assert.Equal(t, "a\n\"b,c\"\n", buf.String())
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Exports.WithLabelValues("csv")))
	})

	t.Run("Should quote embedded quotes and newlines", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, []string{`say "hi"`, "two\nlines"}))

		assert.Equal(t, "\"say \"\"hi\"\"\"\n\"two\nlines\"\n", buf.String())
	})

	t.Run("Should write one row per note to xlsx", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, service.Export(ctx, ExportXLSX, &buf))

		f, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows("Notes")
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a"}, {"b,c"}}, rows)
	})

	t.Run("Should parse export formats", func(t *testing.T) {
		format, err := ParseExportFormat("")
		require.NoError(t, err)
		assert.Equal(t, ExportCSV, format)

		format, err = ParseExportFormat("XLSX")
		require.NoError(t, err)
		assert.Equal(t, ExportXLSX, format)
		assert.Equal(t, "admin-notes-2026-01-02.xlsx", format.FileName("2026-01-02"))

		_, err = ParseExportFormat("pdf")
		assert.True(t, pkgerrors.IsValidation(err))
	})
}
