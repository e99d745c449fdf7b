package handlers

import (
	"context"
	"testing"
	"time"

	"admin-notes-backend/application/queries"
	"admin-notes-backend/application/queries/bus"
	"admin-notes-backend/application/services"
	"admin-notes-backend/infrastructure/persistence/memory"
	"admin-notes-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotesQueries(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	service := services.NewNotesService(memory.NewOptionStore(), nil, nil, logger, services.NotesServiceConfig{})
	_, err := service.Append(ctx, "first")
	require.NoError(t, err)
	_, err = service.Append(ctx, "second, with comma")
	require.NoError(t, err)

	handler := NewNotesQueryHandler(service, logger)
	handler.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	b := bus.NewQueryBus()
	require.NoError(t, handler.Register(b))

	t.Run("list", func(t *testing.T) {
		result, err := b.Ask(ctx, queries.ListNotesQuery{})
		require.NoError(t, err)

		list := result.(*queries.ListNotesResult)
		assert.Equal(t, 2, list.Count)
		assert.Equal(t, []string{"first", "second, with comma"}, list.Notes)
	})

	t.Run("export csv by default", func(t *testing.T) {
		result, err := b.Ask(ctx, queries.ExportNotesQuery{})
		require.NoError(t, err)

		export := result.(*queries.ExportNotesResult)
		assert.Equal(t, "text/csv; charset=utf-8", export.ContentType)
		assert.Equal(t, "admin-notes-2026-03-09.csv", export.FileName)
		assert.Equal(t, "first\n\"second, with comma\"\n", string(export.Data))
	})

	t.Run("export xlsx", func(t *testing.T) {
		result, err := b.Ask(ctx, queries.ExportNotesQuery{Format: "XLSX"})
		require.NoError(t, err)

		export := result.(*queries.ExportNotesResult)
		assert.Equal(t, "admin-notes-2026-03-09.xlsx", export.FileName)
		assert.NotEmpty(t, export.Data)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := b.Ask(ctx, queries.ExportNotesQuery{Format: "pdf"})
		assert.True(t, errors.IsValidation(err))
	})
}
