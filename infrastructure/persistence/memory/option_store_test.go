package memory

import (
	"context"
	"testing"

	"admin-notes-backend/application/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionStore(t *testing.T) {
	ctx := context.Background()
	store := NewOptionStore()

	t.Run("Should return empty record for unknown option", func(t *testing.T) {
		record, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, record.Values)
		assert.Zero(t, record.Version)
	})

	t.Run("Should write and bump version", func(t *testing.T) {
		version, err := store.Put(ctx, "notes", []string{"a"}, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), version)

		record, err := store.Get(ctx, "notes")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, record.Values)
		assert.Equal(t, uint64(1), record.Version)
	})

	t.Run("Should reject stale writes", func(t *testing.T) {
		_, err := store.Put(ctx, "notes", []string{"stale"}, 0)
		assert.ErrorIs(t, err, ports.ErrVersionConflict)

		record, err := store.Get(ctx, "notes")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, record.Values)
	})

	t.Run("Should honor cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.Get(cancelled, "notes")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
