package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"admin-notes-backend/application/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openStore(t *testing.T) *OptionStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "notes.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOptionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty option", func(t *testing.T) {
		store := openStore(t)
		require.NoError(t, store.Ping(ctx))

		record, err := store.Get(ctx, "wp_auto_admin_notes")
		require.NoError(t, err)
		assert.Zero(t, record.Version)
		assert.Empty(t, record.Values)
	})

	t.Run("insert then update", func(t *testing.T) {
		store := openStore(t)

		version, err := store.Put(ctx, "notes", []string{"one"}, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), version)

		version, err = store.Put(ctx, "notes", []string{"one", "two \"quoted\""}, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), version)

		record, err := store.Get(ctx, "notes")
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two \"quoted\""}, record.Values)
		assert.Equal(t, uint64(2), record.Version)
	})

	t.Run("empty list round trips as empty", func(t *testing.T) {
		store := openStore(t)
		_, err := store.Put(ctx, "notes", nil, 0)
		require.NoError(t, err)

		record, err := store.Get(ctx, "notes")
		require.NoError(t, err)
		assert.Empty(t, record.Values)
		assert.Equal(t, uint64(1), record.Version)
	})

	t.Run("version conflicts", func(t *testing.T) {
		store := openStore(t)
		_, err := store.Put(ctx, "notes", []string{"a"}, 0)
		require.NoError(t, err)

		_, err = store.Put(ctx, "notes", []string{"b"}, 0)
		assert.ErrorIs(t, err, ports.ErrVersionConflict)
		_, err = store.Put(ctx, "notes", []string{"b"}, 5)
		assert.ErrorIs(t, err, ports.ErrVersionConflict)
	})

	t.Run("only one concurrent writer wins a version", func(t *testing.T) {
		store := openStore(t)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.Put(ctx, "notes", []string{"x"}, 0); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}
