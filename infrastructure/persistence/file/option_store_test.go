package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"admin-notes-backend/application/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openStore(t *testing.T, path string) *OptionStore {
	t.Helper()
	store, err := NewOptionStore(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOptionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file reads as empty", func(t *testing.T) {
		store := openStore(t, filepath.Join(t.TempDir(), "options.yaml"))

		record, err := store.Get(ctx, "wp_auto_admin_notes")
		require.NoError(t, err)
		assert.Empty(t, record.Values)
		assert.Zero(t, record.Version)
	})

	t.Run("put persists across instances", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "options.yaml")
		store := openStore(t, path)

		version, err := store.Put(ctx, "notes", []string{"a", "b: with colon"}, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), version)

		reopened := openStore(t, path)
		record, err := reopened.Get(ctx, "notes")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b: with colon"}, record.Values)
		assert.Equal(t, uint64(1), record.Version)

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp files must not be left behind")
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		store := openStore(t, filepath.Join(t.TempDir(), "options.yaml"))
		_, err := store.Put(ctx, "notes", []string{"a"}, 0)
		require.NoError(t, err)

		_, err = store.Put(ctx, "notes", []string{"b"}, 0)
		assert.ErrorIs(t, err, ports.ErrVersionConflict)

		record, err := store.Get(ctx, "notes")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, record.Values)
	})

	t.Run("writes from another instance are detected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "options.yaml")
		first := openStore(t, path)
		second := openStore(t, path)

		_, err := first.Get(ctx, "notes")
		require.NoError(t, err)
		_, err = second.Put(ctx, "notes", []string{"from second"}, 0)
		require.NoError(t, err)

		_, err = first.Put(ctx, "notes", []string{"from first"}, 0)
		assert.ErrorIs(t, err, ports.ErrVersionConflict)

		assert.Eventually(t, func() bool {
			record, err := first.Get(ctx, "notes")
			return err == nil && record.Version == 1 && len(record.Values) == 1 && record.Values[0] == "from second"
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("corrupt file surfaces an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "options.yaml")
		require.NoError(t, os.WriteFile(path, []byte("options: [unterminated"), 0o600))
		store := openStore(t, path)

		_, err := store.Get(ctx, "notes")
		assert.Error(t, err)
	})

	t.Run("canceled context", func(t *testing.T) {
		store := openStore(t, filepath.Join(t.TempDir(), "options.yaml"))
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.Get(canceled, "notes")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
