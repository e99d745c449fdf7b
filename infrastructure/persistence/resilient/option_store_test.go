package resilient

import (
	"context"
	"errors"
	"testing"
	"time"

	"admin-notes-backend/application/ports"
	"admin-notes-backend/infrastructure/persistence/memory"
	pkgerrors "admin-notes-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakyStore struct {
	*memory.OptionStore
	err   error
	calls int
}

func (s *flakyStore) Get(ctx context.Context, name string) (ports.OptionRecord, error) {
	s.calls++
	if s.err != nil {
		return ports.OptionRecord{}, s.err
	}
	return s.OptionStore.Get(ctx, name)
}

func testConfig() BreakerConfig {
	config := DefaultBreakerConfig("options-test")
	config.MinRequests = 3
	config.FailureThreshold = 0.5
	config.Timeout = time.Minute
	return config
}

func TestOptionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("passes through when healthy", func(t *testing.T) {
		store := NewOptionStore(memory.NewOptionStore(), testConfig(), zap.NewNop())

		version, err := store.Put(ctx, "notes", []string{"a"}, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), version)

		record, err := store.Get(ctx, "notes")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, record.Values)
		assert.Equal(t, gobreaker.StateClosed, store.State())
	})

	t.Run("opens after repeated failures", func(t *testing.T) {
		backend := &flakyStore{OptionStore: memory.NewOptionStore(), err: errors.New("connection refused")}
		store := NewOptionStore(backend, testConfig(), zap.NewNop())

		for i := 0; i < 3; i++ {
			_, err := store.Get(ctx, "notes")
			assert.ErrorContains(t, err, "connection refused")
		}
		assert.Equal(t, gobreaker.StateOpen, store.State())

		_, err := store.Get(ctx, "notes")
		assert.True(t, pkgerrors.IsUnavailable(err))
		assert.Equal(t, 3, backend.calls, "open breaker must not reach the backend")
	})

	t.Run("version conflicts do not trip the breaker", func(t *testing.T) {
		store := NewOptionStore(memory.NewOptionStore(), testConfig(), zap.NewNop())
		_, err := store.Put(ctx, "notes", []string{"a"}, 0)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			_, err := store.Put(ctx, "notes", []string{"b"}, 0)
			assert.ErrorIs(t, err, ports.ErrVersionConflict)
		}
		assert.Equal(t, gobreaker.StateClosed, store.State())
	})
}
