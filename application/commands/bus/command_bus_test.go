package bus

import (
	"context"
	"errors"
	"testing"

	pkgerrors "admin-notes-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type pingCommand struct {
	fail bool
}

func (c pingCommand) Validate() error {
	if c.fail {
		return errors.New("ping refused")
	}
	return nil
}

type otherCommand struct{}

func (otherCommand) Validate() error { return nil }

func TestCommandBus(t *testing.T) {
	t.Run("dispatches to the registered handler", func(t *testing.T) {
		b := NewCommandBus()
		calls := 0
		require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			calls++
			return nil
		})))

		require.NoError(t, b.Send(context.Background(), pingCommand{}))
		assert.Equal(t, 1, calls)
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		b := NewCommandBus()
		noop := CommandHandlerFunc(func(ctx context.Context, cmd Command) error { return nil })
		require.NoError(t, b.Register(pingCommand{}, noop))
		assert.Error(t, b.Register(pingCommand{}, noop))
	})

	t.Run("validation failure skips the handler", func(t *testing.T) {
		b := NewCommandBus()
		called := false
		require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			called = true
			return nil
		})))

		err := b.Send(context.Background(), pingCommand{fail: true})
		assert.ErrorContains(t, err, "ping refused")
		assert.False(t, called)
	})

	t.Run("unregistered command", func(t *testing.T) {
		err := NewCommandBus().Send(context.Background(), otherCommand{})
		assert.ErrorContains(t, err, "no handler registered")
	})

	t.Run("handler errors are wrapped", func(t *testing.T) {
		sentinel := errors.New("boom")
		b := NewCommandBus()
		require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			return sentinel
		})))

		assert.ErrorIs(t, b.Send(context.Background(), pingCommand{}), sentinel)
	})
}

func TestHandle(t *testing.T) {
	b := NewCommandBus()
	var got pingCommand
	require.NoError(t, Handle(b, func(ctx context.Context, cmd pingCommand) error {
		got = cmd
		return nil
	}))

	require.NoError(t, b.Send(context.Background(), pingCommand{}))
	assert.Equal(t, pingCommand{}, got)
	assert.Error(t, Handle(b, func(ctx context.Context, cmd pingCommand) error { return nil }))
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	b := NewCommandBus(LoggingMiddleware(zap.New(core)))

	var next error
	require.NoError(t, Handle(b, func(ctx context.Context, cmd pingCommand) error { return next }))

	require.NoError(t, b.Send(context.Background(), pingCommand{}))

	next = pkgerrors.NewValidationError("bad note")
	require.Error(t, b.Send(context.Background(), pingCommand{}))

	next = errors.New("disk full")
	require.Error(t, b.Send(context.Background(), pingCommand{}))

	assert.Equal(t, 1, logs.FilterMessage("Command handled").Len())
	assert.Equal(t, 1, logs.FilterMessage("Command rejected").Len())
	failed := logs.FilterMessage("Command failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zap.ErrorLevel, failed[0].Level)
	assert.Equal(t, "pingCommand", failed[0].ContextMap()["type"])
}
