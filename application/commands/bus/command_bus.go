package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	pkgerrors "admin-notes-backend/pkg/errors"

	"go.uber.org/zap"
)

// Command represents a command that changes state
type Command interface {
	Validate() error
}

// CommandHandler handles a specific command type
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc is an adapter to allow functions to be used as handlers
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// Middleware wraps a handler
type Middleware func(next CommandHandler) CommandHandler

// CommandBus routes each command to the single handler registered for its
// concrete type
type CommandBus struct {
	mu          sync.RWMutex
	routes      map[reflect.Type]CommandHandler
	middlewares []Middleware
}

// NewCommandBus creates a command bus. Middlewares wrap every handler in the
// order given, the first being outermost.
func NewCommandBus(middlewares ...Middleware) *CommandBus {
	return &CommandBus{
		routes:      make(map[reflect.Type]CommandHandler),
		middlewares: middlewares,
	}
}

// Register routes commands of the same concrete type as prototype to handler
func (b *CommandBus) Register(prototype Command, handler CommandHandler) error {
	key := reflect.TypeOf(prototype)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, taken := b.routes[key]; taken {
		return fmt.Errorf("command %s already has a handler", key)
	}
	b.routes[key] = b.wrap(handler)
	return nil
}

// Handle registers a handler typed on the concrete command C
func Handle[C Command](b *CommandBus, fn func(ctx context.Context, cmd C) error) error {
	var prototype C
	return b.Register(prototype, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		typed, ok := cmd.(C)
		if !ok {
			return pkgerrors.NewInternalError(fmt.Sprintf("command %T routed to the %T handler", cmd, prototype))
		}
		return fn(ctx, typed)
	}))
}

func (b *CommandBus) wrap(handler CommandHandler) CommandHandler {
	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	return handler
}

// Send validates cmd and runs its handler
func (b *CommandBus) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	b.mu.RLock()
	handler, ok := b.routes[reflect.TypeOf(cmd)]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler registered for command %T", cmd)
	}

	if err := handler.Handle(ctx, cmd); err != nil {
		return fmt.Errorf("%T: %w", cmd, err)
	}
	return nil
}

// LoggingMiddleware logs every command with its duration. Failures the caller
// can correct are logged at warn level and the rest at error level.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			start := time.Now()
			err := next.Handle(ctx, cmd)

			fields := []zap.Field{
				zap.String("type", reflect.TypeOf(cmd).Name()),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case err == nil:
				logger.Debug("Command handled", fields...)
			case callerFault(err):
				logger.Warn("Command rejected", append(fields, zap.Error(err))...)
			default:
				logger.Error("Command failed", append(fields, zap.Error(err))...)
			}
			return err
		})
	}
}

func callerFault(err error) bool {
	return pkgerrors.IsValidation(err) || pkgerrors.IsNotFound(err) || pkgerrors.IsConflict(err)
}
