// Package resilient wraps an option store with a circuit breaker so a failing
// backend is shed quickly instead of stalling every request.
package resilient

import (
	"context"
	"errors"
	"time"

	"admin-notes-backend/application/ports"
	pkgerrors "admin-notes-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var _ ports.OptionStore = (*OptionStore)(nil)

// BreakerConfig holds configuration for the store circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the store breaker
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// OptionStore guards another ports.OptionStore with a circuit breaker
type OptionStore struct {
	next    ports.OptionStore
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewOptionStore wraps next with a circuit breaker
func NewOptionStore(next ports.OptionStore, config BreakerConfig, logger *zap.Logger) *OptionStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	})

	return &OptionStore{
		next:    next,
		breaker: breaker,
		logger:  logger,
	}
}

// Conflicts and caller cancellations say nothing about backend health.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, ports.ErrVersionConflict) ||
		errors.Is(err, context.Canceled)
}

// Get reads through the breaker
func (s *OptionStore) Get(ctx context.Context, name string) (ports.OptionRecord, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.next.Get(ctx, name)
	})
	if err != nil {
		return ports.OptionRecord{}, s.translate(err)
	}
	return result.(ports.OptionRecord), nil
}

// Put writes through the breaker
func (s *OptionStore) Put(ctx context.Context, name string, values []string, expectedVersion uint64) (uint64, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.next.Put(ctx, name, values, expectedVersion)
	})
	if err != nil {
		return 0, s.translate(err)
	}
	return result.(uint64), nil
}

// State reports the breaker state
func (s *OptionStore) State() gobreaker.State {
	return s.breaker.State()
}

func (s *OptionStore) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.logger.Warn("Option store request rejected by circuit breaker",
			zap.String("breaker", s.breaker.Name()),
			zap.Error(err),
		)
		return pkgerrors.NewUnavailableError("option store").WithCode(pkgerrors.CodeStoreUnavailable).WithCause(err)
	}
	return err
}
