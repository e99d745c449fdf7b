// Package messaging holds event publishers that do not need a broker.
package messaging

import (
	"context"

	"admin-notes-backend/application/ports"
	"admin-notes-backend/domain/events"

	"go.uber.org/zap"
)

var _ ports.EventPublisher = (*LoggingPublisher)(nil)

// LoggingPublisher writes events to the log. It is used when no event bus is
// configured.
type LoggingPublisher struct {
	logger *zap.Logger
}

// NewLoggingPublisher creates a new logging publisher
func NewLoggingPublisher(logger *zap.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

// Publish logs the event
func (p *LoggingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.logger.Info("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Uint64("version", event.GetVersion()),
		zap.Time("timestamp", event.GetTimestamp()),
	)
	return nil
}
