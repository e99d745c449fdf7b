package di

import (
	"admin-notes-backend/application/commands/bus"
	"admin-notes-backend/application/ports"
	querybus "admin-notes-backend/application/queries/bus"
	"admin-notes-backend/application/services"
	"admin-notes-backend/infrastructure/config"
	"admin-notes-backend/infrastructure/observability"
	"admin-notes-backend/pkg/auth"
	"admin-notes-backend/pkg/errors"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        ports.OptionStore
	Publisher    ports.EventPublisher
	Metrics      *observability.Collector
	NotesService *services.NotesService
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	JWTValidator *auth.JWTValidator
	Nonces       *auth.NonceManager
	RateLimiter  *auth.IPRateLimiter
	ErrorHandler *errors.ErrorHandler
}
