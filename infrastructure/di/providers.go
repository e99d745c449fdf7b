package di

import (
	"context"
	"fmt"

	"admin-notes-backend/application/commands/bus"
	commandhandlers "admin-notes-backend/application/commands/handlers"
	"admin-notes-backend/application/ports"
	querybus "admin-notes-backend/application/queries/bus"
	queryhandlers "admin-notes-backend/application/queries/handlers"
	"admin-notes-backend/application/services"
	"admin-notes-backend/infrastructure/config"
	"admin-notes-backend/infrastructure/messaging"
	"admin-notes-backend/infrastructure/messaging/eventbridge"
	"admin-notes-backend/infrastructure/observability"
	"admin-notes-backend/infrastructure/persistence/dynamodb"
	"admin-notes-backend/infrastructure/persistence/file"
	"admin-notes-backend/infrastructure/persistence/memory"
	"admin-notes-backend/infrastructure/persistence/resilient"
	"admin-notes-backend/infrastructure/persistence/sqlite"
	"admin-notes-backend/pkg/auth"
	"admin-notes-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zapCfg.Level = level
	}

	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration. Loading does not contact AWS, so
// it is safe for drivers that never use it.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideMetrics creates the Prometheus collector, or nil when metrics are disabled
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("admin_notes")
}

// ProvideOptionStore opens the store selected by STORE_DRIVER. Durable
// backends sit behind a circuit breaker.
func ProvideOptionStore(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (ports.OptionStore, func(), error) {
	var (
		store   ports.OptionStore
		cleanup = func() {}
	)

	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("Using in-memory option store; notes are lost on restart")
		return memory.NewOptionStore(), cleanup, nil

	case config.DriverFile:
		fileStore, err := file.NewOptionStore(cfg.StorePath, logger)
		if err != nil {
			return nil, nil, err
		}
		store = fileStore
		cleanup = func() {
			if err := fileStore.Close(); err != nil {
				logger.Warn("Failed to close file store", zap.Error(err))
			}
		}

	case config.DriverSQLite:
		sqliteStore, err := sqlite.Open(ctx, cfg.SQLiteDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		store = sqliteStore
		cleanup = func() {
			if err := sqliteStore.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}

	case config.DriverDynamoDB:
		store = dynamodb.NewOptionStore(awsdynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, logger)

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	breaker := resilient.DefaultBreakerConfig(fmt.Sprintf("option-store-%s", cfg.StoreDriver))
	return resilient.NewOptionStore(store, breaker, logger), cleanup, nil
}

// ProvideEventPublisher publishes to EventBridge when events are enabled and
// to the log otherwise
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return messaging.NewLoggingPublisher(logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideNotesService creates the notes service
func ProvideNotesService(
	store ports.OptionStore,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
	cfg *config.Config,
) *services.NotesService {
	return services.NewNotesService(store, publisher, metrics, logger, services.NotesServiceConfig{
		OptionName:       cfg.OptionName,
		RejectEmptyNotes: cfg.RejectEmptyNotes,
	})
}

// ProvideCommandBus creates a command bus with the note handlers registered
func ProvideCommandBus(service *services.NotesService, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	if err := commandhandlers.NewNotesCommandHandler(service, logger).Register(commandBus); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with the note handlers registered
func ProvideQueryBus(service *services.NotesService, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.TimingMiddleware(logger))
	if err := queryhandlers.NewNotesQueryHandler(service, logger).Register(queryBus); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideJWTValidator creates the session token validator
func ProvideJWTValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, using the development secret")
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSigningKey(),
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideNonceManager creates the request nonce manager
func ProvideNonceManager(cfg *config.Config, logger *zap.Logger) (*auth.NonceManager, error) {
	if cfg.NonceSecret == "" {
		logger.Warn("NONCE_SECRET not set, using the development secret")
	}
	return auth.NewNonceManager(cfg.NonceKey(), cfg.NonceLifetime)
}

// ProvideRateLimiter creates the per-IP rate limiter, or nil when disabled
func ProvideRateLimiter(cfg *config.Config) *auth.IPRateLimiter {
	if cfg.RateLimitPerMinute <= 0 {
		return nil
	}
	return auth.NewIPRateLimiter(cfg.RateLimitPerMinute)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, !cfg.IsProduction())
}
