package rest

import (
	"net/http"

	"admin-notes-backend/application/commands/bus"
	querybus "admin-notes-backend/application/queries/bus"
	"admin-notes-backend/application/services"
	"admin-notes-backend/infrastructure/config"
	"admin-notes-backend/infrastructure/di"
	"admin-notes-backend/infrastructure/observability"
	"admin-notes-backend/interfaces/http/rest/handlers"
	"admin-notes-backend/interfaces/http/rest/middleware"
	"admin-notes-backend/pkg/auth"
	pkgerrors "admin-notes-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	config       *config.Config
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	notes        *services.NotesService
	validator    *auth.JWTValidator
	nonces       *auth.NonceManager
	rateLimiter  *auth.IPRateLimiter
	metrics      *observability.Collector
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewRouter creates a new router from the dependency container
func NewRouter(container *di.Container) *Router {
	return &Router{
		config:       container.Config,
		commandBus:   container.CommandBus,
		queryBus:     container.QueryBus,
		notes:        container.NotesService,
		validator:    container.JWTValidator,
		nonces:       container.Nonces,
		rateLimiter:  container.RateLimiter,
		metrics:      container.Metrics,
		errorHandler: container.ErrorHandler,
		logger:       container.Logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger, rt.metrics))

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", handlers.NonceHeader},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	adminHandler := handlers.NewAdminHandler(rt.commandBus, rt.queryBus, rt.nonces, rt.errorHandler, rt.logger)
	notesHandler := handlers.NewNotesHandler(rt.commandBus, rt.queryBus, rt.nonces, rt.errorHandler, rt.logger)

	// Admin routes mirror the plugin's page, admin-ajax and admin-post endpoints
	router.Route("/admin", func(r chi.Router) {
		r.Use(rt.protected()...)
		r.Get("/notes", adminHandler.NotesPage)
		r.Post("/ajax", adminHandler.Ajax)
		r.Get("/post", adminHandler.AdminPost)
		r.Post("/post", adminHandler.AdminPost)
	})

	router.Route("/api/v2", func(r chi.Router) {
		r.Use(rt.protected()...)
		r.Get("/nonces", notesHandler.Nonces)
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", notesHandler.ListNotes)
			r.Post("/", notesHandler.CreateNote)
			r.Get("/export", notesHandler.ExportNotes)
			r.Put("/{index}", notesHandler.UpdateNote)
			r.Delete("/{index}", notesHandler.DeleteNote)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

// protected returns the middleware chain every admin and API route runs behind
func (rt *Router) protected() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RateLimit(rt.rateLimiter, rt.errorHandler),
		middleware.Authenticate(rt.validator, rt.errorHandler, rt.logger),
		middleware.RequireCapability(auth.CapabilityManageOptions, rt.errorHandler),
	}
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready once the default notes have been ensured
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !rt.notes.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"starting"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
