package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"taxonomy/application/commands/bus"
	querybus "taxonomy/application/queries/bus"
	"taxonomy/interfaces/http/rest/handlers"
	"taxonomy/interfaces/http/rest/middleware"
	"taxonomy/pkg/auth"
	pkgerrors "taxonomy/pkg/errors"
	"taxonomy/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// Options selects the optional parts of the router. Nil collectors and
// tracers switch the matching middleware off.
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	Debug          bool
	Collector      *observability.Collector
	Tracer         *observability.Tracer
	Readiness      map[string]ReadinessCheck

	// RateLimiter guards the routes that call the classification service.
	// Nil disables limiting.
	RateLimiter auth.RateLimiter
	RetryAfter  time.Duration
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	opts       Options
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	opts Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		opts:       opts,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.opts.Debug)

	// Global middleware
	if rt.opts.Tracer != nil {
		router.Use(rt.opts.Tracer.Middleware)
	}
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Recover)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Collector != nil {
		router.Use(middleware.Metrics(rt.opts.Collector))
	}
	router.Use(versionMiddleware)

	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match", middleware.APIKeyHeader, "X-Request-ID"},
			ExposedHeaders: []string{"ETag", "Location", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.Collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Collector.Handler())
	}

	sessionHandler := handlers.NewSessionHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
	graphHandler := handlers.NewGraphHandler(rt.queryBus, errorHandler, rt.logger)
	nodeHandler := handlers.NewNodeHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKey)

		r.Get("/status", graphHandler.GetStatus)

		r.Post("/sessions", sessionHandler.CreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", sessionHandler.GetSession)
			r.Post("/reload", sessionHandler.ReloadSession)
			r.Post("/attach", sessionHandler.AttachSession)
			r.Get("/events", sessionHandler.GetEvents)
			r.Get("/graph", graphHandler.GetGraph)

			r.Route("/nodes/{key}", func(r chi.Router) {
				r.Get("/", nodeHandler.GetNode)
				r.Put("/", nodeHandler.EditNode)
				r.Delete("/", nodeHandler.DeleteNode)
				r.Group(func(r chi.Router) {
					if rt.opts.RateLimiter != nil {
						r.Use(middleware.RateLimit(rt.opts.RateLimiter, rt.opts.RetryAfter, errorHandler, rt.logger))
					}
					r.Post("/generate", nodeHandler.Generate)
					r.Post("/classify", nodeHandler.Classify)
				})
				r.Patch("/position", nodeHandler.MoveNode)
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck runs every registered dependency check
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range rt.opts.Readiness {
		if err := check(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			failed[name] = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if len(failed) > 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "not ready", "failed": failed})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// versionMiddleware adds the API version header to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		next.ServeHTTP(w, r)
	})
}
