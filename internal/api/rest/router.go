// Package rest exposes the crisis engine over HTTP.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/service"
)

// Options configure the router's outer middleware.
type Options struct {
	AllowedOrigins []string
	// RequestsPerSecond limits each client IP; zero disables limiting.
	RequestsPerSecond int
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// NewRouter builds the HTTP surface. A nil engine is allowed: crisis
// resources, health and metrics keep working and every other route answers
// FEATURE_DISABLED.
func NewRouter(engine *service.Engine, opts Options, logger *zap.Logger) http.Handler {
	h := &handler{engine: engine, logger: logger.Named("api")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoveryMiddleware)
	r.Use(tracingMiddleware)
	r.Use(loggingMiddleware)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id", "Traceparent"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		// Resources stay reachable whatever state the engine is in and are
		// never rate limited.
		r.Get("/crisis/resources", h.emergencyResources)

		r.Group(func(r chi.Router) {
			if opts.RequestsPerSecond > 0 {
				r.Use(httprate.LimitByIP(opts.RequestsPerSecond, time.Second))
			}
			r.Use(h.requireEngine)

			r.Post("/assessments/score", h.scoreAssessment)
			r.Post("/crisis/detect", h.detectCrisis)

			r.Route("/crisis/sessions", func(r chi.Router) {
				r.Post("/", h.createSession)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getSession)
					// Validation touches the session and is audited, so it is
					// not exposed as a safe method.
					r.Post("/access/{operation}", h.validateAccess)
					r.Post("/operations/{operation}", h.executeOperation)
					r.Post("/resolve", h.resolveSession)
				})
			})
		})
	})

	return r
}
