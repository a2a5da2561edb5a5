// Package api provides the HTTP API of the bike route planner.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/bikeroute/bikeroute/internal/api/handler"
	"github.com/bikeroute/bikeroute/internal/api/middleware"
	"github.com/bikeroute/bikeroute/internal/api/models"
	"github.com/bikeroute/bikeroute/internal/api/response"
	"github.com/bikeroute/bikeroute/internal/provider/resilience"
)

// Resolver is the geocoding surface the API needs.
type Resolver interface {
	handler.LocationResolver
	handler.CacheStatser
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Registry    *resilience.Registry
	Resolver    Resolver
	Suggestions handler.SuggestionSource
	Gazetteer   handler.GazetteerSizer
	Planner     handler.Planner
	// Bearings are published by the zones metadata endpoint.
	Bearings []float64
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "bikeroute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, req, "no route matches "+req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		problem := models.NewProblem(models.ProblemTypeNotFound, "Method not allowed",
			http.StatusMethodNotAllowed, middleware.GetRequestID(req.Context()))
		problem.Detail = req.Method + " is not supported on " + req.URL.Path
		response.Error(w, req, problem)
	})

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Registry:  cfg.Registry,
		Cache:     cfg.Resolver,
		Gazetteer: cfg.Gazetteer,
	})
	geocodeHandler := handler.NewGeocodeHandler(cfg.Resolver, cfg.Suggestions, cfg.Logger)
	planHandler := handler.NewPlanHandler(cfg.Planner, cfg.Logger)
	metadataHandler := handler.NewMetadataHandler(cfg.Bearings)

	suggestRateLimit := middleware.RateLimitByIP(middleware.SuggestRateLimit)   // 120 req/min
	geocodeRateLimit := middleware.RateLimitByIP(middleware.GeocodeRateLimit)   // 60 req/min
	planRateLimit := middleware.RateLimitByIP(middleware.PlanRateLimit)         // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints are not rate limited so probes never see 429.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/geocode", func(r chi.Router) {
			r.With(geocodeRateLimit).Get("/", geocodeHandler.Resolve)
			r.With(suggestRateLimit).Get("/suggestions", geocodeHandler.Suggestions)
			r.With(geocodeRateLimit, middleware.RequireJSON).Post("/selections", geocodeHandler.Select)
		})

		r.With(planRateLimit, middleware.RequireJSON).Post("/plans", planHandler.CreatePlan)

		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/zones", metadataHandler.ListZones)
		})
	})

	return r
}
