// Package main provides the entrypoint for the bike route API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/bikeroute/bikeroute/internal/api"
	"github.com/bikeroute/bikeroute/internal/api/middleware"
	"github.com/bikeroute/bikeroute/internal/config"
	"github.com/bikeroute/bikeroute/internal/database"
	"github.com/bikeroute/bikeroute/internal/geocoding"
	"github.com/bikeroute/bikeroute/internal/geocoding/nominatim"
	"github.com/bikeroute/bikeroute/internal/planner"
	"github.com/bikeroute/bikeroute/internal/provider/resilience"
	"github.com/bikeroute/bikeroute/internal/routing"
	"github.com/bikeroute/bikeroute/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	serviceName := cfg.Telemetry.ServiceName

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		Level(cfg.Log.ZerologLevel()).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting bike route API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	geoMetrics, err := telemetry.NewGeocodingMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize geocoding metrics")
	}

	gazetteer, pool, err := loadGazetteer(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load gazetteer")
	}
	if pool != nil {
		defer pool.Close()
	}

	registry := resilience.NewRegistry()

	// The provider, limiter and cache are shared by resolution and
	// autocomplete so the upstream sees one request stream.
	var provider geocoding.Provider
	if !cfg.Geocoding.Offline {
		httpCfg := nominatim.DefaultHTTPConfig(registry)
		httpCfg.Timeout = cfg.Geocoding.Timeout
		provider = nominatim.NewClient(nominatim.ClientConfig{
			BaseURL:    cfg.Geocoding.BaseURL,
			UserAgent:  cfg.Geocoding.UserAgent,
			HTTPClient: resilience.NewClient(httpCfg),
			Logger:     log,
		})
		log.Info().
			Str("base_url", cfg.Geocoding.BaseURL).
			Dur("rate_interval", cfg.Geocoding.RateInterval).
			Msg("geocoding provider configured")
	} else {
		log.Warn().Msg("geocoding provider disabled, resolving from cache and gazetteer only")
	}

	limiter := geocoding.NewRateLimiter(cfg.Geocoding.RateInterval)
	cache := geocoding.NewCache(cfg.Geocoding.CacheTTL, nil)

	resolver := geocoding.NewResolver(geocoding.ResolverConfig{
		Provider:     provider,
		Cache:        cache,
		Limiter:      limiter,
		Gazetteer:    gazetteer,
		CountryCodes: cfg.Geocoding.CountryCodes,
		Offline:      cfg.Geocoding.Offline,
		Logger:       log,
		Metrics:      geoMetrics,
	})

	suggester := geocoding.NewSuggester(geocoding.SuggesterConfig{
		Provider:     provider,
		Limiter:      limiter,
		CountryCodes: cfg.Geocoding.CountryCodes,
		MinChars:     cfg.Geocoding.SuggestMinChars,
		Limit:        cfg.Geocoding.SuggestLimit,
		Logger:       log,
		Metrics:      geoMetrics,
	})
	debouncer := geocoding.NewDebouncer(suggester, cfg.Geocoding.SuggestDebounce)

	synthesizer := routing.NewSynthesizer(routing.SynthesizerConfig{})
	planService := planner.NewService(planner.ServiceConfig{
		Resolver:         resolver,
		Synthesizer:      synthesizer,
		DirectLatency:    cfg.Planner.DirectLatency,
		RealisticLatency: cfg.Planner.RealisticLatency,
		Logger:           log,
	})
	log.Info().Msg("planner initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		Registry:    registry,
		Resolver:    resolver,
		Suggestions: debouncer,
		Gazetteer:   gazetteer,
		Planner:     planService,
		Bearings:    synthesizer.Bearings(),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// loadGazetteer returns the fallback table selected by configuration. The
// pool is only opened for the postgres source and is returned for closing.
func loadGazetteer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*geocoding.Gazetteer, *pgxpool.Pool, error) {
	if cfg.Gazetteer.Source != config.GazetteerPostgres {
		g := geocoding.BuiltinGazetteer()
		postal, places := g.Size()
		log.Info().Int("postal_codes", postal).Int("places", places).Msg("builtin gazetteer loaded")
		return g, nil, nil
	}

	dbConfig := cfg.Database.Connection()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		return nil, nil, err
	}
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	g, err := geocoding.LoadGazetteer(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	postal, places := g.Size()
	log.Info().Int("postal_codes", postal).Int("places", places).Msg("gazetteer loaded from database")
	return g, pool, nil
}
