package geocoding

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bikeroute/bikeroute/internal/telemetry"
)

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	// Provider is the online geocoder. Nil disables the provider tier.
	Provider Provider

	// Cache stores provider resolutions. Nil creates a private cache.
	Cache *Cache

	// Limiter gates provider dispatches. Share it with the Suggester.
	Limiter *RateLimiter

	// Gazetteer is the offline fallback. Nil uses BuiltinGazetteer.
	Gazetteer *Gazetteer

	// CountryCodes scopes provider queries, e.g. "de".
	CountryCodes string

	// Offline skips the provider tier.
	Offline bool

	Logger  zerolog.Logger
	Metrics *telemetry.GeocodingMetrics
	Tracer  trace.Tracer
}

// Resolver resolves free-form text to a coordinate.
type Resolver struct {
	provider     Provider
	cache        *Cache
	limiter      *RateLimiter
	gazetteer    *Gazetteer
	countryCodes string
	offline      bool
	logger       zerolog.Logger
	metrics      *telemetry.GeocodingMetrics
	tracer       trace.Tracer
}

// NewResolver creates a resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	cache := cfg.Cache
	if cache == nil {
		cache = NewCache(DefaultCacheTTL, nil)
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(DefaultRateInterval)
	}
	gazetteer := cfg.Gazetteer
	if gazetteer == nil {
		gazetteer = BuiltinGazetteer()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}

	return &Resolver{
		provider:     cfg.Provider,
		cache:        cache,
		limiter:      limiter,
		gazetteer:    gazetteer,
		countryCodes: cfg.CountryCodes,
		offline:      cfg.Offline || cfg.Provider == nil,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		tracer:       tracer,
	}
}

// Resolve walks literal, cache, provider and gazetteer tiers in order.
// It fails with a *LocationError once every tier is exhausted, or with the
// context error when ctx ended before a tier produced a result.
func (r *Resolver) Resolve(ctx context.Context, text string) (*Resolution, error) {
	ctx, span := r.tracer.Start(ctx, "geocoding.Resolve")
	defer span.End()

	res, err := r.resolve(ctx, text)
	if err != nil {
		r.metrics.RecordResolution(ctx, "unresolved")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	r.metrics.RecordResolution(ctx, string(res.Source))
	span.SetAttributes(attribute.String("geocoding.source", string(res.Source)))
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, text string) (*Resolution, error) {
	if c, err := ParseCoordinateLiteral(text); err == nil {
		return &Resolution{Coordinate: c, DisplayName: c.String(), Source: SourceLiteral}, nil
	}

	key := Normalize(text)
	if key == "" {
		return nil, &LocationError{Input: text}
	}

	if entry, ok := r.cache.Get(key); ok {
		r.metrics.RecordCacheLookup(ctx, true)
		r.logger.Debug().Str("query", key).Msg("geocode cache hit")
		return &Resolution{Coordinate: entry.Coordinate, DisplayName: entry.DisplayName, Source: SourceCache}, nil
	}
	r.metrics.RecordCacheLookup(ctx, false)

	if !r.offline {
		place, err := r.searchFirst(ctx, key)
		switch {
		case err != nil:
			r.logger.Warn().Err(err).
				Str("query", key).
				Str("provider", r.provider.Name()).
				Msg("geocoding provider failed, falling back to gazetteer")
		case place == nil:
			r.logger.Debug().Str("query", key).Msg("geocoding provider returned no results")
		default:
			r.cache.Put(key, CacheEntry{Coordinate: place.Coordinate, DisplayName: place.DisplayName})
			return &Resolution{Coordinate: place.Coordinate, DisplayName: place.DisplayName, Source: SourceProvider}, nil
		}
	}

	if e, ok := r.gazetteer.Lookup(key); ok {
		return &Resolution{Coordinate: e.Coordinate, DisplayName: e.Name, Source: SourceGazetteer}, nil
	}

	// A caller that gave up is not told the location does not exist.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, &LocationError{Input: text}
}

// searchFirst dispatches one rate-limited query. A nil place means no results.
func (r *Resolver) searchFirst(ctx context.Context, query string) (*Place, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &Error{
			Provider: r.provider.Name(),
			Code:     "RATE_LIMIT_WAIT",
			Message:  "waiting for rate limiter",
			Err:      errors.Join(ErrProviderUnavailable, err),
		}
	}

	start := time.Now()
	places, err := r.provider.Search(ctx, SearchRequest{
		Query:        query,
		Limit:        1,
		CountryCodes: r.countryCodes,
	})
	r.metrics.RecordProviderRequest(ctx, r.provider.Name(), "search", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil //nolint:nilnil // no results is not an error
	}
	return &places[0], nil
}

// Select adopts a chosen suggestion, seeding the cache under its display name.
func (r *Resolver) Select(s Suggestion) Resolution {
	key := Normalize(s.DisplayName)
	if key != "" {
		r.cache.Put(key, CacheEntry{Coordinate: s.Coordinate, DisplayName: s.DisplayName})
	}
	return Resolution{Coordinate: s.Coordinate, DisplayName: s.DisplayName, Source: SourceSelection}
}

// CacheStats reports cache usage.
func (r *Resolver) CacheStats() CacheStats {
	return r.cache.Stats()
}
