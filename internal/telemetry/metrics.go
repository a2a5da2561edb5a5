package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GeocodingMetrics records geocoding provider calls and which resolution tier answered.
// A nil *GeocodingMetrics is valid and records nothing.
type GeocodingMetrics struct {
	providerDuration metric.Float64Histogram
	providerTotal    metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
	resolutions      metric.Int64Counter
}

// NewGeocodingMetrics creates the instruments on the global meter provider.
func NewGeocodingMetrics() (*GeocodingMetrics, error) {
	meter := otel.Meter(InstrumentationName)

	providerDuration, err := meter.Float64Histogram(
		"geocoding.provider.duration",
		metric.WithDescription("Duration of geocoding provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	providerTotal, err := meter.Int64Counter(
		"geocoding.provider.requests",
		metric.WithDescription("Geocoding provider requests by operation and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"geocoding.cache.hits",
		metric.WithDescription("Geocode cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"geocoding.cache.misses",
		metric.WithDescription("Geocode cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	resolutions, err := meter.Int64Counter(
		"geocoding.resolutions",
		metric.WithDescription("Location resolutions by answering tier"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, err
	}

	return &GeocodingMetrics{
		providerDuration: providerDuration,
		providerTotal:    providerTotal,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		resolutions:      resolutions,
	}, nil
}

// RecordProviderRequest records one provider call.
func (m *GeocodingMetrics) RecordProviderRequest(ctx context.Context, provider, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.String("outcome", outcome),
	)
	m.providerDuration.Record(ctx, d.Seconds(), attrs)
	m.providerTotal.Add(ctx, 1, attrs)
}

// RecordCacheLookup records a geocode cache hit or miss.
func (m *GeocodingMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Add(ctx, 1)
		return
	}
	m.cacheMisses.Add(ctx, 1)
}

// RecordResolution records which tier resolved a location ("unresolved" on failure).
func (m *GeocodingMetrics) RecordResolution(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.resolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}
