// Package planner drives origin resolution and route synthesis for one plan request.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bikeroute/bikeroute/internal/geocoding"
	"github.com/bikeroute/bikeroute/internal/routing"
	"github.com/bikeroute/bikeroute/internal/telemetry"
	"github.com/bikeroute/bikeroute/pkg/geo"
)

// Planner errors.
var (
	// ErrMissingOrigin indicates neither location text nor a coordinate was given.
	ErrMissingOrigin = errors.New("missing origin: provide a location or a coordinate")
	// ErrInvalidOrigin indicates a provided coordinate outside the valid range.
	ErrInvalidOrigin = errors.New("invalid origin coordinate")
	// ErrInvalidZone indicates an enabled zone with a distance outside (0, 200] km.
	ErrInvalidZone = routing.ErrInvalidZone
)

// SourceGPS marks an origin supplied as a coordinate.
const SourceGPS geocoding.Source = "gps"

// Resolver resolves location text to a coordinate.
type Resolver interface {
	Resolve(ctx context.Context, text string) (*geocoding.Resolution, error)
}

// Request is a plan request. Origin, when set, bypasses resolution of Location.
type Request struct {
	Location string
	Origin   *geo.Coordinate
	// Zones defaults to routing.DefaultZones when nil.
	Zones   []routing.DistanceZone
	Options routing.Options
}

// Result is one generation batch.
type Result struct {
	BatchID     uuid.UUID              `json:"batchId"`
	Origin      geo.Coordinate         `json:"origin"`
	OriginName  string                 `json:"originName"`
	Source      geocoding.Source       `json:"source"`
	Zones       []routing.DistanceZone `json:"zones"`
	Routes      []routing.BikeRoute    `json:"routes"`
	GeneratedAt time.Time              `json:"generatedAt"`
}

// ServiceConfig holds configuration for the planning service.
type ServiceConfig struct {
	Resolver    Resolver
	Synthesizer *routing.Synthesizer

	// DirectLatency and RealisticLatency are waited out before each zone's
	// direct and realistic batch respectively. Zero disables the wait.
	DirectLatency    time.Duration
	RealisticLatency time.Duration

	Logger zerolog.Logger
	Tracer trace.Tracer
}

// Service plans routes from a location.
type Service struct {
	resolver         Resolver
	synthesizer      *routing.Synthesizer
	directLatency    time.Duration
	realisticLatency time.Duration
	logger           zerolog.Logger
	tracer           trace.Tracer
	now              func() time.Time
}

// NewService creates a new planning service.
func NewService(cfg ServiceConfig) *Service {
	synth := cfg.Synthesizer
	if synth == nil {
		synth = routing.NewSynthesizer(routing.SynthesizerConfig{})
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}

	return &Service{
		resolver:         cfg.Resolver,
		synthesizer:      synth,
		directLatency:    cfg.DirectLatency,
		realisticLatency: cfg.RealisticLatency,
		logger:           cfg.Logger,
		tracer:           tracer,
		now:              time.Now,
	}
}

// Plan resolves the origin and synthesizes routes for every enabled zone.
// Resolution errors are returned unchanged.
func (s *Service) Plan(ctx context.Context, req Request) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "planner.Plan")
	defer span.End()

	result, err := s.plan(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("plan.batch_id", result.BatchID.String()),
		attribute.String("plan.origin_source", string(result.Source)),
		attribute.Int("plan.route_count", len(result.Routes)),
	)
	return result, nil
}

func (s *Service) plan(ctx context.Context, req Request) (*Result, error) {
	zones := req.Zones
	if zones == nil {
		zones = routing.DefaultZones()
	}
	for i, z := range zones {
		if !z.Enabled {
			continue
		}
		if err := z.Validate(); err != nil {
			return nil, fmt.Errorf("zone %d: %w", i, err)
		}
	}

	origin, err := s.resolveOrigin(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Result{
		BatchID:    uuid.New(),
		Origin:     origin.Coordinate,
		OriginName: origin.DisplayName,
		Source:     origin.Source,
		Zones:      zones,
		Routes:     []routing.BikeRoute{},
	}

	passes := s.passes(req.Options)
	for _, z := range routing.EnabledZones(zones) {
		for _, p := range passes {
			if err := wait(ctx, p.latency); err != nil {
				return nil, err
			}
			routes := s.synthesizer.Synthesize(origin.Coordinate, []routing.DistanceZone{z}, p.options)
			result.Routes = append(result.Routes, routes...)
		}
	}
	result.GeneratedAt = s.now()

	s.logger.Info().
		Str("batch_id", result.BatchID.String()).
		Str("origin_source", string(result.Source)).
		Float64("origin_lat", result.Origin.Lat).
		Float64("origin_lon", result.Origin.Lon).
		Int("route_count", len(result.Routes)).
		Msg("plan generated")

	return result, nil
}

// generationPass is one route kind with the latency that precedes it.
type generationPass struct {
	latency time.Duration
	options routing.Options
}

func (s *Service) passes(opts routing.Options) []generationPass {
	var out []generationPass
	if opts.Direct {
		out = append(out, generationPass{latency: s.directLatency, options: routing.Options{Direct: true}})
	}
	if opts.Realistic {
		out = append(out, generationPass{latency: s.realisticLatency, options: routing.Options{Realistic: true}})
	}
	return out
}

func (s *Service) resolveOrigin(ctx context.Context, req Request) (*geocoding.Resolution, error) {
	if req.Origin != nil {
		if err := req.Origin.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOrigin, err)
		}
		return &geocoding.Resolution{
			Coordinate:  *req.Origin,
			DisplayName: req.Origin.String(),
			Source:      SourceGPS,
		}, nil
	}

	if strings.TrimSpace(req.Location) == "" {
		return nil, ErrMissingOrigin
	}
	if s.resolver == nil {
		return nil, &geocoding.LocationError{Input: req.Location}
	}
	return s.resolver.Resolve(ctx, req.Location)
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
