package routing

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/bikeroute/bikeroute/pkg/geo"
)

// DefaultBearings is the number of routes generated per zone and kind.
const DefaultBearings = 8

// SynthesizerConfig holds configuration for the route synthesizer.
type SynthesizerConfig struct {
	// Rand is the random source. Nil seeds a PCG source from the clock.
	Rand *rand.Rand

	// Bearings is the number of evenly spaced bearings (default: 8).
	Bearings int
}

// Synthesizer generates direct and realistic route candidates.
// It is safe for concurrent use.
type Synthesizer struct {
	bearings int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	rng := cfg.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano()) //nolint:gosec // visual variety, not security
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	bearings := cfg.Bearings
	if bearings <= 0 {
		bearings = DefaultBearings
	}
	return &Synthesizer{bearings: bearings, rng: rng}
}

// Bearings returns the evenly spaced bearings routes are generated along.
func (s *Synthesizer) Bearings() []float64 {
	out := make([]float64, s.bearings)
	for i := range out {
		out[i] = float64(i) * 360 / float64(s.bearings)
	}
	return out
}

// Synthesize generates routes for every enabled zone in order, direct routes
// before realistic ones within a zone.
func (s *Synthesizer) Synthesize(origin geo.Coordinate, zones []DistanceZone, opts Options) []BikeRoute {
	var routes []BikeRoute
	for _, z := range EnabledZones(zones) {
		if opts.Direct {
			routes = append(routes, s.DirectRoutes(origin, z.DistanceKm)...)
		}
		if opts.Realistic {
			routes = append(routes, s.RealisticRoutes(origin, z.DistanceKm)...)
		}
	}
	return routes
}

// DirectRoutes returns one great-circle segment per bearing.
func (s *Synthesizer) DirectRoutes(origin geo.Coordinate, distanceKm float64) []BikeRoute {
	s.mu.Lock()
	defer s.mu.Unlock()

	km := formatKm(distanceKm)
	routes := make([]BikeRoute, 0, s.bearings)
	for i, bearing := range s.Bearings() {
		routes = append(routes, BikeRoute{
			ID:                  fmt.Sprintf("direct-%s-%d", km, i),
			Name:                fmt.Sprintf("Direct %s km (%g°)", km, bearing),
			Kind:                KindDirect,
			RequestedDistanceKm: distanceKm,
			DistanceKm:          distanceKm,
			BearingDegrees:      bearing,
			Coordinates:         []geo.Coordinate{origin, geo.DestinationPoint(origin, distanceKm, bearing)},
			EstimatedTime:       FormatTravelTime(distanceKm, DirectSpeedKmh),
			ElevationMeters:     math.Floor(s.rng.Float64() * 200),
			Difficulty:          DirectDifficulty(distanceKm),
		})
	}
	return routes
}

// RealisticRoutes returns one jittered path per bearing. Each path runs from
// origin to the great-circle destination at distanceKm; the reported riding
// distance is inflated by a detour factor in [1.3, 1.8).
func (s *Synthesizer) RealisticRoutes(origin geo.Coordinate, distanceKm float64) []BikeRoute {
	s.mu.Lock()
	defer s.mu.Unlock()

	km := formatKm(distanceKm)
	routes := make([]BikeRoute, 0, s.bearings)
	for i, bearing := range s.Bearings() {
		path := s.realisticPath(origin, geo.DestinationPoint(origin, distanceKm, bearing))
		actual := distanceKm * (1.3 + s.rng.Float64()*0.5)
		elevation := math.Floor(actual * (5 + s.rng.Float64()*15))

		routes = append(routes, BikeRoute{
			ID:                  fmt.Sprintf("realistic-%s-%d", km, i),
			Name:                fmt.Sprintf("Bike route %s km (%g°)", km, bearing),
			Kind:                KindRealistic,
			RequestedDistanceKm: distanceKm,
			DistanceKm:          actual,
			BearingDegrees:      bearing,
			Coordinates:         path,
			EstimatedTime:       FormatTravelTime(actual, RealisticSpeedKmh),
			ElevationMeters:     elevation,
			Difficulty:          RealisticDifficulty(actual, elevation),
		})
	}
	return routes
}

// realisticPath interpolates between origin and dest over 20 to 34 segments.
// One noise amplitude in [0.02, 0.05) degrees governs the whole path; every
// intermediate point draws its own offset within it. Caller holds s.mu.
func (s *Synthesizer) realisticPath(origin, dest geo.Coordinate) []geo.Coordinate {
	steps := 20 + s.rng.IntN(15)
	variation := 0.02 + s.rng.Float64()*0.03
	dLon := geo.LongitudeDelta(origin.Lon, dest.Lon)

	path := make([]geo.Coordinate, 0, steps+1)
	path = append(path, origin)
	for i := 1; i < steps; i++ {
		progress := float64(i) / float64(steps)
		lat := origin.Lat + (dest.Lat-origin.Lat)*progress + (s.rng.Float64()-0.5)*variation
		lon := origin.Lon + dLon*progress + (s.rng.Float64()-0.5)*variation
		path = append(path, geo.Coordinate{
			Lat: math.Max(-90, math.Min(90, lat)),
			Lon: geo.NormalizeLongitude(lon),
		})
	}
	return append(path, dest)
}

// EnabledZones returns enabled, valid zones in order with duplicate distances
// dropped (first wins).
func EnabledZones(zones []DistanceZone) []DistanceZone {
	seen := make(map[float64]bool, len(zones))
	out := make([]DistanceZone, 0, len(zones))
	for _, z := range zones {
		if !z.Enabled || z.Validate() != nil || seen[z.DistanceKm] {
			continue
		}
		seen[z.DistanceKm] = true
		out = append(out, z)
	}
	return out
}

func formatKm(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
