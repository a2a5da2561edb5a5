// Package routing synthesizes candidate cycling routes radiating from an origin.
//
// Routes are geometric approximations, not road-network routing: direct routes
// are great-circle segments and realistic routes are jittered polylines with a
// randomized detour factor.
package routing

import (
	"errors"
	"fmt"
	"math"

	"github.com/bikeroute/bikeroute/pkg/geo"
)

// MaxZoneDistanceKm is the largest accepted zone distance.
const MaxZoneDistanceKm = 200.0

// ErrInvalidZone indicates a zone distance outside (0, MaxZoneDistanceKm].
var ErrInvalidZone = errors.New("invalid distance zone")

// Kind distinguishes direct and realistic routes.
type Kind string

const (
	KindDirect    Kind = "direct"
	KindRealistic Kind = "realistic"
)

// ParseKind parses a route kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDirect, KindRealistic:
		return k, nil
	default:
		return "", fmt.Errorf("unknown route kind %q", s)
	}
}

// Difficulty is a coarse effort classification.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// BikeRoute is one synthesized route candidate. It is never mutated after creation.
type BikeRoute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// RequestedDistanceKm is the zone distance the route was generated for.
	RequestedDistanceKm float64 `json:"requestedDistanceKm"`
	// DistanceKm is the estimated riding distance; inflated for realistic routes.
	DistanceKm float64 `json:"distanceKm"`

	BearingDegrees  float64          `json:"bearingDegrees"`
	Coordinates     []geo.Coordinate `json:"coordinates"`
	EstimatedTime   string           `json:"estimatedTime"`
	ElevationMeters float64          `json:"elevationMeters"`
	Difficulty      Difficulty       `json:"difficulty"`
}

// Origin returns the first coordinate.
func (r *BikeRoute) Origin() geo.Coordinate {
	return r.Coordinates[0]
}

// Destination returns the last coordinate.
func (r *BikeRoute) Destination() geo.Coordinate {
	return r.Coordinates[len(r.Coordinates)-1]
}

// DistanceZone is a target distance ring.
type DistanceZone struct {
	DistanceKm float64 `json:"distanceKm"`
	Enabled    bool    `json:"enabled"`
	Color      string  `json:"color"`
}

// Validate checks that the distance lies in (0, MaxZoneDistanceKm].
func (z DistanceZone) Validate() error {
	if math.IsNaN(z.DistanceKm) || z.DistanceKm <= 0 || z.DistanceKm > MaxZoneDistanceKm {
		return fmt.Errorf("%w: distance %g km must be in (0, %g]", ErrInvalidZone, z.DistanceKm, MaxZoneDistanceKm)
	}
	return nil
}

// Options selects which route kinds are generated.
type Options struct {
	Direct    bool `json:"direct"`
	Realistic bool `json:"realistic"`
}

// DefaultOptions enables both route kinds.
func DefaultOptions() Options {
	return Options{Direct: true, Realistic: true}
}
