// Package geocoding turns free-form place descriptions into coordinates.
//
// Resolution walks four tiers in order: an inline coordinate literal, the
// time-boxed cache, a rate-limited provider query and the static gazetteer.
// Provider failures never reach the caller; only ErrUnresolvableLocation does.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bikeroute/bikeroute/pkg/geo"
)

// Sentinel errors for geocoding operations.
var (
	// ErrInvalidCoordinateLiteral indicates text that is not an in-range "lat, lon" pair.
	ErrInvalidCoordinateLiteral = errors.New("invalid coordinate literal")
	// ErrProviderUnavailable indicates a network failure, non-2xx status or open circuit.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrRateLimitExceeded indicates the provider rejected the request as over quota.
	ErrRateLimitExceeded = errors.New("geocoding rate limit exceeded")
	// ErrBadResponse indicates a provider payload that could not be decoded.
	ErrBadResponse = errors.New("malformed geocoding response")
	// ErrUnresolvableLocation indicates that no tier produced a coordinate.
	ErrUnresolvableLocation = errors.New("location could not be resolved")
	// ErrSuperseded indicates a debounced suggestion request replaced by a newer one.
	ErrSuperseded = errors.New("suggestion request superseded")
)

// Error provides detailed error information from a geocoding provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code, e.g. HTTP_503 or RATE_LIMIT
	Message  string // Human-readable error message
	Err      error  // Underlying sentinel
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// LocationError is returned when every resolution tier is exhausted.
type LocationError struct {
	Input string
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("location %q could not be resolved", e.Input)
}

func (e *LocationError) Unwrap() error {
	return ErrUnresolvableLocation
}

// Source names the tier that produced a resolution.
type Source string

const (
	SourceLiteral   Source = "literal"
	SourceCache     Source = "cache"
	SourceProvider  Source = "provider"
	SourceGazetteer Source = "gazetteer"
	SourceSelection Source = "selection"
)

// Resolution is a resolved location.
type Resolution struct {
	Coordinate  geo.Coordinate `json:"coordinate"`
	DisplayName string         `json:"displayName"`
	Source      Source         `json:"source"`
}

// Place is a single provider search hit.
type Place struct {
	Coordinate  geo.Coordinate
	DisplayName string
	ID          string
	Kind        string
	Importance  float64
}

// SearchRequest is a free-text provider query.
type SearchRequest struct {
	Query        string
	Limit        int
	CountryCodes string // comma separated ISO 3166-1 alpha-2 codes, empty for worldwide
}

// Provider defines the interface for text-search geocoding providers.
type Provider interface {
	// Search returns up to req.Limit places ordered by relevance.
	Search(ctx context.Context, req SearchRequest) ([]Place, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Suggestion is an autocomplete candidate.
type Suggestion struct {
	DisplayName string         `json:"displayName"`
	Coordinate  geo.Coordinate `json:"coordinate"`
	ProviderID  string         `json:"providerId"`
	PlaceKind   string         `json:"placeKind"`
}

// CacheEntry is a cached provider resolution.
type CacheEntry struct {
	Coordinate  geo.Coordinate
	DisplayName string
	ResolvedAt  time.Time
}
