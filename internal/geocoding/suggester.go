package geocoding

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/bikeroute/bikeroute/internal/telemetry"
)

const (
	// DefaultSuggestMinChars is the shortest input that triggers a lookup.
	DefaultSuggestMinChars = 3
	// DefaultSuggestLimit is the maximum number of suggestions requested.
	DefaultSuggestLimit = 5
)

// SuggesterConfig holds configuration for the autocomplete suggester.
type SuggesterConfig struct {
	// Provider is the online geocoder. Nil yields no suggestions.
	Provider Provider

	// Limiter gates provider dispatches. Share it with the Resolver.
	Limiter *RateLimiter

	CountryCodes string

	// MinChars is the minimum input length (default: 3).
	MinChars int

	// Limit is the number of results requested (default: 5).
	Limit int

	Logger  zerolog.Logger
	Metrics *telemetry.GeocodingMetrics
}

// Suggester fetches autocomplete candidates. It never returns errors.
type Suggester struct {
	provider     Provider
	limiter      *RateLimiter
	countryCodes string
	minChars     int
	limit        int
	logger       zerolog.Logger
	metrics      *telemetry.GeocodingMetrics
}

// NewSuggester creates a suggester.
func NewSuggester(cfg SuggesterConfig) *Suggester {
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(DefaultRateInterval)
	}
	minChars := cfg.MinChars
	if minChars <= 0 {
		minChars = DefaultSuggestMinChars
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	return &Suggester{
		provider:     cfg.Provider,
		limiter:      limiter,
		countryCodes: cfg.CountryCodes,
		minChars:     minChars,
		limit:        limit,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// Accepts reports whether text is long enough to query.
func (s *Suggester) Accepts(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= s.minChars
}

// Suggest returns up to Limit candidates for text. Short input, provider
// errors and cancellation all yield an empty slice.
func (s *Suggester) Suggest(ctx context.Context, text string) []Suggestion {
	text = strings.TrimSpace(text)
	if !s.Accepts(text) || s.provider == nil {
		return []Suggestion{}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return []Suggestion{}
	}

	start := time.Now()
	places, err := s.provider.Search(ctx, SearchRequest{
		Query:        text,
		Limit:        s.limit,
		CountryCodes: s.countryCodes,
	})
	s.metrics.RecordProviderRequest(ctx, s.provider.Name(), "suggest", time.Since(start), err)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("query", text).
			Str("provider", s.provider.Name()).
			Msg("autocomplete lookup failed")
		return []Suggestion{}
	}

	if len(places) > s.limit {
		places = places[:s.limit]
	}
	suggestions := make([]Suggestion, 0, len(places))
	for _, p := range places {
		suggestions = append(suggestions, Suggestion{
			DisplayName: p.DisplayName,
			Coordinate:  p.Coordinate,
			ProviderID:  p.ID,
			PlaceKind:   p.Kind,
		})
	}
	return suggestions
}
