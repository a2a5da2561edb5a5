package geocoding_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bikeroute/bikeroute/internal/geocoding"
	"github.com/bikeroute/bikeroute/pkg/geo"
)

var berlinPlace = geocoding.Place{
	Coordinate:  geo.Coordinate{Lat: 52.5170365, Lon: 13.3888599},
	DisplayName: "Berlin, Deutschland",
	ID:          "240109189",
	Kind:        "city",
	Importance:  0.9,
}

func newTestResolver(provider geocoding.Provider, cache *geocoding.Cache) *geocoding.Resolver {
	return geocoding.NewResolver(geocoding.ResolverConfig{
		Provider:     provider,
		Cache:        cache,
		Limiter:      geocoding.NewRateLimiter(time.Millisecond),
		CountryCodes: "de",
	})
}

func TestResolver_LiteralSkipsCacheAndProvider(t *testing.T) {
	provider := &mockProvider{places: []geocoding.Place{berlinPlace}}
	cache := geocoding.NewCache(time.Hour, nil)
	resolver := newTestResolver(provider, cache)

	res, err := resolver.Resolve(context.Background(), "52.52, 13.405")
	require.NoError(t, err)

	assert.Equal(t, geo.Coordinate{Lat: 52.52, Lon: 13.405}, res.Coordinate)
	assert.Equal(t, geocoding.SourceLiteral, res.Source)
	assert.Equal(t, "52.5200, 13.4050", res.DisplayName)
	assert.Equal(t, int32(0), provider.calls.Load())
	assert.Equal(t, geocoding.CacheStats{}, cache.Stats())
}

func TestResolver_OutOfRangeLiteralFallsThrough(t *testing.T) {
	provider := &mockProvider{places: []geocoding.Place{berlinPlace}}
	resolver := newTestResolver(provider, nil)

	res, err := resolver.Resolve(context.Background(), "91.0, 0.0")
	require.NoError(t, err)

	assert.Equal(t, geocoding.SourceProvider, res.Source)
	assert.Equal(t, int32(1), provider.calls.Load())
	assert.Equal(t, "91.0, 0.0", provider.lastRequest().Query)
}

func TestResolver_ProviderQuery(t *testing.T) {
	provider := &mockProvider{places: []geocoding.Place{berlinPlace}}
	resolver := newTestResolver(provider, nil)

	res, err := resolver.Resolve(context.Background(), "  Berlin ")
	require.NoError(t, err)

	assert.Equal(t, berlinPlace.Coordinate, res.Coordinate)
	assert.Equal(t, "Berlin, Deutschland", res.DisplayName)
	assert.Equal(t, geocoding.SourceProvider, res.Source)

	req := provider.lastRequest()
	assert.Equal(t, "berlin", req.Query)
	assert.Equal(t, 1, req.Limit)
	assert.Equal(t, "de", req.CountryCodes)
}

func TestResolver_CacheWithinTTL(t *testing.T) {
	clock := newFakeClock()
	provider := &mockProvider{places: []geocoding.Place{berlinPlace}}
	resolver := newTestResolver(provider, geocoding.NewCache(time.Hour, clock.Now))

	_, err := resolver.Resolve(context.Background(), "Berlin")
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	res, err := resolver.Resolve(context.Background(), "BERLIN")
	require.NoError(t, err)

	assert.Equal(t, geocoding.SourceCache, res.Source)
	assert.Equal(t, berlinPlace.Coordinate, res.Coordinate)
	assert.Equal(t, int32(1), provider.calls.Load())

	clock.Advance(31 * time.Minute)
	res, err = resolver.Resolve(context.Background(), "berlin")
	require.NoError(t, err)

	assert.Equal(t, geocoding.SourceProvider, res.Source)
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestResolver_ProviderFailureFallsBackToGazetteer(t *testing.T) {
	provider := &mockProvider{err: &geocoding.Error{
		Provider: "mock",
		Code:     "SERVER_503",
		Message:  "unavailable",
		Err:      geocoding.ErrProviderUnavailable,
	}}
	cache := geocoding.NewCache(time.Hour, nil)
	resolver := newTestResolver(provider, cache)

	res, err := resolver.Resolve(context.Background(), "33818")
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 52.0167, Lon: 8.7}, res.Coordinate)
	assert.Equal(t, geocoding.SourceGazetteer, res.Source)

	res, err = resolver.Resolve(context.Background(), "Altstadt Lemgo")
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 52.0286, Lon: 8.8998}, res.Coordinate)

	assert.Equal(t, 0, cache.Len(), "gazetteer hits are not cached")
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestResolver_EmptyProviderResultFallsBackToGazetteer(t *testing.T) {
	provider := &mockProvider{}
	resolver := newTestResolver(provider, nil)

	res, err := resolver.Resolve(context.Background(), "Detmold")
	require.NoError(t, err)
	assert.Equal(t, geocoding.SourceGazetteer, res.Source)
	assert.Equal(t, "Detmold", res.DisplayName)
}

func TestResolver_Unresolvable(t *testing.T) {
	provider := &mockProvider{err: errors.New("dial tcp: connection refused")}
	resolver := newTestResolver(provider, nil)

	_, err := resolver.Resolve(context.Background(), "Nonexistentplacexyz123")
	require.Error(t, err)
	assert.ErrorIs(t, err, geocoding.ErrUnresolvableLocation)

	var locErr *geocoding.LocationError
	require.True(t, errors.As(err, &locErr))
	assert.Equal(t, "Nonexistentplacexyz123", locErr.Input)
	assert.Contains(t, err.Error(), "Nonexistentplacexyz123")
}

func TestResolver_EmptyInput(t *testing.T) {
	provider := &mockProvider{places: []geocoding.Place{berlinPlace}}
	resolver := newTestResolver(provider, nil)

	_, err := resolver.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, geocoding.ErrUnresolvableLocation)
	assert.Equal(t, int32(0), provider.calls.Load())
}

func TestResolver_Offline(t *testing.T) {
	provider := &mockProvider{places: []geocoding.Place{berlinPlace}}
	resolver := geocoding.NewResolver(geocoding.ResolverConfig{
		Provider: provider,
		Offline:  true,
	})

	res, err := resolver.Resolve(context.Background(), "berlin")
	require.NoError(t, err)
	assert.Equal(t, geocoding.SourceGazetteer, res.Source)
	assert.Equal(t, geo.Coordinate{Lat: 52.52, Lon: 13.405}, res.Coordinate)
	assert.Equal(t, int32(0), provider.calls.Load())
}

func TestResolver_NilProviderUsesGazetteer(t *testing.T) {
	resolver := geocoding.NewResolver(geocoding.ResolverConfig{})

	res, err := resolver.Resolve(context.Background(), "32657")
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 52.0286, Lon: 8.8998}, res.Coordinate)
}

func TestResolver_CancelledContextFallsThrough(t *testing.T) {
	provider := &mockProvider{places: []geocoding.Place{berlinPlace}}
	resolver := geocoding.NewResolver(geocoding.ResolverConfig{
		Provider: provider,
		Limiter:  geocoding.NewRateLimiter(time.Hour),
	})

	// Spend the only token.
	_, err := resolver.Resolve(context.Background(), "somewhere")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := resolver.Resolve(ctx, "köln")
	require.NoError(t, err)
	assert.Equal(t, geocoding.SourceGazetteer, res.Source)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestResolver_CancelledContextWithoutMatchReturnsContextError(t *testing.T) {
	provider := &mockProvider{places: []geocoding.Place{berlinPlace}}
	resolver := geocoding.NewResolver(geocoding.ResolverConfig{
		Provider: provider,
		Limiter:  geocoding.NewRateLimiter(time.Hour),
	})

	_, err := resolver.Resolve(context.Background(), "somewhere")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = resolver.Resolve(ctx, "Nonexistentplacexyz123")
	require.ErrorIs(t, err, context.Canceled)

	var locErr *geocoding.LocationError
	assert.False(t, errors.As(err, &locErr))
}

func TestResolver_RateLimitsDispatches(t *testing.T) {
	const (
		interval = 40 * time.Millisecond
		n        = 4
	)
	provider := &mockProvider{places: []geocoding.Place{berlinPlace}}
	resolver := geocoding.NewResolver(geocoding.ResolverConfig{
		Provider: provider,
		Limiter:  geocoding.NewRateLimiter(interval),
	})

	start := time.Now()
	for _, q := range []string{"a place", "b place", "c place", "d place"} {
		_, err := resolver.Resolve(context.Background(), q)
		require.NoError(t, err)
	}

	times := provider.dispatchTimes()
	require.Len(t, times, n)
	assert.GreaterOrEqual(t, times[n-1].Sub(start), (n-1)*interval)
}

func TestResolver_SharesLimiterWithSuggester(t *testing.T) {
	const interval = 50 * time.Millisecond
	provider := &mockProvider{places: []geocoding.Place{berlinPlace}}
	limiter := geocoding.NewRateLimiter(interval)

	resolver := geocoding.NewResolver(geocoding.ResolverConfig{Provider: provider, Limiter: limiter})
	suggester := geocoding.NewSuggester(geocoding.SuggesterConfig{Provider: provider, Limiter: limiter})

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := resolver.Resolve(context.Background(), "berlin mitte")
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		suggester.Suggest(context.Background(), "berlin")
	}()
	wg.Wait()

	times := provider.dispatchTimes()
	require.Len(t, times, 2)
	latest := times[0]
	if times[1].After(latest) {
		latest = times[1]
	}
	assert.GreaterOrEqual(t, latest.Sub(start), interval)
}

func TestResolver_SelectSeedsCache(t *testing.T) {
	provider := &mockProvider{}
	resolver := newTestResolver(provider, nil)

	suggestion := geocoding.Suggestion{
		DisplayName: "Leopoldshöhe, Kreis Lippe, Deutschland",
		Coordinate:  geo.Coordinate{Lat: 52.0126, Lon: 8.6983},
		ProviderID:  "12345",
		PlaceKind:   "town",
	}

	sel := resolver.Select(suggestion)
	assert.Equal(t, geocoding.SourceSelection, sel.Source)
	assert.Equal(t, suggestion.Coordinate, sel.Coordinate)

	res, err := resolver.Resolve(context.Background(), "Leopoldshöhe, Kreis Lippe, Deutschland")
	require.NoError(t, err)
	assert.Equal(t, geocoding.SourceCache, res.Source)
	assert.Equal(t, suggestion.Coordinate, res.Coordinate)
	assert.Equal(t, int32(0), provider.calls.Load())
	assert.Equal(t, 1, resolver.CacheStats().Entries)
}
