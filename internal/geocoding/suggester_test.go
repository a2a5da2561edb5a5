package geocoding_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bikeroute/bikeroute/internal/geocoding"
	"github.com/bikeroute/bikeroute/pkg/geo"
)

func places(n int) []geocoding.Place {
	out := make([]geocoding.Place, n)
	for i := range out {
		out[i] = geocoding.Place{
			Coordinate:  geo.Coordinate{Lat: 52 + float64(i)/100, Lon: 8.5},
			DisplayName: "Place " + string(rune('A'+i)),
			ID:          string(rune('0' + i)),
			Kind:        "village",
		}
	}
	return out
}

func newTestSuggester(provider geocoding.Provider) *geocoding.Suggester {
	return geocoding.NewSuggester(geocoding.SuggesterConfig{
		Provider:     provider,
		Limiter:      geocoding.NewRateLimiter(time.Millisecond),
		CountryCodes: "de",
	})
}

func TestSuggester_Suggest(t *testing.T) {
	provider := &mockProvider{places: places(7)}
	suggester := newTestSuggester(provider)

	got := suggester.Suggest(context.Background(), " Biel ")
	require.Len(t, got, 5)

	assert.Equal(t, "Place A", got[0].DisplayName)
	assert.Equal(t, "0", got[0].ProviderID)
	assert.Equal(t, "village", got[0].PlaceKind)
	assert.Equal(t, geo.Coordinate{Lat: 52, Lon: 8.5}, got[0].Coordinate)

	req := provider.lastRequest()
	assert.Equal(t, "Biel", req.Query)
	assert.Equal(t, 5, req.Limit)
	assert.Equal(t, "de", req.CountryCodes)
}

func TestSuggester_ShortInputSkipsProvider(t *testing.T) {
	provider := &mockProvider{places: places(2)}
	suggester := newTestSuggester(provider)

	for _, input := range []string{"", "a", "ab", "  ab  ", "äö"} {
		got := suggester.Suggest(context.Background(), input)
		assert.NotNil(t, got)
		assert.Empty(t, got, input)
	}
	assert.Equal(t, int32(0), provider.calls.Load())

	assert.Len(t, suggester.Suggest(context.Background(), "äöü"), 2, "length counts characters, not bytes")
}

func TestSuggester_ProviderErrorDegradesToEmpty(t *testing.T) {
	provider := &mockProvider{err: errors.New("boom")}
	suggester := newTestSuggester(provider)

	got := suggester.Suggest(context.Background(), "Bielefeld")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestSuggester_NilProvider(t *testing.T) {
	suggester := geocoding.NewSuggester(geocoding.SuggesterConfig{})
	assert.Empty(t, suggester.Suggest(context.Background(), "Bielefeld"))
}

func TestSuggester_CustomLimits(t *testing.T) {
	provider := &mockProvider{places: places(7)}
	suggester := geocoding.NewSuggester(geocoding.SuggesterConfig{
		Provider: provider,
		Limiter:  geocoding.NewRateLimiter(time.Millisecond),
		MinChars: 5,
		Limit:    2,
	})

	assert.False(t, suggester.Accepts("Lage"))
	assert.True(t, suggester.Accepts("Lemgo"))
	assert.Len(t, suggester.Suggest(context.Background(), "Lemgo"), 2)
}
