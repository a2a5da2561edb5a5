package geocoding_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bikeroute/bikeroute/internal/geocoding"
	"github.com/bikeroute/bikeroute/pkg/geo"
)

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	cache := geocoding.NewCache(time.Hour, clock.Now)

	cache.Put("lemgo", geocoding.CacheEntry{
		Coordinate:  geo.Coordinate{Lat: 52.0286, Lon: 8.8998},
		DisplayName: "Lemgo",
	})

	entry, ok := cache.Get("lemgo")
	require.True(t, ok)
	assert.Equal(t, "Lemgo", entry.DisplayName)
	assert.Equal(t, clock.Now(), entry.ResolvedAt)

	clock.Advance(59*time.Minute + 59*time.Second)
	_, ok = cache.Get("lemgo")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = cache.Get("lemgo")
	assert.False(t, ok, "entry must expire once exactly one hour has passed")

	assert.Equal(t, 1, cache.Len(), "expiry is lazy and keeps the entry")
}

func TestCache_LastWriteWins(t *testing.T) {
	cache := geocoding.NewCache(0, nil)

	cache.Put("berlin", geocoding.CacheEntry{Coordinate: geo.Coordinate{Lat: 1, Lon: 1}})
	cache.Put("berlin", geocoding.CacheEntry{Coordinate: geo.Coordinate{Lat: 52.52, Lon: 13.405}})

	entry, ok := cache.Get("berlin")
	require.True(t, ok)
	assert.Equal(t, geo.Coordinate{Lat: 52.52, Lon: 13.405}, entry.Coordinate)
}

func TestCache_Stats(t *testing.T) {
	cache := geocoding.NewCache(time.Hour, nil)
	cache.Put("a", geocoding.CacheEntry{})

	cache.Get("a")
	cache.Get("a")
	cache.Get("b")

	assert.Equal(t, geocoding.CacheStats{Entries: 1, Hits: 2, Misses: 1}, cache.Stats())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}
