package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bikeroute/bikeroute/internal/provider/resilience"
)

func TestRegistry_RegisterOnClientCreation(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("nominatim")
	cfg.Registry = registry

	_ = resilience.NewClient(cfg)

	health := registry.GetHealth("nominatim")
	require.NotNil(t, health)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.False(t, health.IsDegraded())
	assert.Nil(t, health.LastSuccessAt)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()

	assert.Nil(t, registry.GetHealth("missing"))
	registry.RecordSuccess("missing")
	registry.RecordFailure("missing", errors.New("boom"))
	assert.Empty(t, registry.GetAllHealth())
}

func TestRegistry_RecordFailureKeepsError(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("nominatim")
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	registry.RecordFailure("nominatim", errors.New("connection refused"))

	health := registry.GetHealth("nominatim")
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "connection refused", health.LastError)
}

func TestRegistry_GetAllHealthSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"photon", "nominatim", "gazetteer-sync"} {
		cfg := resilience.DefaultClientConfig(name)
		cfg.Registry = registry
		_ = resilience.NewClient(cfg)
	}

	all := registry.GetAllHealth()
	require.Len(t, all, 3)
	assert.Equal(t, "gazetteer-sync", all[0].Name)
	assert.Equal(t, "nominatim", all[1].Name)
	assert.Equal(t, "photon", all[2].Name)
}
