// Package handler provides HTTP handlers for the bike route API.
package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/bikeroute/bikeroute/internal/api/models"
	"github.com/bikeroute/bikeroute/internal/api/response"
	"github.com/bikeroute/bikeroute/internal/geocoding"
	"github.com/bikeroute/bikeroute/internal/provider/resilience"
)

// CacheStatser exposes geocode cache counters.
type CacheStatser interface {
	CacheStats() geocoding.CacheStats
}

// GazetteerSizer reports how many fallback entries are loaded.
type GazetteerSizer interface {
	Size() (postal, places int)
}

// OpsConfig holds the dependencies of OpsHandler. Nil dependencies are
// omitted from the status report.
type OpsConfig struct {
	Version   string
	BuildTime string
	Registry  *resilience.Registry
	Cache     CacheStatser
	Gazetteer GazetteerSizer
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the
// gazetteer holds entries, since it is the last resolution tier.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	}

	if h.cfg.Gazetteer != nil {
		postal, places := h.cfg.Gazetteer.Size()
		health.Details = map[string]interface{}{
			"gazetteerPostalCodes": postal,
			"gazetteerPlaces":      places,
		}
		if postal+places == 0 {
			health.Status = models.HealthStatusFail
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
// An open provider circuit degrades the service rather than failing it,
// because resolution falls through to the gazetteer.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	if h.cfg.Cache != nil {
		stats := h.cfg.Cache.CacheStats()
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "geocode-cache",
			Status: models.HealthStatusOK,
			Metrics: map[string]interface{}{
				"entries": stats.Entries,
				"hits":    stats.Hits,
				"misses":  stats.Misses,
			},
		})
	}

	if h.cfg.Gazetteer != nil {
		postal, places := h.cfg.Gazetteer.Size()
		sub := models.SubsystemStatus{
			Name:   "gazetteer",
			Status: models.HealthStatusOK,
			Metrics: map[string]interface{}{
				"postalCodes": postal,
				"places":      places,
			},
		}
		if postal+places == 0 {
			detail := "no fallback entries loaded"
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			status.Status = models.HealthStatusFail
		}
		status.Subsystems = append(status.Subsystems, sub)
	}

	if h.cfg.Registry != nil {
		for _, ph := range h.cfg.Registry.GetAllHealth() {
			ps := providerStatus(ph)
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            ph.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        ph.CircuitState.String(),
		ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
		LastSuccessAt:       models.TimestampPtr(ph.LastSuccessAt),
		LastFailureAt:       models.TimestampPtr(ph.LastFailureAt),
	}

	switch ph.CircuitState {
	case gobreaker.StateOpen:
		ps.Status = models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		ps.Status = models.HealthStatusDegraded
	}

	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
