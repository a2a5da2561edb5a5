package handler

import (
	"net/http"

	"github.com/bikeroute/bikeroute/internal/api/models"
	"github.com/bikeroute/bikeroute/internal/api/response"
	"github.com/bikeroute/bikeroute/internal/routing"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	bearings []float64
}

// NewMetadataHandler creates a new MetadataHandler. Bearings are the compass
// directions routes are generated along.
func NewMetadataHandler(bearings []float64) *MetadataHandler {
	return &MetadataHandler{bearings: bearings}
}

// ListZones handles GET /v1/metadata/zones.
func (h *MetadataHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	palette := make([]string, len(routing.CustomZonePalette))
	copy(palette, routing.CustomZonePalette)

	bearings := h.bearings
	if bearings == nil {
		bearings = []float64{}
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, models.ZoneCatalog{
		Defaults:      models.ZonesFrom(routing.DefaultZones()),
		Palette:       palette,
		MaxDistanceKm: routing.MaxZoneDistanceKm,
		Bearings:      bearings,
	})
}
