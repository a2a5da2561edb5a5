package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bikeroute/bikeroute/internal/api/models"
	"github.com/bikeroute/bikeroute/internal/api/response"
	"github.com/bikeroute/bikeroute/internal/geocoding"
	"github.com/bikeroute/bikeroute/internal/planner"
	"github.com/bikeroute/bikeroute/internal/routing"
)

// Planner generates a batch of routes.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (*planner.Result, error)
}

// PlanHandler handles route planning.
type PlanHandler struct {
	planner Planner
	logger  zerolog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(p Planner, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{planner: p, logger: logger}
}

// CreatePlan handles POST /v1/plans.
//
// The batch is returned as JSON, or as a GeoJSON FeatureCollection when the
// client accepts application/geo+json. Query parameters kind and route narrow
// the returned routes; both may be repeated or comma separated.
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	kinds, err := parseKinds(r)
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "kind", Message: "must be direct or realistic", Code: "INVALID_ENUM"},
		})
		return
	}

	var input models.PlanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	req, fieldErrs := planRequest(input)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid plan request", fieldErrs)
		return
	}

	res, err := h.planner.Plan(r.Context(), req)
	if err != nil {
		h.writePlanError(w, r, err)
		return
	}

	routes := routing.FilterByKind(res.Routes, kinds...)
	if ids := listParam(r, "route"); len(ids) > 0 {
		routes = routing.SelectByID(routes, ids...)
	}

	w.Header().Set("Cache-Control", "no-store")
	if acceptsGeoJSON(r) {
		response.GeoJSON(w, r, http.StatusOK, models.PlanFeatureCollection(res, routes))
		return
	}
	response.JSON(w, r, http.StatusOK, models.PlanFrom(res, routes))
}

func (h *PlanHandler) writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	var locErr *geocoding.LocationError
	switch {
	case errors.Is(err, planner.ErrMissingOrigin):
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "location", Message: "required if origin is not provided", Code: "REQUIRED"},
		})
	case errors.Is(err, planner.ErrInvalidOrigin):
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "origin", Message: "latitude must be in [-90, 90] and longitude in [-180, 180]", Code: "OUT_OF_RANGE"},
		})
	case errors.Is(err, planner.ErrInvalidZone):
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "zones", Message: fmt.Sprintf("enabled zone distances must be in (0, %g] km", routing.MaxZoneDistanceKm), Code: "OUT_OF_RANGE"},
		})
	case errors.As(err, &locErr):
		response.UnresolvableLocation(w, r, locErr.Input)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(w, r, "request cancelled before the plan was generated")
	default:
		h.logger.Error().Err(err).Msg("plan failed")
		response.InternalError(w, r, "plan could not be generated")
	}
}

// planRequest converts the wire request. Custom distances are appended to the
// requested zones, or to the defaults when none were sent, and take their
// color from the custom palette.
func planRequest(in models.PlanRequest) (planner.Request, []models.FieldError) {
	req := planner.Request{
		Location: in.Location,
		Options:  routing.DefaultOptions(),
	}

	if in.Origin != nil {
		c := in.Origin.Coordinate()
		req.Origin = &c
	}

	if in.Options != nil {
		if in.Options.Direct != nil {
			req.Options.Direct = *in.Options.Direct
		}
		if in.Options.Realistic != nil {
			req.Options.Realistic = *in.Options.Realistic
		}
	}

	if in.Zones != nil {
		req.Zones = make([]routing.DistanceZone, 0, len(in.Zones))
		for _, z := range in.Zones {
			req.Zones = append(req.Zones, routing.DistanceZone{
				DistanceKm: z.DistanceKm,
				Enabled:    z.Enabled,
				Color:      z.Color,
			})
		}
	}

	if len(in.CustomDistancesKm) == 0 {
		return req, nil
	}

	base := req.Zones
	if base == nil {
		base = routing.DefaultZones()
	}
	set := routing.NewZoneSet(base...)

	var errs []models.FieldError
	for i, d := range in.CustomDistancesKm {
		if _, err := set.Add(d); err != nil {
			errs = append(errs, models.FieldError{
				Field:   fmt.Sprintf("customDistancesKm[%d]", i),
				Message: fmt.Sprintf("must be in (0, %g] km", routing.MaxZoneDistanceKm),
				Code:    "OUT_OF_RANGE",
			})
		}
	}
	req.Zones = set.All()

	return req, errs
}

func parseKinds(r *http.Request) ([]routing.Kind, error) {
	var kinds []routing.Kind
	for _, v := range listParam(r, "kind") {
		k, err := routing.ParseKind(strings.ToLower(v))
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// listParam collects a query parameter that may be repeated or comma separated.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func acceptsGeoJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == models.MediaTypeGeoJSON {
			return true
		}
	}
	return false
}
