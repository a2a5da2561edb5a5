package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bikeroute/bikeroute/internal/api/models"
	"github.com/bikeroute/bikeroute/internal/api/response"
	"github.com/bikeroute/bikeroute/internal/geocoding"
)

const maxBodyBytes = 64 << 10

// LocationResolver resolves free text and records chosen suggestions.
type LocationResolver interface {
	Resolve(ctx context.Context, text string) (*geocoding.Resolution, error)
	Select(s geocoding.Suggestion) geocoding.Resolution
}

// SuggestionSource returns debounced autocomplete results per session.
type SuggestionSource interface {
	Submit(ctx context.Context, session, text string) ([]geocoding.Suggestion, error)
}

// GeocodeHandler handles location resolution and autocomplete.
type GeocodeHandler struct {
	resolver    LocationResolver
	suggestions SuggestionSource
	logger      zerolog.Logger
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(resolver LocationResolver, suggestions SuggestionSource, logger zerolog.Logger) *GeocodeHandler {
	return &GeocodeHandler{
		resolver:    resolver,
		suggestions: suggestions,
		logger:      logger,
	}
}

// Resolve handles GET /v1/geocode?q= - resolve text to a coordinate.
func (h *GeocodeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.BadRequest(w, r, "query parameter q is required", []models.FieldError{
			{Field: "q", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	res, err := h.resolver.Resolve(r.Context(), q)
	if err != nil {
		h.writeResolveError(w, r, q, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.LocationFrom(*res))
}

// Suggestions handles GET /v1/geocode/suggestions?q=&session=. Requests are
// debounced per session; a request overtaken by a newer one for the same
// session answers 204 No Content.
func (h *GeocodeHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	session := r.URL.Query().Get("session")
	if session == "" {
		session = clientKey(r)
	}

	items, err := h.suggestions.Submit(r.Context(), session, q)
	switch {
	case errors.Is(err, geocoding.ErrSuperseded):
		response.NoContent(w, r)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(w, r, "request cancelled before suggestions were ready")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("query", q).Msg("suggestions failed")
		response.InternalError(w, r, "suggestions could not be fetched")
		return
	}

	response.JSON(w, r, http.StatusOK, models.SuggestionList{
		Query: strings.TrimSpace(q),
		Items: models.SuggestionsFrom(items),
	})
}

// Select handles POST /v1/geocode/selections - remember a chosen suggestion
// so that resolving its display name later is a cache hit.
func (h *GeocodeHandler) Select(w http.ResponseWriter, r *http.Request) {
	var input models.SelectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "invalid selection", errs)
		return
	}

	res := h.resolver.Select(input.Suggestion())
	response.JSON(w, r, http.StatusOK, models.LocationFrom(res))
}

func (h *GeocodeHandler) writeResolveError(w http.ResponseWriter, r *http.Request, q string, err error) {
	var locErr *geocoding.LocationError
	switch {
	case errors.As(err, &locErr):
		response.UnresolvableLocation(w, r, locErr.Input)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(w, r, "request cancelled before the location was resolved")
	default:
		h.logger.Error().Err(err).Str("query", q).Msg("resolve failed")
		response.InternalError(w, r, "location could not be resolved")
	}
}

// clientKey keys anonymous debounce sessions by client address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
