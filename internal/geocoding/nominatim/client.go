// Package nominatim implements geocoding.Provider over the OpenStreetMap
// Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/bikeroute/bikeroute/internal/geocoding"
	"github.com/bikeroute/bikeroute/internal/provider/resilience"
	"github.com/bikeroute/bikeroute/pkg/geo"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the application as the usage policy requires.
	DefaultUserAgent = "BikeRoutePlanner/1.0"

	maxResponseBytes = 1 << 20
)

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public instance).
	BaseURL string

	// UserAgent is sent with every request (optional, defaults to DefaultUserAgent).
	UserAgent string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with retries disabled.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim search client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(DefaultHTTPConfig(nil))
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// DefaultHTTPConfig returns a resilient client configuration that sends each
// request exactly once, so every dispatch passes through the caller's limiter.
func DefaultHTTPConfig(registry *resilience.Registry) resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(ProviderName)
	cfg.DisableRetries = true
	cfg.Registry = registry
	return cfg
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Search runs a free-text query.
func (c *Client) Search(ctx context.Context, req geocoding.SearchRequest) ([]geocoding.Place, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 1
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", req.Query)
	q.Set("limit", strconv.Itoa(limit))
	if req.CountryCodes != "" {
		q.Set("countrycodes", req.CountryCodes)
	}
	q.Set("addressdetails", "1")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("query", req.Query).
		Int("limit", limit).
		Msg("searching Nominatim")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		code := "REQUEST_FAILED"
		if errors.Is(err, resilience.ErrCircuitOpen) {
			code = "CIRCUIT_OPEN"
		}
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     code,
			Message:  "failed to reach geocoding provider",
			Err:      errors.Join(geocoding.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "READ_FAILED",
			Message:  "failed to read geocoding response",
			Err:      errors.Join(geocoding.ErrProviderUnavailable, err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "DECODE_FAILED",
			Message:  "could not decode search results",
			Err:      errors.Join(geocoding.ErrBadResponse, err),
		}
	}

	places := make([]geocoding.Place, 0, len(results))
	for i := range results {
		place, err := toPlace(&results[i])
		if err != nil {
			return nil, &geocoding.Error{
				Provider: ProviderName,
				Code:     "BAD_COORDINATE",
				Message:  fmt.Sprintf("result %d has an invalid coordinate", i),
				Err:      errors.Join(geocoding.ErrBadResponse, err),
			}
		}
		places = append(places, place)
	}

	c.logger.Debug().
		Int("result_count", len(places)).
		Msg("received Nominatim results")

	return places, nil
}

// handleErrorResponse maps Nominatim error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var nErr errorResponse
	message := fmt.Sprintf("geocoding provider returned status %d", statusCode)
	if err := json.Unmarshal(body, &nErr); err == nil && nErr.Error.Message != "" {
		message = nErr.Error.Message
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "geocoding rate limit exceeded",
			Err:      geocoding.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusForbidden:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "access denied, check the User-Agent against the usage policy",
			Err:      geocoding.ErrProviderUnavailable,
		}
	case statusCode >= http.StatusInternalServerError:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "geocoding provider is temporarily unavailable",
			Err:      geocoding.ErrProviderUnavailable,
		}
	default:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  message,
			Err:      geocoding.ErrProviderUnavailable,
		}
	}
}

func toPlace(r *searchResult) (geocoding.Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return geocoding.Place{}, fmt.Errorf("lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return geocoding.Place{}, fmt.Errorf("lon %q: %w", r.Lon, err)
	}

	c := geo.Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return geocoding.Place{}, err
	}

	return geocoding.Place{
		Coordinate:  c,
		DisplayName: r.DisplayName,
		ID:          r.PlaceID.String(),
		Kind:        r.Type,
		Importance:  r.Importance,
	}, nil
}
