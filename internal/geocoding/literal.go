package geocoding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bikeroute/bikeroute/pkg/geo"
)

var coordinateLiteral = regexp.MustCompile(`^([+-]?\d+(?:\.\d*)?)\s*,\s*([+-]?\d+(?:\.\d*)?)$`)

// ParseCoordinateLiteral parses "lat, lon" text such as "52.52, 13.405".
// Malformed or out-of-range input returns ErrInvalidCoordinateLiteral.
func ParseCoordinateLiteral(text string) (geo.Coordinate, error) {
	m := coordinateLiteral.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return geo.Coordinate{}, ErrInvalidCoordinateLiteral
	}

	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %w", ErrInvalidCoordinateLiteral, err)
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %w", ErrInvalidCoordinateLiteral, err)
	}

	c := geo.Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %w", ErrInvalidCoordinateLiteral, err)
	}
	return c, nil
}

// Normalize returns the cache and gazetteer key for user text.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
