// Package polyline encodes route geometry with Google's polyline algorithm
// (precision 5), the compact form map clients accept for line overlays.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"

	"github.com/bikeroute/bikeroute/pkg/geo"
)

const precision = 1e5

// ErrTruncated indicates an encoded string that ends in the middle of a value
// or carries a latitude without its longitude.
var ErrTruncated = errors.New("polyline: truncated input")

// Encode encodes coordinates into a polyline string.
func Encode(coords []geo.Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(coords)*8)
	var prevLat, prevLon int64
	for _, c := range coords {
		lat := int64(math.Round(c.Lat * precision))
		lon := int64(math.Round(c.Lon * precision))

		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lon-prevLon)

		prevLat, prevLon = lat, lon
	}
	return string(buf)
}

// Decode decodes a polyline string back into coordinates.
func Decode(encoded string) ([]geo.Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	var (
		coords   []geo.Coordinate
		lat, lon int64
		pos      int
	)
	for pos < len(encoded) {
		dLat, next, err := readValue(encoded, pos)
		if err != nil {
			return nil, err
		}
		dLon, next, err := readValue(encoded, next)
		if err != nil {
			return nil, err
		}
		pos = next

		lat += dLat
		lon += dLon
		coords = append(coords, geo.Coordinate{
			Lat: float64(lat) / precision,
			Lon: float64(lon) / precision,
		})
	}
	return coords, nil
}

// Length returns the length of the line in kilometers.
func Length(coords []geo.Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += geo.Distance(coords[i-1], coords[i])
	}
	return total
}

func appendValue(buf []byte, v int64) []byte {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte(0x20|(u&0x1f))+63)
		u >>= 5
	}
	return append(buf, byte(u)+63)
}

func readValue(s string, pos int) (int64, int, error) {
	var (
		result uint64
		shift  uint
	)
	for {
		if pos >= len(s) {
			return 0, pos, ErrTruncated
		}
		b := uint64(s[pos]) - 63
		pos++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	v := int64(result >> 1)
	if result&1 != 0 {
		v = ^v
	}
	return v, pos, nil
}
