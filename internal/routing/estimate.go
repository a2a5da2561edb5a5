package routing

import (
	"fmt"
	"math"
)

// Average riding speeds in km/h.
const (
	DirectSpeedKmh    = 25.0
	RealisticSpeedKmh = 18.0
)

// FormatTravelTime renders the time to ride distanceKm at speedKmh, as
// "45 min" below one hour and "2h 15m" otherwise.
func FormatTravelTime(distanceKm, speedKmh float64) string {
	hours := distanceKm / speedKmh
	if hours < 1 {
		return fmt.Sprintf("%d min", int(math.Round(hours*60)))
	}

	h := int(math.Floor(hours))
	m := int(math.Round((hours - float64(h)) * 60))
	if m == 60 {
		h++
		m = 0
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// DirectDifficulty classifies a direct route by distance alone.
func DirectDifficulty(distanceKm float64) Difficulty {
	switch {
	case distanceKm < 15:
		return DifficultyEasy
	case distanceKm < 35:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// RealisticDifficulty classifies a realistic route by distance and climb per km.
func RealisticDifficulty(distanceKm, elevationMeters float64) Difficulty {
	perKm := math.Inf(1)
	if distanceKm > 0 {
		perKm = elevationMeters / distanceKm
	}
	switch {
	case distanceKm < 20 && perKm < 10:
		return DifficultyEasy
	case distanceKm < 40 && perKm < 20:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}
