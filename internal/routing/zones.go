package routing

import (
	"fmt"
	"sync"
)

// CustomZonePalette colors zones added after the defaults, indexed by the
// zone count at insertion time.
var CustomZonePalette = []string{"#8B5CF6", "#EC4899", "#F59E0B", "#06B6D4"}

// DefaultZones returns the initial zone configuration.
func DefaultZones() []DistanceZone {
	return []DistanceZone{
		{DistanceKm: 10, Enabled: true, Color: "#22C55E"},
		{DistanceKm: 25, Enabled: true, Color: "#3B82F6"},
		{DistanceKm: 50, Enabled: false, Color: "#EF4444"},
	}
}

// ZoneSet is an ordered, mutable list of distance zones.
type ZoneSet struct {
	mu    sync.RWMutex
	zones []DistanceZone
}

// NewZoneSet creates a set seeded with zones, or DefaultZones when none are given.
func NewZoneSet(zones ...DistanceZone) *ZoneSet {
	if len(zones) == 0 {
		zones = DefaultZones()
	}
	return &ZoneSet{zones: append([]DistanceZone(nil), zones...)}
}

// Add appends an enabled zone colored from CustomZonePalette.
func (s *ZoneSet) Add(distanceKm float64) (DistanceZone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z := DistanceZone{
		DistanceKm: distanceKm,
		Enabled:    true,
		Color:      CustomZonePalette[len(s.zones)%len(CustomZonePalette)],
	}
	if err := z.Validate(); err != nil {
		return DistanceZone{}, err
	}
	s.zones = append(s.zones, z)
	return z, nil
}

// Toggle flips the enabled flag of the zone at index i.
func (s *ZoneSet) Toggle(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.zones) {
		return fmt.Errorf("zone index %d out of range [0, %d)", i, len(s.zones))
	}
	s.zones[i].Enabled = !s.zones[i].Enabled
	return nil
}

// Remove deletes the zone at index i, keeping the order of the rest.
func (s *ZoneSet) Remove(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.zones) {
		return fmt.Errorf("zone index %d out of range [0, %d)", i, len(s.zones))
	}
	s.zones = append(s.zones[:i], s.zones[i+1:]...)
	return nil
}

// All returns a copy of every zone in order.
func (s *ZoneSet) All() []DistanceZone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]DistanceZone(nil), s.zones...)
}

// Enabled returns the enabled zones in order.
func (s *ZoneSet) Enabled() []DistanceZone {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DistanceZone, 0, len(s.zones))
	for _, z := range s.zones {
		if z.Enabled {
			out = append(out, z)
		}
	}
	return out
}
