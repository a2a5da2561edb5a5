package models

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/bikeroute/bikeroute/internal/planner"
	"github.com/bikeroute/bikeroute/internal/routing"
	"github.com/bikeroute/bikeroute/pkg/polyline"
)

// MediaTypeGeoJSON is the media type negotiated for map clients.
const MediaTypeGeoJSON = "application/geo+json"

// Zone is a distance zone on the wire.
type Zone struct {
	DistanceKm float64 `json:"distanceKm"`
	Enabled    bool    `json:"enabled"`
	Color      string  `json:"color,omitempty"`
}

// ZoneFrom converts a domain zone.
func ZoneFrom(z routing.DistanceZone) Zone {
	return Zone{DistanceKm: z.DistanceKm, Enabled: z.Enabled, Color: z.Color}
}

// ZonesFrom converts a list of domain zones.
func ZonesFrom(in []routing.DistanceZone) []Zone {
	out := make([]Zone, 0, len(in))
	for _, z := range in {
		out = append(out, ZoneFrom(z))
	}
	return out
}

// PlanOptions selects which route kinds to generate. Absent flags default to true.
type PlanOptions struct {
	Direct    *bool `json:"direct,omitempty"`
	Realistic *bool `json:"realistic,omitempty"`
}

// PlanRequest is the body of POST /v1/plans.
type PlanRequest struct {
	// Location is free text: a place name, a postal code or "lat, lon".
	Location string `json:"location,omitempty"`
	// Origin is a device position. It takes precedence over Location.
	Origin *Point `json:"origin,omitempty"`
	// Zones replaces the default zones when present.
	Zones []Zone `json:"zones,omitempty"`
	// CustomDistancesKm appends enabled zones colored from the custom palette.
	CustomDistancesKm []float64    `json:"customDistancesKm,omitempty"`
	Options           *PlanOptions `json:"options,omitempty"`
}

// Route is one generated route.
type Route struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Kind                string  `json:"kind"`
	RequestedDistanceKm float64 `json:"requestedDistanceKm"`
	DistanceKm          float64 `json:"distanceKm"`
	BearingDegrees      float64 `json:"bearingDegrees"`
	Start               Point   `json:"start"`
	End                 Point   `json:"end"`
	Points              []Point `json:"points"`
	// Polyline is the geometry in Google encoded polyline format, precision 5.
	Polyline        string  `json:"polyline"`
	EstimatedTime   string  `json:"estimatedTime"`
	ElevationMeters float64 `json:"elevationMeters"`
	Difficulty      string  `json:"difficulty"`
}

// RouteFrom converts a domain route.
func RouteFrom(r *routing.BikeRoute) Route {
	points := make([]Point, 0, len(r.Coordinates))
	for _, c := range r.Coordinates {
		points = append(points, PointFrom(c))
	}
	return Route{
		ID:                  r.ID,
		Name:                r.Name,
		Kind:                string(r.Kind),
		RequestedDistanceKm: r.RequestedDistanceKm,
		DistanceKm:          r.DistanceKm,
		BearingDegrees:      r.BearingDegrees,
		Start:               PointFrom(r.Origin()),
		End:                 PointFrom(r.Destination()),
		Points:              points,
		Polyline:            polyline.Encode(r.Coordinates),
		EstimatedTime:       r.EstimatedTime,
		ElevationMeters:     r.ElevationMeters,
		Difficulty:          string(r.Difficulty),
	}
}

// Plan is one generation batch.
type Plan struct {
	BatchID     string    `json:"batchId"`
	Origin      Location  `json:"origin"`
	Zones       []Zone    `json:"zones"`
	Routes      []Route   `json:"routes"`
	GeneratedAt Timestamp `json:"generatedAt"`
}

// PlanFrom converts a planner result, keeping only the given routes.
func PlanFrom(res *planner.Result, routes []routing.BikeRoute) Plan {
	out := make([]Route, 0, len(routes))
	for i := range routes {
		out = append(out, RouteFrom(&routes[i]))
	}
	return Plan{
		BatchID:     res.BatchID.String(),
		Origin:      originLocation(res),
		Zones:       ZonesFrom(res.Zones),
		Routes:      out,
		GeneratedAt: Timestamp(res.GeneratedAt),
	}
}

// PlanFeatureCollection renders a batch as GeoJSON: one Point feature for the
// origin followed by one LineString feature per route. Batch metadata is
// carried as foreign members of the collection.
func PlanFeatureCollection(res *planner.Result, routes []routing.BikeRoute) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{
		"batchId":     res.BatchID.String(),
		"generatedAt": Timestamp(res.GeneratedAt),
		"zones":       ZonesFrom(res.Zones),
	}

	origin := geojson.NewFeature(orbPoint(res.Origin.Lon, res.Origin.Lat))
	origin.ID = "origin"
	origin.Properties["role"] = "origin"
	origin.Properties["displayName"] = res.OriginName
	origin.Properties["source"] = string(res.Source)
	fc.Append(origin)

	for i := range routes {
		r := &routes[i]
		line := make(orb.LineString, 0, len(r.Coordinates))
		for _, c := range r.Coordinates {
			line = append(line, orbPoint(c.Lon, c.Lat))
		}

		f := geojson.NewFeature(line)
		f.ID = r.ID
		f.Properties["role"] = "route"
		f.Properties["name"] = r.Name
		f.Properties["kind"] = string(r.Kind)
		f.Properties["requestedDistanceKm"] = r.RequestedDistanceKm
		f.Properties["distanceKm"] = r.DistanceKm
		f.Properties["bearingDegrees"] = r.BearingDegrees
		f.Properties["estimatedTime"] = r.EstimatedTime
		f.Properties["elevationMeters"] = r.ElevationMeters
		f.Properties["difficulty"] = string(r.Difficulty)
		if color := zoneColor(res.Zones, r.RequestedDistanceKm); color != "" {
			f.Properties["stroke"] = color
		}
		fc.Append(f)
	}

	return fc
}

func originLocation(res *planner.Result) Location {
	return Location{
		Point:       PointFrom(res.Origin),
		DisplayName: res.OriginName,
		Source:      string(res.Source),
	}
}

func orbPoint(lon, lat float64) orb.Point {
	return orb.Point{lon, lat}
}

// zoneColor matches the zone that generated a route: the first enabled zone
// with that distance.
func zoneColor(zones []routing.DistanceZone, distanceKm float64) string {
	for _, z := range zones {
		if z.Enabled && z.DistanceKm == distanceKm {
			return z.Color
		}
	}
	return ""
}

// ZoneCatalog is the response of the zones metadata endpoint.
type ZoneCatalog struct {
	Defaults      []Zone    `json:"defaults"`
	Palette       []string  `json:"palette"`
	MaxDistanceKm float64   `json:"maxDistanceKm"`
	Bearings      []float64 `json:"bearings"`
}
