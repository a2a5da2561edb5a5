package models

import (
	"github.com/bikeroute/bikeroute/internal/geocoding"
)

// Location is a resolved place.
type Location struct {
	Point
	DisplayName string `json:"displayName"`
	Source      string `json:"source"`
}

// LocationFrom converts a resolver result.
func LocationFrom(r geocoding.Resolution) Location {
	return Location{
		Point:       PointFrom(r.Coordinate),
		DisplayName: r.DisplayName,
		Source:      string(r.Source),
	}
}

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	Point
	DisplayName string `json:"displayName"`
	ProviderID  string `json:"providerId,omitempty"`
	PlaceKind   string `json:"placeKind,omitempty"`
}

// SuggestionList is the response of the suggestions endpoint.
type SuggestionList struct {
	Query string       `json:"query"`
	Items []Suggestion `json:"items"`
}

// SuggestionsFrom converts suggester output, always returning a non-nil slice.
func SuggestionsFrom(in []geocoding.Suggestion) []Suggestion {
	out := make([]Suggestion, 0, len(in))
	for _, s := range in {
		out = append(out, Suggestion{
			Point:       PointFrom(s.Coordinate),
			DisplayName: s.DisplayName,
			ProviderID:  s.ProviderID,
			PlaceKind:   s.PlaceKind,
		})
	}
	return out
}

// SelectionRequest records the suggestion a user picked.
type SelectionRequest struct {
	DisplayName string `json:"displayName"`
	Point       *Point `json:"point"`
	ProviderID  string `json:"providerId,omitempty"`
	PlaceKind   string `json:"placeKind,omitempty"`
}

// Validate reports missing or malformed fields.
func (r SelectionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.DisplayName == "" {
		errs = append(errs, FieldError{Field: "displayName", Message: "required", Code: "REQUIRED"})
	}
	if r.Point == nil {
		errs = append(errs, FieldError{Field: "point", Message: "required", Code: "REQUIRED"})
	} else if err := r.Point.Coordinate().Validate(); err != nil {
		errs = append(errs, FieldError{Field: "point", Message: err.Error(), Code: "OUT_OF_RANGE"})
	}
	return errs
}

// Suggestion converts the request to the domain type.
func (r SelectionRequest) Suggestion() geocoding.Suggestion {
	return geocoding.Suggestion{
		DisplayName: r.DisplayName,
		Coordinate:  r.Point.Coordinate(),
		ProviderID:  r.ProviderID,
		PlaceKind:   r.PlaceKind,
	}
}
