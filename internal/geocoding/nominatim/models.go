package nominatim

import "encoding/json"

// searchResult is one element of the /search?format=json response.
type searchResult struct {
	PlaceID     json.Number `json:"place_id"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	DisplayName string      `json:"display_name"`
	Class       string      `json:"class"`
	Type        string      `json:"type"`
	Importance  float64     `json:"importance"`
}

// errorResponse is returned by Nominatim for rejected queries.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
