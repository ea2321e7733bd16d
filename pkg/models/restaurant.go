package models

// Restaurant is a nearby restaurant sourced per-request from the places API.
// Never persisted.
type Restaurant struct {
	PlaceID     string   `json:"placeId"`
	Name        string   `json:"name"`
	Vicinity    string   `json:"vicinity"`
	Website     string   `json:"website,omitempty"`
	PhotoURL    string   `json:"photoUrl,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"reviewCount,omitempty"`
	OpenNow     bool     `json:"openNow"`
}
