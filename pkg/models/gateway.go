package models

import "encoding/json"

// Gateway operation types accepted in the request envelope.
const (
	GatewayTypeAnalyze     = "analyze"
	GatewayTypeSummarize   = "summarize"
	GatewayTypeAlternative = "alternative"
	GatewayTypeChat        = "chat"
	GatewayTypePlaces      = "places"
)

// GatewayRequest is the envelope posted to the AI gateway. Data is decoded
// per operation type after dispatch.
type GatewayRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SummarizeRequest asks for a prose summary of an existing analysis.
type SummarizeRequest struct {
	Results     []AnalysisResultItem `json:"results"`
	Allergies   string               `json:"allergies"`
	Preferences string               `json:"preferences,omitempty"`
}

// AlternativeRequest asks for a substitute for one unsafe menu item.
type AlternativeRequest struct {
	Allergies      string   `json:"allergies"`
	Preferences    string   `json:"preferences,omitempty"`
	UnsafeItemName string   `json:"unsafeItemName"`
	MenuContext    string   `json:"menuContext,omitempty"`
	SafeItems      []string `json:"safeItems,omitempty"`
}

// ChatRequest continues a follow-up conversation. History is the full prior
// turn list including Message as its final element.
type ChatRequest struct {
	History     []ChatTurn `json:"history"`
	Message     string     `json:"message"`
	Allergies   string     `json:"allergies"`
	Preferences string     `json:"preferences,omitempty"`
}

// PlacesRequest looks up restaurants near a coordinate.
type PlacesRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
