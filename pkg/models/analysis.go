package models

import (
	"encoding/json"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
)

// SafetyLevel classifies a menu item relative to the diner's allergy and
// preference profile.
type SafetyLevel string

const (
	SafetySafe    SafetyLevel = "safe"
	SafetyCaution SafetyLevel = "caution"
	SafetyUnsafe  SafetyLevel = "unsafe"
)

// IsValid reports whether the level is one of the three known values.
func (l SafetyLevel) IsValid() bool {
	switch l {
	case SafetySafe, SafetyCaution, SafetyUnsafe:
		return true
	}
	return false
}

// AnalysisResultItem is one classified menu item as produced by the model.
type AnalysisResultItem struct {
	ItemName            string      `json:"itemName"`
	SafetyLevel         SafetyLevel `json:"safetyLevel"`
	Reasoning           string      `json:"reasoning"`
	IdentifiedAllergens []string    `json:"identifiedAllergens"`
}

// MenuSourceKind identifies which menu input an analysis request carries.
type MenuSourceKind string

const (
	MenuSourceURL   MenuSourceKind = "url"
	MenuSourceImage MenuSourceKind = "image"
	MenuSourceText  MenuSourceKind = "text"
)

// AnalysisRequest carries a diner's profile and exactly one menu source.
// When more than one source is supplied, URL wins over image over text.
type AnalysisRequest struct {
	Allergies   string `json:"allergies"`
	Preferences string `json:"preferences,omitempty"`

	MenuText  string `json:"menuText,omitempty"`
	ImageData []byte `json:"imageData,omitempty"`
	ImageMIME string `json:"imageMimeType,omitempty"`
	MenuURL   string `json:"menuUrl,omitempty"`
}

// Source resolves the effective menu source. Returns ErrNoMenuSource when
// every source is empty.
func (r *AnalysisRequest) Source() (MenuSourceKind, error) {
	switch {
	case r.MenuURL != "":
		return MenuSourceURL, nil
	case len(r.ImageData) > 0:
		return MenuSourceImage, nil
	case r.MenuText != "":
		return MenuSourceText, nil
	}
	return "", apperrors.ErrNoMenuSource
}

// DataErrorItem is the synthetic item substituted for a persisted analysis
// result that fails the structural check. The UI always has something safe
// to render; decoding never fails.
func DataErrorItem() AnalysisResultItem {
	return AnalysisResultItem{
		ItemName:            "Data Error",
		SafetyLevel:         SafetyUnsafe,
		Reasoning:           "The stored analysis result could not be read. Re-run the analysis.",
		IdentifiedAllergens: []string{},
	}
}

// DecodeStoredResult decodes a persisted analysis result blob. A valid blob
// decodes to the same ordered item list that was stored. Anything malformed
// (bad JSON, wrong shape, unknown safety level) yields exactly one synthetic
// Data Error item.
func DecodeStoredResult(raw []byte) []AnalysisResultItem {
	if len(raw) == 0 {
		return []AnalysisResultItem{DataErrorItem()}
	}

	var items []AnalysisResultItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return []AnalysisResultItem{DataErrorItem()}
	}

	for _, item := range items {
		if item.ItemName == "" || !item.SafetyLevel.IsValid() {
			return []AnalysisResultItem{DataErrorItem()}
		}
	}

	return items
}
