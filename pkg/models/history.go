package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// History entry statuses.
const (
	HistoryStatusCompleted = "completed"
)

// HistoryEntry is a persisted analysis result plus the context it was
// produced under. Entries are created on successful analysis and deleted
// explicitly by their owner, never mutated.
type HistoryEntry struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"userId"`
	CreatedAt    time.Time       `json:"createdAt"`
	Status       string          `json:"status"`
	AnalysisType string          `json:"analysisType"`
	InputText    string          `json:"inputText"`
	Result       json.RawMessage `json:"-"`
	Allergies    string          `json:"allergies"`
	Preferences  string          `json:"preferences"`
}

// Items decodes the stored result blob, substituting a synthetic Data Error
// item when the blob fails the structural check.
func (e *HistoryEntry) Items() []AnalysisResultItem {
	return DecodeStoredResult(e.Result)
}
