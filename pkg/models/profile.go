package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a diner's durable account row.
// MaxAnalysesPerMonth nil means unlimited (Pro tier).
type Profile struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Username            string    `json:"username"`
	PasswordHash        string    `json:"-"`
	Allergies           string    `json:"allergies"`
	Preferences         string    `json:"preferences"`
	IsPro               bool      `json:"isPro"`
	MaxAnalysesPerMonth *int      `json:"maxAnalysesPerMonth"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Username    *string `json:"username,omitempty"`
	Allergies   *string `json:"allergies,omitempty"`
	Preferences *string `json:"preferences,omitempty"`
}
