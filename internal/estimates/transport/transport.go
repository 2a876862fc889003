package transport

import (
	"time"

	"github.com/google/uuid"
)

// ContactDetails are hashed into a digest before storage; the raw
// values never reach the database.
type ContactDetails struct {
	Email string `json:"email" validate:"omitempty,email,max=120"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

type CreateEstimateRequest struct {
	Category    string          `json:"category" validate:"required,min=2,max=60"`
	ServiceType string          `json:"serviceType" validate:"omitempty,max=80"`
	Urgency     string          `json:"urgency" validate:"omitempty,oneof=standard same_day emergency"`
	Province    string          `json:"province" validate:"required,min=2,max=40"`
	City        *string         `json:"city,omitempty" validate:"omitempty,max=80"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	AnalysisID  *uuid.UUID      `json:"analysisId,omitempty"`
	Contact     *ContactDetails `json:"contact,omitempty"`
}

type EstimateResponse struct {
	ID          uuid.UUID `json:"id"`
	Category    string    `json:"category"`
	ServiceType string    `json:"serviceType,omitempty"`
	Urgency     string    `json:"urgency"`
	Province    string    `json:"province"`
	City        *string   `json:"city,omitempty"`
	LowCents    int64     `json:"lowCents"`
	HighCents   int64     `json:"highCents"`
	Currency    string    `json:"currency"`
	Duration    string    `json:"duration,omitempty"`
	Included    []string  `json:"included,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Adjustment  float64   `json:"adjustment"`
	Confidence  int       `json:"confidence"`
	Degraded    bool      `json:"degraded"`
	ShareURL    string    `json:"shareUrl,omitempty"`
	ShareToken  string    `json:"shareToken,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SharedEstimateResponse is the read-only view behind a share link. It
// omits share tokens so a forwarded link cannot mint new ones.
type SharedEstimateResponse struct {
	Category    string    `json:"category"`
	ServiceType string    `json:"serviceType,omitempty"`
	Urgency     string    `json:"urgency"`
	Province    string    `json:"province"`
	LowCents    int64     `json:"lowCents"`
	HighCents   int64     `json:"highCents"`
	Currency    string    `json:"currency"`
	Duration    string    `json:"duration,omitempty"`
	Included    []string  `json:"included,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Confidence  int       `json:"confidence"`
	Degraded    bool      `json:"degraded"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
