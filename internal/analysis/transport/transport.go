package transport

import (
	"time"

	"github.com/google/uuid"
)

// PhotoUpload is one photo read from the multipart form.
type PhotoUpload struct {
	Filename    string
	ContentType string
	SizeBytes   int64
	Data        []byte
}

// AnalyzePhotosRequest carries the photo set plus the optional context
// the consumer typed into the funnel.
type AnalyzePhotosRequest struct {
	ServiceType string        `form:"serviceType" validate:"omitempty,max=80"`
	Description string        `form:"description" validate:"omitempty,max=2000"`
	Photos      []PhotoUpload `validate:"-"`
}

type PhotoResponse struct {
	Filename    string     `json:"filename"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	URL         string     `json:"url,omitempty"`
	CapturedAt  *time.Time `json:"capturedAt,omitempty"`
	HasLocation bool       `json:"hasLocation"`
}

type AnalysisResponse struct {
	ID              uuid.UUID          `json:"id"`
	ServiceType     string             `json:"serviceType,omitempty"`
	Summary         string             `json:"summary,omitempty"`
	Observations    []string           `json:"observations,omitempty"`
	ConfidenceLevel string             `json:"confidenceLevel,omitempty"`
	Factors         map[string]float64 `json:"factors,omitempty"`
	Adjustment      float64            `json:"adjustment"`
	Confidence      int                `json:"confidence"`
	Degraded        bool               `json:"degraded"`
	Photos          []PhotoResponse    `json:"photos"`
	CreatedAt       time.Time          `json:"createdAt"`
}
