// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"renoquote_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Estimates Domain Events
// =============================================================================

// EstimateCreated is published when a price estimate has been persisted.
// It carries no contact details; the digest is already anonymized.
type EstimateCreated struct {
	BaseEvent
	EstimateID    uuid.UUID `json:"estimateId"`
	Category      string    `json:"category"`
	ServiceType   string    `json:"serviceType"`
	Province      string    `json:"province"`
	LowCents      int64     `json:"lowCents"`
	HighCents     int64     `json:"highCents"`
	Degraded      bool      `json:"degraded"`
	ContactDigest string    `json:"contactDigest,omitempty"`
}

func (e EstimateCreated) EventName() string { return "estimates.estimate.created" }

// =============================================================================
// Analysis Domain Events
// =============================================================================

// PhotoAnalysisCompleted is published when a photo set has been assessed
// and the cost adjustment composed.
type PhotoAnalysisCompleted struct {
	BaseEvent
	AnalysisID uuid.UUID `json:"analysisId"`
	PhotoCount int       `json:"photoCount"`
	Adjustment float64   `json:"adjustment"`
	Confidence int       `json:"confidence"`
	Degraded   bool      `json:"degraded"`
}

func (e PhotoAnalysisCompleted) EventName() string { return "analysis.photos.completed" }

// PhotoAnalysisFailed is published when the vision model could not be
// reached or its reply was unusable and the neutral fallback was served.
type PhotoAnalysisFailed struct {
	BaseEvent
	PhotoCount int    `json:"photoCount"`
	Reason     string `json:"reason"`
}

func (e PhotoAnalysisFailed) EventName() string { return "analysis.photos.failed" }

// =============================================================================
// Contractors Domain Events
// =============================================================================

// ContractorSearchPerformed is published after each contractor search.
type ContractorSearchPerformed struct {
	BaseEvent
	Trade           string `json:"trade"`
	Location        string `json:"location"`
	CandidateCount  int    `json:"candidateCount"`
	ResultCount     int    `json:"resultCount"`
	TierUsed        string `json:"tierUsed"`
	QualityVerified bool   `json:"qualityVerified"`
	CacheHit        bool   `json:"cacheHit"`
}

func (e ContractorSearchPerformed) EventName() string { return "contractors.search.performed" }
