package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEstimateNotFound = errors.New("estimate not found")

// Estimate is the database model for a persisted price estimate. Contact
// details are never stored in the clear; only a salted digest survives
// for dedupe and conversion matching.
type Estimate struct {
	ID                uuid.UUID  `json:"id"`
	Category          string     `json:"category"`
	ServiceType       string     `json:"serviceType"`
	Urgency           string     `json:"urgency"`
	Province          string     `json:"province"`
	City              *string    `json:"city,omitempty"`
	Description       *string    `json:"description,omitempty"`
	BaseLowCents      int64      `json:"baseLowCents"`
	BaseHighCents     int64      `json:"baseHighCents"`
	LowCents          int64      `json:"lowCents"`
	HighCents         int64      `json:"highCents"`
	LocationFactor    float64    `json:"locationFactor"`
	UrgencyMultiplier float64    `json:"urgencyMultiplier"`
	Adjustment        float64    `json:"adjustment"`
	Confidence        int        `json:"confidence"`
	Degraded          bool       `json:"degraded"`
	AnalysisID        *uuid.UUID `json:"analysisId,omitempty"`
	ContactDigest     *string    `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	ExpiresAt         time.Time  `json:"expiresAt"`
}

// CreateEstimateParams contains parameters for persisting an estimate.
type CreateEstimateParams struct {
	Category          string
	ServiceType       string
	Urgency           string
	Province          string
	City              *string
	Description       *string
	BaseLowCents      int64
	BaseHighCents     int64
	LowCents          int64
	HighCents         int64
	LocationFactor    float64
	UrgencyMultiplier float64
	Adjustment        float64
	Confidence        int
	Degraded          bool
	AnalysisID        *uuid.UUID
	ContactDigest     *string
	ExpiresAt         time.Time
}

// Repository provides database operations for estimates.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new estimates repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const estimateColumns = `id, category, service_type, urgency, province, city, description,
	base_low_cents, base_high_cents, low_cents, high_cents,
	location_factor, urgency_multiplier, adjustment, confidence, degraded,
	analysis_id, contact_digest, created_at, expires_at`

// Create inserts an estimate and returns the stored row.
func (r *Repository) Create(ctx context.Context, params CreateEstimateParams) (Estimate, error) {
	var est Estimate
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rq_estimates (
			category, service_type, urgency, province, city, description,
			base_low_cents, base_high_cents, low_cents, high_cents,
			location_factor, urgency_multiplier, adjustment, confidence, degraded,
			analysis_id, contact_digest, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+estimateColumns,
		params.Category, params.ServiceType, params.Urgency, params.Province, params.City, params.Description,
		params.BaseLowCents, params.BaseHighCents, params.LowCents, params.HighCents,
		params.LocationFactor, params.UrgencyMultiplier, params.Adjustment, params.Confidence, params.Degraded,
		params.AnalysisID, params.ContactDigest, params.ExpiresAt,
	).Scan(estimateFields(&est)...)
	if err != nil {
		return Estimate{}, fmt.Errorf("failed to insert estimate: %w", err)
	}

	return est, nil
}

// GetByID retrieves an estimate by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Estimate, error) {
	var est Estimate
	err := r.pool.QueryRow(ctx, `
		SELECT `+estimateColumns+`
		FROM rq_estimates
		WHERE id = $1
	`, id).Scan(estimateFields(&est)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Estimate{}, ErrEstimateNotFound
	}
	if err != nil {
		return Estimate{}, fmt.Errorf("failed to get estimate: %w", err)
	}

	return est, nil
}

// ListExpired returns estimates whose retention window has passed, oldest
// first, for the purge worker.
func (r *Repository) ListExpired(ctx context.Context, before time.Time, limit int) ([]Estimate, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+estimateColumns+`
		FROM rq_estimates
		WHERE expires_at <= $1
		ORDER BY expires_at ASC
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired estimates: %w", err)
	}
	defer rows.Close()

	return scanEstimates(rows)
}

// ListCreatedSince returns estimates created at or after the given time,
// newest first, for the conversion export.
func (r *Repository) ListCreatedSince(ctx context.Context, since time.Time, limit int) ([]Estimate, error) {
	if limit <= 0 {
		limit = 1000
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+estimateColumns+`
		FROM rq_estimates
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates for export: %w", err)
	}
	defer rows.Close()

	return scanEstimates(rows)
}

// HasEstimateForAnalysis reports whether any estimate references the
// given photo analysis. The orphan cleanup uses this to leave claimed
// analyses alone.
func (r *Repository) HasEstimateForAnalysis(ctx context.Context, analysisID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM rq_estimates WHERE analysis_id = $1)
	`, analysisID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check analysis reference: %w", err)
	}
	return exists, nil
}

// Delete removes an estimate row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rq_estimates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete estimate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEstimateNotFound
	}
	return nil
}

func estimateFields(est *Estimate) []any {
	return []any{
		&est.ID, &est.Category, &est.ServiceType, &est.Urgency, &est.Province, &est.City, &est.Description,
		&est.BaseLowCents, &est.BaseHighCents, &est.LowCents, &est.HighCents,
		&est.LocationFactor, &est.UrgencyMultiplier, &est.Adjustment, &est.Confidence, &est.Degraded,
		&est.AnalysisID, &est.ContactDigest, &est.CreatedAt, &est.ExpiresAt,
	}
}

func scanEstimates(rows pgx.Rows) ([]Estimate, error) {
	items := make([]Estimate, 0)
	for rows.Next() {
		var est Estimate
		if err := rows.Scan(estimateFields(&est)...); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		items = append(items, est)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to iterate estimates: %w", rows.Err())
	}
	return items, nil
}
