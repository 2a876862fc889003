package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"renoquote_backend/internal/analysis/exifmeta"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAnalysisNotFound = errors.New("photo analysis not found")

// StoredPhoto records one uploaded photo of an analysis, including the
// EXIF metadata intake kept. GPS coordinates are never stored; only the
// flag that they were present.
type StoredPhoto struct {
	FileKey     string            `json:"fileKey"`
	Filename    string            `json:"filename"`
	ContentType string            `json:"contentType"`
	SizeBytes   int64             `json:"sizeBytes"`
	Meta        exifmeta.Metadata `json:"meta"`
}

// PhotoAnalysis represents one vision assessment of a photo set.
type PhotoAnalysis struct {
	ID              uuid.UUID          `json:"id"`
	ServiceType     string             `json:"serviceType"`
	Summary         string             `json:"summary"`
	Observations    []string           `json:"observations"`
	ConfidenceLevel string             `json:"confidenceLevel"`
	Factors         map[string]float64 `json:"factors"`
	Adjustment      float64            `json:"adjustment"`
	Confidence      int                `json:"confidence"`
	Degraded        bool               `json:"degraded"`
	ModelName       string             `json:"modelName"`
	Photos          []StoredPhoto      `json:"photos"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// CreateAnalysisParams contains parameters for persisting an analysis.
type CreateAnalysisParams struct {
	ServiceType     string
	Summary         string
	Observations    []string
	ConfidenceLevel string
	Factors         map[string]float64
	Adjustment      float64
	Confidence      int
	Degraded        bool
	ModelName       string
	Photos          []StoredPhoto
}

// Repository provides database operations for photo analyses.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new analysis repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a photo analysis record.
func (r *Repository) Create(ctx context.Context, params CreateAnalysisParams) (PhotoAnalysis, error) {
	observationsJSON, _ := json.Marshal(params.Observations)
	factorsJSON, _ := json.Marshal(params.Factors)
	photosJSON, _ := json.Marshal(params.Photos)

	var pa PhotoAnalysis
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rq_photo_analyses
			(service_type, summary, observations, confidence_level, factors,
			 adjustment, confidence, degraded, model_name, photos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, service_type, summary, observations, confidence_level, factors,
			adjustment, confidence, degraded, model_name, photos, created_at
	`, params.ServiceType, params.Summary, observationsJSON, params.ConfidenceLevel, factorsJSON,
		params.Adjustment, params.Confidence, params.Degraded, params.ModelName, photosJSON,
	).Scan(
		&pa.ID, &pa.ServiceType, &pa.Summary, &observationsJSON, &pa.ConfidenceLevel, &factorsJSON,
		&pa.Adjustment, &pa.Confidence, &pa.Degraded, &pa.ModelName, &photosJSON, &pa.CreatedAt,
	)
	if err != nil {
		return PhotoAnalysis{}, fmt.Errorf("failed to insert photo analysis: %w", err)
	}

	_ = json.Unmarshal(observationsJSON, &pa.Observations)
	_ = json.Unmarshal(factorsJSON, &pa.Factors)
	_ = json.Unmarshal(photosJSON, &pa.Photos)

	return pa, nil
}

// GetByID retrieves a photo analysis by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (PhotoAnalysis, error) {
	var pa PhotoAnalysis
	var observationsJSON, factorsJSON, photosJSON []byte

	err := r.pool.QueryRow(ctx, `
		SELECT id, service_type, summary, observations, confidence_level, factors,
			adjustment, confidence, degraded, model_name, photos, created_at
		FROM rq_photo_analyses
		WHERE id = $1
	`, id).Scan(
		&pa.ID, &pa.ServiceType, &pa.Summary, &observationsJSON, &pa.ConfidenceLevel, &factorsJSON,
		&pa.Adjustment, &pa.Confidence, &pa.Degraded, &pa.ModelName, &photosJSON, &pa.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return PhotoAnalysis{}, ErrAnalysisNotFound
	}
	if err != nil {
		return PhotoAnalysis{}, fmt.Errorf("failed to get photo analysis: %w", err)
	}

	_ = json.Unmarshal(observationsJSON, &pa.Observations)
	_ = json.Unmarshal(factorsJSON, &pa.Factors)
	_ = json.Unmarshal(photosJSON, &pa.Photos)

	return pa, nil
}

// Delete removes a photo analysis row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rq_photo_analyses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}
