package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateSearchLogParams contains parameters for logging one contractor
// search. The log carries no consumer data, only the query and outcome.
type CreateSearchLogParams struct {
	Trade           string
	Location        string
	Keyword         string
	CandidateCount  int
	ResultCount     int
	TierUsed        string
	QualityVerified bool
	CacheHit        bool
	TopNames        []string
}

// SearchMissSummary aggregates trade/location pairs that repeatedly
// produced zero ranked contractors within the lookback window.
type SearchMissSummary struct {
	Trade       string
	Location    string
	SearchCount int
	LastSeenAt  time.Time
}

// Repository provides database operations for the contractor search log.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new contractor search log repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateSearchLog records one search and its outcome.
func (r *Repository) CreateSearchLog(ctx context.Context, params CreateSearchLogParams) error {
	if params.Trade == "" {
		return fmt.Errorf("trade is required")
	}
	if params.ResultCount < 0 || params.CandidateCount < 0 {
		return fmt.Errorf("counts cannot be negative")
	}

	topNamesJSON, _ := json.Marshal(params.TopNames)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO rq_contractor_searches
			(trade, location, keyword, candidate_count, result_count, tier_used, quality_verified, cache_hit, top_names)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, params.Trade, params.Location, params.Keyword, params.CandidateCount, params.ResultCount,
		params.TierUsed, params.QualityVerified, params.CacheHit, topNamesJSON)
	return err
}

// ListFrequentSearchMisses returns trade/location pairs that repeatedly
// produced zero results, for coverage review.
func (r *Repository) ListFrequentSearchMisses(ctx context.Context, lookbackDays int, minCount int, limit int) ([]SearchMissSummary, error) {
	if lookbackDays <= 0 {
		lookbackDays = 14
	}
	if minCount <= 0 {
		minCount = 3
	}
	if limit <= 0 {
		limit = 25
	}

	// Normalize in SQL to reduce trivial duplicates (case, whitespace).
	rows, err := r.pool.Query(ctx, `
		WITH misses AS (
			SELECT
				LOWER(REGEXP_REPLACE(TRIM(trade), '\s+', ' ', 'g')) AS trade_norm,
				LOWER(REGEXP_REPLACE(TRIM(location), '\s+', ' ', 'g')) AS location_norm,
				trade,
				location,
				created_at
			FROM rq_contractor_searches
			WHERE result_count = 0
				AND created_at >= (NOW() - ($1::int || ' days')::interval)
		)
		SELECT
			MIN(trade) AS representative_trade,
			MIN(location) AS representative_location,
			COUNT(*)::int AS cnt,
			MAX(created_at) AS last_seen
		FROM misses
		GROUP BY trade_norm, location_norm
		HAVING COUNT(*) >= $2
		ORDER BY cnt DESC, last_seen DESC
		LIMIT $3
	`, lookbackDays, minCount, limit)
	if err != nil {
		return nil, fmt.Errorf("query contractor search misses: %w", err)
	}
	defer rows.Close()

	items := make([]SearchMissSummary, 0)
	for rows.Next() {
		var it SearchMissSummary
		if err := rows.Scan(&it.Trade, &it.Location, &it.SearchCount, &it.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan contractor search miss summary: %w", err)
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate contractor search miss summaries: %w", rows.Err())
	}

	return items, nil
}
