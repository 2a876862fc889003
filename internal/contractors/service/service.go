// Package service implements the contractor search flow: cache lookup,
// places search, quality ranking and the search log.
package service

import (
	"context"
	"errors"
	"strings"

	"renoquote_backend/internal/contractors/places"
	"renoquote_backend/internal/contractors/ranking"
	"renoquote_backend/internal/contractors/repository"
	"renoquote_backend/internal/contractors/transport"
	"renoquote_backend/internal/events"
	"renoquote_backend/platform/apperr"
	"renoquote_backend/platform/cache"
	"renoquote_backend/platform/logger"
)

const defaultCandidateLimit = 20

// Searcher finds contractor candidates for a trade/location query.
type Searcher interface {
	SearchCandidates(ctx context.Context, query places.SearchQuery) ([]ranking.Candidate, error)
}

// SearchLogger records performed searches for coverage reporting.
type SearchLogger interface {
	CreateSearchLog(ctx context.Context, params repository.CreateSearchLogParams) error
}

// ResultCache caches ranked search results keyed by trade and location.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
}

// Service provides business logic for contractor search.
type Service struct {
	searcher Searcher
	ranker   *ranking.Ranker
	cache    ResultCache
	searches SearchLogger
	bus      events.Bus
	log      *logger.Logger
}

// New creates a contractor search service. The searcher may be nil when
// the places integration is disabled; cache and searches may be nil.
func New(searcher Searcher, ranker *ranking.Ranker, resultCache ResultCache, searches SearchLogger, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		searcher: searcher,
		ranker:   ranker,
		cache:    resultCache,
		searches: searches,
		bus:      bus,
		log:      log,
	}
}

// Search returns a ranked contractor shortlist for a trade and location.
// Cached results are served when present; misses query the places API
// and rank the candidates.
func (s *Service) Search(ctx context.Context, req transport.SearchContractorsRequest) (transport.SearchContractorsResponse, error) {
	trade := strings.TrimSpace(req.Trade)
	location := strings.TrimSpace(req.Location)
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		keyword = trade
	}

	key := cacheKey(trade, location)
	if s.cache != nil {
		var cached transport.SearchContractorsResponse
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			cached.CacheHit = true
			s.recordSearch(ctx, trade, location, keyword, cached, true)
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("search cache read failed", "key", key, "error", err)
		}
	}

	if s.searcher == nil {
		return transport.SearchContractorsResponse{}, apperr.Unavailable("contractor search is not configured")
	}

	candidates, err := s.searcher.SearchCandidates(ctx, places.SearchQuery{
		Trade:      trade,
		Location:   location,
		MaxResults: defaultCandidateLimit,
	})
	if err != nil {
		return transport.SearchContractorsResponse{}, apperr.Wrap(apperr.KindUpstream, "contractor lookup failed", err)
	}

	ranked := s.ranker.Rank(candidates, keyword, req.Limit)
	result := toSearchResponse(ranked, len(candidates))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.log.Warn("search cache write failed", "key", key, "error", err)
		}
	}

	s.recordSearch(ctx, trade, location, keyword, result, false)
	return result, nil
}

// WarmDirectory performs a search purely to refresh the cache entry for
// a trade/location pair. Used by the background directory refresh task.
func (s *Service) WarmDirectory(ctx context.Context, trade, location string) error {
	_, err := s.Search(ctx, transport.SearchContractorsRequest{Trade: trade, Location: location})
	return err
}

func (s *Service) recordSearch(ctx context.Context, trade, location, keyword string, result transport.SearchContractorsResponse, cacheHit bool) {
	if s.searches != nil {
		topNames := make([]string, 0, len(result.Contractors))
		for _, contractor := range result.Contractors {
			topNames = append(topNames, contractor.Name)
		}

		err := s.searches.CreateSearchLog(ctx, repository.CreateSearchLogParams{
			Trade:           trade,
			Location:        location,
			Keyword:         keyword,
			CandidateCount:  result.CandidateCount,
			ResultCount:     len(result.Contractors),
			TierUsed:        result.TierUsed,
			QualityVerified: result.QualityVerified,
			CacheHit:        cacheHit,
			TopNames:        topNames,
		})
		if err != nil {
			s.log.Warn("search log write failed", "trade", trade, "error", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.ContractorSearchPerformed{
			BaseEvent:       events.NewBaseEvent(),
			Trade:           trade,
			Location:        location,
			CandidateCount:  result.CandidateCount,
			ResultCount:     len(result.Contractors),
			TierUsed:        result.TierUsed,
			QualityVerified: result.QualityVerified,
			CacheHit:        cacheHit,
		})
	}
}

func toSearchResponse(ranked ranking.Result, candidateCount int) transport.SearchContractorsResponse {
	contractors := make([]transport.ContractorResponse, 0, len(ranked.Contractors))
	for _, contractor := range ranked.Contractors {
		contractors = append(contractors, transport.ContractorResponse{
			Name:            contractor.Name,
			Address:         contractor.Address,
			Rating:          contractor.Rating,
			ReviewCount:     contractor.ReviewCount,
			Score:           contractor.Score,
			ScoreBreakdown:  contractor.ScoreBreakdown,
			QualityVerified: contractor.QualityVerified,
			HasWebsite:      contractor.HasWebsite,
			HasPhone:        contractor.HasPhone,
			IsOpenNow:       contractor.IsOpenNow,
		})
	}

	return transport.SearchContractorsResponse{
		Contractors:     contractors,
		TierUsed:        ranked.TierUsed.Name(),
		QualityVerified: !ranked.TierUsed.Relaxed,
		CandidateCount:  candidateCount,
	}
}

// cacheKey normalizes trade and location into a stable cache key. Case
// and repeated whitespace do not produce distinct entries.
func cacheKey(trade, location string) string {
	normalize := func(value string) string {
		return strings.Join(strings.Fields(strings.ToLower(value)), " ")
	}
	return "contractors:search:" + normalize(trade) + "|" + normalize(location)
}
