// Package places looks up contractor businesses through the Google
// Places API (New) text search and maps the hits onto ranking
// candidates.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"renoquote_backend/internal/contractors/ranking"
	"renoquote_backend/platform/config"
	"renoquote_backend/platform/logger"
	"renoquote_backend/platform/phone"

	"golang.org/x/time/rate"
)

const searchTextPath = "/v1/places:searchText"

// fieldMask limits the response to the fields the ranker consumes.
const fieldMask = "places.displayName,places.formattedAddress,places.rating," +
	"places.userRatingCount,places.types,places.websiteUri," +
	"places.nationalPhoneNumber,places.currentOpeningHours.openNow"

type Client struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	regionCode string
	limiter    *rate.Limiter
	log        *logger.Logger
}

func NewClient(cfg config.PlacesConfig, log *logger.Logger) *Client {
	qps := cfg.GetPlacesMaxQPS()
	if qps <= 0 {
		qps = 1
	}

	return &Client{
		client:     &http.Client{Timeout: 5 * time.Second},
		baseURL:    cfg.GetPlacesBaseURL(),
		apiKey:     cfg.GetPlacesAPIKey(),
		regionCode: cfg.GetPlacesRegionCode(),
		limiter:    rate.NewLimiter(rate.Limit(qps), int(qps)),
		log:        log,
	}
}

// SearchCandidates runs a text search for the trade near the location and
// returns the hits as ranking candidates. Hits without a business name are
// dropped. The upstream list may be empty; that is not an error.
func (c *Client) SearchCandidates(ctx context.Context, query SearchQuery) ([]ranking.Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(searchTextRequest{
		TextQuery:      buildTextQuery(query),
		MaxResultCount: query.MaxResults,
		RegionCode:     c.regionCode,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchTextPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("places request failed", "error", err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("places upstream error", "status", resp.StatusCode)
		return nil, fmt.Errorf("upstream api error: %d", resp.StatusCode)
	}

	var decoded searchTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.log.Error("failed to decode places payload", "error", err)
		return nil, err
	}

	candidates := make([]ranking.Candidate, 0, len(decoded.Places))
	for _, raw := range decoded.Places {
		candidate, ok := buildCandidate(raw)
		if !ok {
			continue
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func buildTextQuery(query SearchQuery) string {
	if query.Location == "" {
		return query.Trade
	}
	return fmt.Sprintf("%s in %s", query.Trade, query.Location)
}

// buildCandidate normalizes one hit. Ratings outside 0..5 and negative
// review counts do occur in the wild and are clamped rather than rejected.
func buildCandidate(raw place) (ranking.Candidate, bool) {
	if raw.DisplayName.Text == "" {
		return ranking.Candidate{}, false
	}

	rating := raw.Rating
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}

	reviewCount := raw.UserRatingCount
	if reviewCount < 0 {
		reviewCount = 0
	}

	return ranking.Candidate{
		Name:        raw.DisplayName.Text,
		Address:     raw.FormattedAddress,
		Rating:      rating,
		ReviewCount: reviewCount,
		Categories:  raw.Types,
		HasWebsite:  raw.WebsiteURI != "",
		HasPhone:    phone.IsValid(raw.NationalPhoneNumber),
		IsOpenNow:   raw.CurrentOpeningHours != nil && raw.CurrentOpeningHours.OpenNow,
	}, true
}
