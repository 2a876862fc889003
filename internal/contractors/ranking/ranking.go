// Package ranking turns raw contractor candidates from a places lookup
// into a ranked, capped shortlist. Filtering runs in two quality tiers
// with a relaxed fallback so sparse search areas still produce results.
package ranking

import (
	"math"
	"sort"
	"strings"
)

const (
	// Maximum contribution of each score component. Together they cap
	// the total at 100.
	maxRatingContribution   = 35.0
	maxReviewContribution   = 25.0
	maxKeywordContribution  = 20.0
	maxOpenNowContribution  = 10.0
	maxPresenceContribution = 10.0

	keywordTokenPoints   = 5.0
	presenceSignalPoints = 5.0

	// reviewSaturationDivisor makes the log10 review curve reach its
	// maximum at 99 reviews (log10(100) = 2).
	reviewSaturationDivisor = 2.0
)

// Candidate is a contractor business discovered by the places search.
// Callers construct candidates fresh per search; the ranker never
// retains them.
type Candidate struct {
	Name        string
	Address     string
	Rating      float64
	ReviewCount int
	Categories  []string
	HasWebsite  bool
	HasPhone    bool
	IsOpenNow   bool
}

// FilterTier is a named threshold pair candidates must meet.
type FilterTier struct {
	MinimumRating  float64
	MinimumReviews int
	Relaxed        bool
}

// Name returns "strict" or "relaxed" for logs and responses.
func (t FilterTier) Name() string {
	if t.Relaxed {
		return "relaxed"
	}
	return "strict"
}

// RankedContractor is a scored candidate with its component breakdown.
type RankedContractor struct {
	Candidate
	Score           int
	ScoreBreakdown  map[string]float64
	QualityVerified bool
}

// Result holds the ranked shortlist plus the tier that produced it.
type Result struct {
	Contractors []RankedContractor
	TierUsed    FilterTier
}

// Ranker filters and scores contractor candidates. It is stateless and
// safe for concurrent use.
type Ranker struct {
	cfg Config
}

// New creates a Ranker with the given thresholds.
func New(cfg Config) *Ranker {
	return &Ranker{cfg: cfg}
}

// FilterCandidates returns the candidates meeting the tier thresholds.
// Pure filter; input order is preserved.
func FilterCandidates(candidates []Candidate, tier FilterTier) []Candidate {
	filtered := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Rating >= tier.MinimumRating && candidate.ReviewCount >= tier.MinimumReviews {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}

// SelectTier applies the strict tier first. When that leaves fewer than
// MinAcceptable candidates, the strict result is discarded and the
// relaxed tier is applied to the full input instead. Returns the
// filtered candidates and the tier that produced them.
func (r *Ranker) SelectTier(candidates []Candidate) ([]Candidate, FilterTier) {
	strict := r.cfg.StrictTier()
	filtered := FilterCandidates(candidates, strict)
	if len(filtered) >= r.cfg.MinAcceptable {
		return filtered, strict
	}

	relaxed := r.cfg.RelaxedTier()
	return FilterCandidates(candidates, relaxed), relaxed
}

// Score rates a single candidate 0-100 for a job keyword. The returned
// breakdown holds every component's contribution so results stay
// explainable.
func (r *Ranker) Score(candidate Candidate, jobKeyword string) (int, map[string]float64) {
	breakdown := make(map[string]float64, 5)

	total := addComponent(breakdown, "rating", scoreRating(candidate))
	total += addComponent(breakdown, "reviews", scoreReviews(candidate))
	total += addComponent(breakdown, "keyword", scoreKeyword(candidate, jobKeyword))
	total += addComponent(breakdown, "open_now", scoreOpenNow(candidate))
	total += addComponent(breakdown, "presence", scorePresence(candidate))

	return clampScore(total), breakdown
}

// Rank runs tier selection, scores the surviving candidates and returns
// up to topN contractors in descending score order. Candidates with
// equal scores keep their input order. topN <= 0 falls back to the
// configured default. Empty input yields an empty shortlist with tier
// metadata, not an error.
func (r *Ranker) Rank(candidates []Candidate, jobKeyword string, topN int) Result {
	if topN <= 0 {
		topN = r.cfg.TopN
	}

	filtered, tier := r.SelectTier(candidates)
	qualityVerified := !tier.Relaxed

	ranked := make([]RankedContractor, 0, len(filtered))
	for _, candidate := range filtered {
		score, breakdown := r.Score(candidate, jobKeyword)
		ranked = append(ranked, RankedContractor{
			Candidate:       candidate,
			Score:           score,
			ScoreBreakdown:  breakdown,
			QualityVerified: qualityVerified,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return Result{Contractors: ranked, TierUsed: tier}
}

func addComponent(breakdown map[string]float64, key string, value float64) float64 {
	// Round to 1 decimal place for cleaner breakdown display
	breakdown[key] = math.Round(value*10) / 10
	return value
}

// scoreRating converts the 0-5 star rating linearly into up to 35 points.
func scoreRating(candidate Candidate) float64 {
	return candidate.Rating / 5.0 * maxRatingContribution
}

// scoreReviews rewards review volume on a log10 curve so early reviews
// count most and outlier counts are dampened. The contribution
// saturates at 99 reviews.
func scoreReviews(candidate Candidate) float64 {
	if candidate.ReviewCount <= 0 {
		return 0
	}

	normalized := math.Log10(float64(candidate.ReviewCount)+1) / reviewSaturationDivisor
	if normalized > 1 {
		normalized = 1
	}
	return normalized * maxReviewContribution
}

// scoreKeyword awards points per keyword token found in the candidate's
// name or categories. Matching is plain lowercase substring containment
// with no deduplication; repeated tokens score again. Capped at 20.
func scoreKeyword(candidate Candidate, jobKeyword string) float64 {
	tokens := strings.Fields(strings.ToLower(jobKeyword))
	if len(tokens) == 0 {
		return 0
	}

	haystack := strings.ToLower(candidate.Name + " " + strings.Join(candidate.Categories, " "))

	points := 0.0
	for _, token := range tokens {
		if strings.Contains(haystack, token) {
			points += keywordTokenPoints
		}
	}

	return math.Min(points, maxKeywordContribution)
}

// scoreOpenNow awards 10 points when the listing reports being open.
func scoreOpenNow(candidate Candidate) float64 {
	if candidate.IsOpenNow {
		return maxOpenNowContribution
	}
	return 0
}

// scorePresence awards 5 points each for a listed website and a listed
// phone number.
func scorePresence(candidate Candidate) float64 {
	points := 0.0
	if candidate.HasWebsite {
		points += presenceSignalPoints
	}
	if candidate.HasPhone {
		points += presenceSignalPoints
	}
	return points
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
