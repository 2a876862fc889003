package ranking

import (
	"reflect"
	"testing"
)

func TestScorePerfectCandidate(t *testing.T) {
	r := New(DefaultConfig())

	candidate := Candidate{
		Name:        "Premium Interior House Painting",
		Rating:      5,
		ReviewCount: 1000,
		Categories:  []string{"painter"},
		HasWebsite:  true,
		HasPhone:    true,
		IsOpenNow:   true,
	}

	score, breakdown := r.Score(candidate, "premium interior house painting")
	if score != 100 {
		t.Fatalf("expected score 100, got %d (breakdown %v)", score, breakdown)
	}
	if breakdown["rating"] != 35 {
		t.Fatalf("expected rating contribution 35, got %v", breakdown["rating"])
	}
	if breakdown["reviews"] != 25 {
		t.Fatalf("expected review contribution 25, got %v", breakdown["reviews"])
	}
	if breakdown["keyword"] != 20 {
		t.Fatalf("expected keyword contribution 20, got %v", breakdown["keyword"])
	}
	if breakdown["open_now"] != 10 {
		t.Fatalf("expected open now contribution 10, got %v", breakdown["open_now"])
	}
	if breakdown["presence"] != 10 {
		t.Fatalf("expected presence contribution 10, got %v", breakdown["presence"])
	}
}

func TestScoreZeroSignalCandidate(t *testing.T) {
	r := New(DefaultConfig())

	candidate := Candidate{Name: "Unrated Crew"}

	score, breakdown := r.Score(candidate, "tiler")
	if score != 0 {
		t.Fatalf("expected score 0, got %d (breakdown %v)", score, breakdown)
	}
	if len(breakdown) != 5 {
		t.Fatalf("expected all 5 components in breakdown, got %d: %v", len(breakdown), breakdown)
	}
}

func TestScoreReviewCurveSaturates(t *testing.T) {
	r := New(DefaultConfig())

	base := Candidate{Name: "Crew", Rating: 4.0}

	at99 := base
	at99.ReviewCount = 99
	at1000 := base
	at1000.ReviewCount = 1000
	at50 := base
	at50.ReviewCount = 50

	score99, breakdown99 := r.Score(at99, "")
	score1000, _ := r.Score(at1000, "")
	score50, _ := r.Score(at50, "")

	if score99 != score1000 {
		t.Fatalf("review contribution should saturate at 99 reviews: 99 -> %d, 1000 -> %d", score99, score1000)
	}
	if breakdown99["reviews"] != 25 {
		t.Fatalf("expected saturated review contribution 25, got %v", breakdown99["reviews"])
	}
	if score50 >= score99 {
		t.Fatalf("50 reviews should score below 99 reviews: %d vs %d", score50, score99)
	}
}

func TestScoreKeywordTokensRepeatAndCap(t *testing.T) {
	r := New(DefaultConfig())

	candidate := Candidate{Name: "Painter"}

	// Repeated tokens each count; no deduplication. Five matches would
	// be 25 points, capped at 20.
	_, breakdown := r.Score(candidate, "painter painter painter painter painter")
	if breakdown["keyword"] != 20 {
		t.Fatalf("expected keyword contribution capped at 20, got %v", breakdown["keyword"])
	}

	_, breakdown = r.Score(candidate, "painter painter")
	if breakdown["keyword"] != 10 {
		t.Fatalf("expected repeated token to count twice (10), got %v", breakdown["keyword"])
	}
}

func TestScoreKeywordMatchesCategories(t *testing.T) {
	r := New(DefaultConfig())

	candidate := Candidate{Name: "Van Dijk", Categories: []string{"roofing contractor"}}

	_, breakdown := r.Score(candidate, "roofing")
	if breakdown["keyword"] != 5 {
		t.Fatalf("expected category token match worth 5, got %v", breakdown["keyword"])
	}
}

func TestFilterCandidatesBoundary(t *testing.T) {
	tier := FilterTier{MinimumRating: 4.0, MinimumReviews: 5}

	candidates := []Candidate{
		{Name: "exact", Rating: 4.0, ReviewCount: 5},
		{Name: "low rating", Rating: 3.99, ReviewCount: 50},
		{Name: "few reviews", Rating: 4.9, ReviewCount: 4},
		{Name: "clear pass", Rating: 4.5, ReviewCount: 25},
	}

	filtered := FilterCandidates(candidates, tier)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 candidates to pass, got %d", len(filtered))
	}
	if filtered[0].Name != "exact" || filtered[1].Name != "clear pass" {
		t.Fatalf("filter must preserve input order, got %q then %q", filtered[0].Name, filtered[1].Name)
	}
}

func TestSelectTierFallsBackWhenStrictTooSmall(t *testing.T) {
	// Two candidates pass strict; minimum acceptable is three, so the
	// strict set is discarded in favour of the relaxed tier.
	r := New(DefaultConfig())

	candidates := []Candidate{
		{Name: "a", Rating: 4.5, ReviewCount: 10},
		{Name: "b", Rating: 4.2, ReviewCount: 8},
		{Name: "c", Rating: 3.6, ReviewCount: 3},
	}

	filtered, tier := r.SelectTier(candidates)
	if !tier.Relaxed {
		t.Fatalf("expected relaxed tier, got %s", tier.Name())
	}
	if len(filtered) != 3 {
		t.Fatalf("expected all 3 candidates through relaxed tier, got %d", len(filtered))
	}
}

func TestSelectTierKeepsStrictWhenEnough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinAcceptable = 1
	r := New(cfg)

	candidates := []Candidate{
		{Name: "a", Rating: 4.5, ReviewCount: 10},
		{Name: "b", Rating: 3.6, ReviewCount: 3},
	}

	filtered, tier := r.SelectTier(candidates)
	if tier.Relaxed {
		t.Fatal("expected strict tier with minimum acceptable of 1")
	}
	if len(filtered) != 1 || filtered[0].Name != "a" {
		t.Fatalf("expected only the strict candidate, got %v", filtered)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	r := New(DefaultConfig())

	candidates := []Candidate{
		{Name: "a", Rating: 4.5, ReviewCount: 10, Categories: []string{"painter"}},
		{Name: "b", Rating: 4.5, ReviewCount: 10, Categories: []string{"painter"}},
		{Name: "c", Rating: 4.8, ReviewCount: 120, HasWebsite: true},
		{Name: "d", Rating: 3.7, ReviewCount: 6, IsOpenNow: true},
	}

	first := r.Rank(candidates, "painter", 0)
	second := r.Rank(candidates, "painter", 0)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical input must rank identically:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestRankPreservesInputOrderOnTies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinAcceptable = 1
	r := New(cfg)

	north := Candidate{Name: "North Crew", Rating: 4.5, ReviewCount: 20}
	south := Candidate{Name: "South Crew", Rating: 4.5, ReviewCount: 20}

	result := r.Rank([]Candidate{north, south}, "roofer", 0)
	if result.Contractors[0].Name != "North Crew" || result.Contractors[1].Name != "South Crew" {
		t.Fatalf("tied scores must keep input order, got %q then %q",
			result.Contractors[0].Name, result.Contractors[1].Name)
	}

	reversed := r.Rank([]Candidate{south, north}, "roofer", 0)
	if reversed.Contractors[0].Name != "South Crew" {
		t.Fatalf("reversed input must reverse tie order, got %q first", reversed.Contractors[0].Name)
	}
}

func TestRankCapsAtTopN(t *testing.T) {
	r := New(DefaultConfig())

	candidates := make([]Candidate, 0, 8)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		candidates = append(candidates, Candidate{Name: name, Rating: 4.5, ReviewCount: 25})
	}

	result := r.Rank(candidates, "painter", 2)
	if len(result.Contractors) != 2 {
		t.Fatalf("expected 2 contractors with topN=2, got %d", len(result.Contractors))
	}

	result = r.Rank(candidates, "painter", 0)
	if len(result.Contractors) != 5 {
		t.Fatalf("expected configured default of 5 contractors, got %d", len(result.Contractors))
	}
}

func TestRankEmptyInput(t *testing.T) {
	r := New(DefaultConfig())

	result := r.Rank(nil, "painter", 0)
	if len(result.Contractors) != 0 {
		t.Fatalf("expected empty shortlist, got %d entries", len(result.Contractors))
	}
	if !result.TierUsed.Relaxed {
		t.Fatal("empty input falls through to the relaxed tier")
	}
}

func TestRankSparseAreaScenario(t *testing.T) {
	// A thin search area: one candidate passes strict, one only relaxed.
	// With minimum acceptable pinned at 3 the relaxed tier serves both,
	// and nothing is marked quality verified.
	cfg := DefaultConfig()
	cfg.MinAcceptable = 3
	r := New(cfg)

	candidates := []Candidate{
		{Name: "Acme Painters", Rating: 4.8, ReviewCount: 50, Categories: []string{"painter"}, IsOpenNow: true, HasWebsite: true, HasPhone: true},
		{Name: "Bob's Decor", Rating: 3.6, ReviewCount: 4, Categories: []string{"painter"}},
	}

	result := r.Rank(candidates, "painter decorator", 5)

	if !result.TierUsed.Relaxed {
		t.Fatalf("expected relaxed tier, got %s", result.TierUsed.Name())
	}
	if len(result.Contractors) != 2 {
		t.Fatalf("expected both candidates in the shortlist, got %d", len(result.Contractors))
	}
	for _, contractor := range result.Contractors {
		if contractor.QualityVerified {
			t.Fatalf("%s must not be quality verified on the relaxed tier", contractor.Name)
		}
	}
	if result.Contractors[0].Name != "Acme Painters" {
		t.Fatalf("expected Acme Painters ranked first, got %q", result.Contractors[0].Name)
	}
	if result.Contractors[0].Score != 80 {
		t.Fatalf("expected Acme Painters score 80, got %d", result.Contractors[0].Score)
	}
	if result.Contractors[1].Score != 39 {
		t.Fatalf("expected Bob's Decor score 39, got %d", result.Contractors[1].Score)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"relaxed rating above strict", func(c *Config) { c.RelaxedMinRating = 4.5 }, true},
		{"relaxed reviews above strict", func(c *Config) { c.RelaxedMinReviews = 6 }, true},
		{"zero topN", func(c *Config) { c.TopN = 0 }, true},
		{"negative minimum acceptable", func(c *Config) { c.MinAcceptable = -1 }, true},
		{"relax only on empty", func(c *Config) { c.MinAcceptable = 1 }, false},
		{"stricter review variant", func(c *Config) { c.StrictMinReviews = 10 }, false},
	}

	for _, tc := range tests {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}
