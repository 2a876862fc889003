package ranking

import "fmt"

// Config holds the ranking thresholds. Deployments tune these through
// environment configuration; DefaultConfig matches the standard rollout.
type Config struct {
	StrictMinRating   float64
	StrictMinReviews  int
	RelaxedMinRating  float64
	RelaxedMinReviews int

	// MinAcceptable is the smallest strict-tier result set that avoids
	// falling back to the relaxed tier. Set to 1 to relax only when the
	// strict tier yields nothing at all.
	MinAcceptable int

	// TopN caps how many contractors Rank returns.
	TopN int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		StrictMinRating:   4.0,
		StrictMinReviews:  5,
		RelaxedMinRating:  3.5,
		RelaxedMinReviews: 3,
		MinAcceptable:     3,
		TopN:              5,
	}
}

// Validate checks that the relaxed tier is not stricter than the strict
// tier and that the counts are usable.
func (c Config) Validate() error {
	if c.RelaxedMinRating > c.StrictMinRating {
		return fmt.Errorf("relaxed minimum rating %.2f exceeds strict %.2f", c.RelaxedMinRating, c.StrictMinRating)
	}
	if c.RelaxedMinReviews > c.StrictMinReviews {
		return fmt.Errorf("relaxed minimum reviews %d exceeds strict %d", c.RelaxedMinReviews, c.StrictMinReviews)
	}
	if c.MinAcceptable < 0 {
		return fmt.Errorf("minimum acceptable count must not be negative, got %d", c.MinAcceptable)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("topN must be positive, got %d", c.TopN)
	}
	return nil
}

// StrictTier returns the strict filter thresholds.
func (c Config) StrictTier() FilterTier {
	return FilterTier{MinimumRating: c.StrictMinRating, MinimumReviews: c.StrictMinReviews}
}

// RelaxedTier returns the relaxed filter thresholds.
func (c Config) RelaxedTier() FilterTier {
	return FilterTier{MinimumRating: c.RelaxedMinRating, MinimumReviews: c.RelaxedMinReviews, Relaxed: true}
}
