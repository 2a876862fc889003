// Package costadjust composes vision-derived difficulty factors into a
// single multiplicative price adjustment with a confidence value.
// Composition is a pure, total transform: any assessment, including the
// zero value, produces a bounded result.
package costadjust

import "math"

const (
	neutralFactor      = 1.0
	fallbackConfidence = 0
)

// OptionalFactor is a numeric factor that may be absent. Absent factors
// compose as the neutral 1.0.
type OptionalFactor struct {
	Value   float64
	Present bool
}

// Factor returns a present OptionalFactor.
func Factor(value float64) OptionalFactor {
	return OptionalFactor{Value: value, Present: true}
}

// orNeutral returns the factor value, or 1.0 when absent or not finite.
func (f OptionalFactor) orNeutral() float64 {
	if !f.Present || math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
		return neutralFactor
	}
	return f.Value
}

// Assessment holds the four difficulty factors a vision model derives
// from job photos. Factors are nominally in [0.7, 1.5]; out-of-range
// values still compose, absent ones default to neutral.
type Assessment struct {
	Complexity      OptionalFactor
	Condition       OptionalFactor
	Access          OptionalFactor
	MaterialQuality OptionalFactor
}

// Result is a composed price adjustment. Adjustment multiplies the base
// estimate; Confidence expresses how far the factors sit from neutral.
type Result struct {
	Adjustment float64
	Confidence int
}

// Compose averages the four factors into an adjustment rounded to two
// decimals. Confidence is maximal (100) when the average is exactly
// neutral and decays linearly as it departs from 1.0 in either
// direction; it is computed from the unrounded average and clamped to
// [0, 100].
func Compose(assessment Assessment) Result {
	average := (assessment.Complexity.orNeutral() +
		assessment.Condition.orNeutral() +
		assessment.Access.orNeutral() +
		assessment.MaterialQuality.orNeutral()) / 4

	return Result{
		Adjustment: math.Round(average*100) / 100,
		Confidence: clampConfidence((1 - math.Abs(1-average)) * 100),
	}
}

// Fallback is the fixed result the boundary layer returns when the
// upstream vision response cannot be parsed into an assessment at all.
// Compose is not involved in that path.
func Fallback() Result {
	return Result{Adjustment: neutralFactor, Confidence: fallbackConfidence}
}

// ClampDisplayBand narrows a confidence value into a display band.
// Presentation policy only; the canonical confidence range is [0, 100].
func ClampDisplayBand(confidence, floor, ceil int) int {
	if confidence < floor {
		return floor
	}
	if confidence > ceil {
		return ceil
	}
	return confidence
}

func clampConfidence(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
