// Package rates holds the static rate card the estimate calculation is
// priced from. The card ships embedded in the binary; lookups fall back
// per level (unknown service type -> category default, unknown category
// -> general) so a resolve always succeeds.
package rates

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rates.yaml
var rateCardYAML []byte

const (
	fallbackCategory = "general"
	fallbackKey      = "default"
)

// ServiceRate is the base price band for one service type.
type ServiceRate struct {
	LowCents  int64    `yaml:"low_cents"`
	HighCents int64    `yaml:"high_cents"`
	Duration  string   `yaml:"duration"`
	Included  []string `yaml:"included"`
	Notes     string   `yaml:"notes"`
}

type category struct {
	Services map[string]ServiceRate `yaml:"services"`
}

type rateCard struct {
	Categories         map[string]category `yaml:"categories"`
	UrgencyMultipliers map[string]float64  `yaml:"urgency_multipliers"`
	LocationFactors    map[string]float64  `yaml:"location_factors"`
}

// Resolver answers rate lookups against the embedded card.
type Resolver struct {
	card rateCard
}

// Load parses the embedded rate card and verifies the fallback entries
// every lookup path depends on.
func Load() (*Resolver, error) {
	var card rateCard
	if err := yaml.Unmarshal(rateCardYAML, &card); err != nil {
		return nil, fmt.Errorf("parse rate card: %w", err)
	}

	general, ok := card.Categories[fallbackCategory]
	if !ok {
		return nil, fmt.Errorf("rate card is missing the %q category", fallbackCategory)
	}
	if _, ok := general.Services[fallbackKey]; !ok {
		return nil, fmt.Errorf("rate card category %q is missing a %q service", fallbackCategory, fallbackKey)
	}
	for name, cat := range card.Categories {
		if _, ok := cat.Services[fallbackKey]; !ok {
			return nil, fmt.Errorf("rate card category %q is missing a %q service", name, fallbackKey)
		}
		for serviceType, rate := range cat.Services {
			if rate.LowCents <= 0 || rate.HighCents < rate.LowCents {
				return nil, fmt.Errorf("rate card entry %s/%s has an invalid price band", name, serviceType)
			}
		}
	}

	return &Resolver{card: card}, nil
}

// Resolve returns the base rate for a category and service type, walking
// the fallback chain for unknown keys.
func (r *Resolver) Resolve(categoryName, serviceType string) ServiceRate {
	cat, ok := r.card.Categories[strings.ToLower(strings.TrimSpace(categoryName))]
	if !ok {
		cat = r.card.Categories[fallbackCategory]
	}

	rate, ok := cat.Services[strings.ToLower(strings.TrimSpace(serviceType))]
	if !ok {
		rate = cat.Services[fallbackKey]
	}

	return rate
}

// UrgencyMultiplier returns the surcharge factor for an urgency level.
// Unknown levels are neutral.
func (r *Resolver) UrgencyMultiplier(urgency string) float64 {
	if m, ok := r.card.UrgencyMultipliers[strings.ToLower(strings.TrimSpace(urgency))]; ok && m > 0 {
		return m
	}
	return 1.0
}

// LocationFactor returns the regional labor-cost index for a province.
// Unknown provinces get the card's default factor.
func (r *Resolver) LocationFactor(province string) float64 {
	if f, ok := r.card.LocationFactors[strings.ToLower(strings.TrimSpace(province))]; ok && f > 0 {
		return f
	}
	if f, ok := r.card.LocationFactors[fallbackKey]; ok && f > 0 {
		return f
	}
	return 1.0
}

// Categories lists the category names on the card, for request validation.
func (r *Resolver) Categories() []string {
	names := make([]string, 0, len(r.card.Categories))
	for name := range r.card.Categories {
		names = append(names, name)
	}
	return names
}
