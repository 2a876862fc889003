package rates

import "testing"

func TestLoadEmbeddedCard(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("unexpected error loading the embedded card: %v", err)
	}
	if len(resolver.Categories()) == 0 {
		t.Fatal("expected at least one category on the card")
	}
}

func TestResolveKnownService(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rate := resolver.Resolve("plumbing", "leaky_faucet")
	if rate.LowCents != 7500 || rate.HighCents != 15000 {
		t.Errorf("expected band 7500-15000, got %d-%d", rate.LowCents, rate.HighCents)
	}
	if rate.Duration == "" {
		t.Error("expected a duration on the rate")
	}
}

func TestResolveFallsBackPerLevel(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name        string
		category    string
		serviceType string
		want        ServiceRate
	}{
		{"unknown service uses category default", "plumbing", "haunted_pipes", resolver.Resolve("plumbing", "default")},
		{"unknown category uses general default", "alchemy", "lead_to_gold", resolver.Resolve("general", "default")},
		{"lookup is case and whitespace insensitive", "  PLUMBING ", " Leaky_Faucet ", resolver.Resolve("plumbing", "leaky_faucet")},
	}

	for _, tc := range tests {
		got := resolver.Resolve(tc.category, tc.serviceType)
		if got.LowCents != tc.want.LowCents || got.HighCents != tc.want.HighCents {
			t.Errorf("%s: got band %d-%d, want %d-%d", tc.name, got.LowCents, got.HighCents, tc.want.LowCents, tc.want.HighCents)
		}
	}
}

func TestUrgencyMultiplier(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		urgency string
		want    float64
	}{
		{"same_day", 1.25},
		{"emergency", 1.5},
		{"flexible", 1.0},
		{"", 1.0},
	}

	for _, tc := range tests {
		if got := resolver.UrgencyMultiplier(tc.urgency); got != tc.want {
			t.Errorf("UrgencyMultiplier(%q) = %v, want %v", tc.urgency, got, tc.want)
		}
	}
}

func TestLocationFactor(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := resolver.LocationFactor("Noord-Holland"); got != 1.12 {
		t.Errorf("expected Noord-Holland factor 1.12, got %v", got)
	}
	if got := resolver.LocationFactor("atlantis"); got != 1.0 {
		t.Errorf("expected default factor 1.0 for an unknown province, got %v", got)
	}
}
