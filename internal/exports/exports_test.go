package exports

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	estimaterepo "renoquote_backend/internal/estimates/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestEstimateCSVRowMatchesHeaders(t *testing.T) {
	digest := "abc123"
	city := "Amsterdam"
	description := "leaking tap"
	est := estimaterepo.Estimate{
		ID:            uuid.New(),
		Category:      "plumbing",
		ServiceType:   "leaky_faucet",
		Urgency:       "standard",
		Province:      "Noord-Holland",
		City:          &city,
		Description:   &description,
		LowCents:      10500,
		HighCents:     21000,
		Adjustment:    1.15,
		Confidence:    85,
		Degraded:      false,
		ContactDigest: &digest,
		CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ExpiresAt:     time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC),
	}

	row := estimateCSVRow(est)
	if len(row) != len(csvHeaders()) {
		t.Fatalf("row has %d fields, headers have %d", len(row), len(csvHeaders()))
	}

	if row[6] != "Amsterdam" {
		t.Errorf("expected city column, got %q", row[6])
	}
	if row[8] != "105.00" || row[9] != "210.00" {
		t.Errorf("expected euro amounts 105.00/210.00, got %q/%q", row[8], row[9])
	}
	if row[10] != "1.15" {
		t.Errorf("expected adjustment 1.15, got %q", row[10])
	}
	if row[13] != "abc123" {
		t.Errorf("expected contact digest column, got %q", row[13])
	}
}

func TestEstimateCSVRowHandlesEmptyOptionals(t *testing.T) {
	row := estimateCSVRow(estimaterepo.Estimate{ID: uuid.New()})
	if row[6] != "" || row[7] != "" || row[13] != "" {
		t.Errorf("expected empty optional columns, got city=%q description=%q digest=%q", row[6], row[7], row[13])
	}
}

func TestParseIntQueryClamping(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		fallback int
		max      int
		want     int
	}{
		{name: "missing uses fallback", query: "", fallback: 14, max: 365, want: 14},
		{name: "valid value", query: "days=30", fallback: 14, max: 365, want: 30},
		{name: "above max clamps", query: "days=9999", fallback: 14, max: 365, want: 365},
		{name: "zero uses fallback", query: "days=0", fallback: 14, max: 365, want: 14},
		{name: "negative uses fallback", query: "days=-5", fallback: 14, max: 365, want: 14},
		{name: "garbage uses fallback", query: "days=soon", fallback: 14, max: 365, want: 14},
	}

	gin.SetMode(gin.TestMode)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/exports/search-misses?"+tc.query, nil)

			got := parseIntQuery(c, "days", tc.fallback, tc.max)
			if got != tc.want {
				t.Errorf("parseIntQuery(%q) = %d, want %d", tc.query, got, tc.want)
			}
		})
	}
}

func TestGenerateAPIKeyHashRoundTrip(t *testing.T) {
	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("key generation failed: %v", err)
	}

	if !strings.HasPrefix(plaintext, "rqex_") {
		t.Errorf("expected rqex_ prefix, got %q", plaintext)
	}
	if !strings.HasPrefix(plaintext, prefix) {
		t.Errorf("stored prefix %q is not a prefix of the key", prefix)
	}
	if HashKey(plaintext) != hash {
		t.Error("hash of plaintext does not match stored hash")
	}
	if strings.Contains(hash, plaintext) {
		t.Error("hash must not embed the plaintext key")
	}
}

func TestGeneratedKeysAreUnique(t *testing.T) {
	first, _, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("key generation failed: %v", err)
	}
	second, _, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("key generation failed: %v", err)
	}
	if first == second {
		t.Error("expected distinct keys")
	}
}
