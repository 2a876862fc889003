package vision

import (
	"testing"
)

func TestParseVerdictFencedJSON(t *testing.T) {
	raw := "```json\n" + `{
  "summary": "Badkamer met verouderd tegelwerk en zichtbare voegschade.",
  "observations": ["kalkaanslag op kranen", "scheur in wandtegel"],
  "confidence": "hoog",
  "factors": {
    "complexity": 1.2,
    "condition": 1.3,
    "access": 0.9,
    "materialQuality": 1.1
  }
}` + "\n```"

	verdict, err := ParseVerdict(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if verdict.Summary == "" {
		t.Error("expected a non-empty summary")
	}
	if len(verdict.Observations) != 2 {
		t.Errorf("expected 2 observations, got %d", len(verdict.Observations))
	}
	if verdict.ConfidenceLevel != "High" {
		t.Errorf("expected confidence High, got %q", verdict.ConfidenceLevel)
	}

	factors := verdict.Factors
	if !factors.Complexity.Present || factors.Complexity.Value != 1.2 {
		t.Errorf("expected complexity 1.2 present, got %+v", factors.Complexity)
	}
	if !factors.Condition.Present || factors.Condition.Value != 1.3 {
		t.Errorf("expected condition 1.3 present, got %+v", factors.Condition)
	}
	if !factors.Access.Present || factors.Access.Value != 0.9 {
		t.Errorf("expected access 0.9 present, got %+v", factors.Access)
	}
	if !factors.MaterialQuality.Present || factors.MaterialQuality.Value != 1.1 {
		t.Errorf("expected materialQuality 1.1 present, got %+v", factors.MaterialQuality)
	}
}

// Models sometimes quote their numbers. Those still count as factors.
func TestParseVerdictCoercesStringNumbers(t *testing.T) {
	raw := `{"summary": "ok", "confidence": "Medium", "factors": {"complexity": "1.4", "condition": " 0.8 "}}`

	verdict, err := ParseVerdict(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !verdict.Factors.Complexity.Present || verdict.Factors.Complexity.Value != 1.4 {
		t.Errorf("expected complexity 1.4 present, got %+v", verdict.Factors.Complexity)
	}
	if !verdict.Factors.Condition.Present || verdict.Factors.Condition.Value != 0.8 {
		t.Errorf("expected condition 0.8 present, got %+v", verdict.Factors.Condition)
	}
	if verdict.Factors.Access.Present {
		t.Error("expected access to stay absent when not returned")
	}
}

func TestParseVerdictNonNumericFactorStaysAbsent(t *testing.T) {
	raw := `{"factors": {"complexity": "hoog", "condition": 1.1}}`

	verdict, err := ParseVerdict(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if verdict.Factors.Complexity.Present {
		t.Errorf("expected non-numeric complexity to stay absent, got %+v", verdict.Factors.Complexity)
	}
	if !verdict.Factors.Condition.Present {
		t.Error("expected condition to be present")
	}
}

func TestParseVerdictAcceptsSnakeCaseMaterialQuality(t *testing.T) {
	raw := `{"factors": {"material_quality": 1.25}}`

	verdict, err := ParseVerdict(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !verdict.Factors.MaterialQuality.Present || verdict.Factors.MaterialQuality.Value != 1.25 {
		t.Errorf("expected materialQuality 1.25 present, got %+v", verdict.Factors.MaterialQuality)
	}
}

func TestParseVerdictRejectsNonJSON(t *testing.T) {
	if _, err := ParseVerdict("Ik kan op deze foto's geen klus herkennen."); err == nil {
		t.Fatal("expected an error for a prose reply")
	}
	if _, err := ParseVerdict("   "); err == nil {
		t.Fatal("expected an error for a blank reply")
	}
}

func TestNormalizeConfidenceLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"High", "High"},
		{"HIGH", "High"},
		{"hoog", "High"},
		{"Low", "Low"},
		{"laag", "Low"},
		{"Medium", "Medium"},
		{"zeker weten", "Medium"},
		{"", "Medium"},
	}

	for _, tc := range tests {
		if got := normalizeConfidenceLevel(tc.input); got != tc.want {
			t.Errorf("normalizeConfidenceLevel(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced with language", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "\n\n  {\"a\":1}  \n", `{"a":1}`},
	}

	for _, tc := range tests {
		if got := extractJSON(tc.input); got != tc.want {
			t.Errorf("%s: extractJSON = %q, want %q", tc.name, got, tc.want)
		}
	}
}
