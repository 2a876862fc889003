package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"renoquote_backend/internal/analysis/costadjust"
)

// Verdict is the parsed model output for one photo set.
type Verdict struct {
	Summary         string
	Observations    []string
	ConfidenceLevel string // High, Medium, or Low
	Factors         costadjust.Assessment
}

// ParseVerdict reads the model's JSON reply. The reply may be wrapped in
// markdown code fences and the factor values may arrive as numbers or
// strings; factors that fail to coerce are left absent so they compose
// as neutral. An error means the reply was not usable JSON at all.
func ParseVerdict(raw string) (*Verdict, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, errors.New("empty model response")
	}

	var decoded struct {
		Summary      any            `json:"summary"`
		Observations []any          `json:"observations"`
		Confidence   any            `json:"confidence"`
		Factors      map[string]any `json:"factors"`
	}
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("decode verdict json: %w", err)
	}

	verdict := &Verdict{
		Summary:         coerceString(decoded.Summary),
		ConfidenceLevel: normalizeConfidenceLevel(coerceString(decoded.Confidence)),
	}
	for _, item := range decoded.Observations {
		if text := coerceString(item); text != "" {
			verdict.Observations = append(verdict.Observations, text)
		}
	}
	verdict.Factors = assessmentFromFactors(decoded.Factors)

	return verdict, nil
}

func assessmentFromFactors(factors map[string]any) costadjust.Assessment {
	return costadjust.Assessment{
		Complexity:      factorFrom(factors, "complexity"),
		Condition:       factorFrom(factors, "condition"),
		Access:          factorFrom(factors, "access"),
		MaterialQuality: factorFrom(factors, "materialQuality", "material_quality"),
	}
}

// factorFrom looks the factor up under each key in turn and coerces the
// first value found. Missing or non-numeric values stay absent.
func factorFrom(factors map[string]any, keys ...string) costadjust.OptionalFactor {
	for _, key := range keys {
		value, ok := factors[key]
		if !ok || value == nil {
			continue
		}
		f := coerceFloat(value)
		if math.IsNaN(f) {
			continue
		}
		return costadjust.Factor(f)
	}
	return costadjust.OptionalFactor{}
}

// normalizeConfidenceLevel maps the model's free-text confidence onto the
// three levels the rest of the system understands.
func normalizeConfidenceLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "high", "hoog":
		return "High"
	case "low", "laag":
		return "Low"
	default:
		return "Medium"
	}
}

// extractJSON strips markdown code fences that models like to wrap their
// JSON replies in.
func extractJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
	}
	return strings.TrimSpace(cleaned)
}

// coerceFloat reads a duck-typed JSON value as a float64. NaN signals
// that the value could not be read as a number.
func coerceFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
