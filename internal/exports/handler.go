package exports

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	contractorrepo "renoquote_backend/internal/contractors/repository"
	estimaterepo "renoquote_backend/internal/estimates/repository"
	"renoquote_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	dateLayout      = "2006-01-02"
	defaultLookback = 90 // days
)

// Handler handles estimate export requests.
type Handler struct {
	keys      *Repository
	estimates *estimaterepo.Repository
	searches  *contractorrepo.Repository
}

// NewHandler creates a new export handler.
func NewHandler(keys *Repository, estimates *estimaterepo.Repository, searches *contractorrepo.Repository) *Handler {
	return &Handler{keys: keys, estimates: estimates, searches: searches}
}

// ExportEstimatesCSV streams anonymized estimate rows as CSV. Contact
// details never appear in the export; only the salted digest does, which
// is enough for downstream conversion matching.
func (h *Handler) ExportEstimatesCSV(c *gin.Context) {
	if keyID, ok := getExportKeyID(c); ok {
		h.keys.TouchAPIKey(c.Request.Context(), keyID)
	}

	since, err := parseSince(c)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid since date", err.Error())
		return
	}
	limit := parseLimit(c, 5000, 50000)

	estimates, err := h.estimates.ListCreatedSince(c.Request.Context(), since, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=estimates.csv")

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(csvHeaders()); err != nil {
		return
	}
	for _, est := range estimates {
		if err := writer.Write(estimateCSVRow(est)); err != nil {
			return
		}
	}
	writer.Flush()
}

// ExportSearchMisses reports trade/location pairs that repeatedly
// produced an empty shortlist, for directory coverage planning.
// GET /api/v1/exports/search-misses
func (h *Handler) ExportSearchMisses(c *gin.Context) {
	if keyID, ok := getExportKeyID(c); ok {
		h.keys.TouchAPIKey(c.Request.Context(), keyID)
	}

	lookbackDays := parseIntQuery(c, "days", 14, 365)
	minCount := parseIntQuery(c, "minCount", 3, 1000)
	limit := parseIntQuery(c, "limit", 25, 200)

	misses, err := h.searches.ListFrequentSearchMisses(c.Request.Context(), lookbackDays, minCount, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"items":    misses,
		"days":     lookbackDays,
		"minCount": minCount,
	})
}

func csvHeaders() []string {
	return []string{
		"Estimate ID",
		"Created At",
		"Category",
		"Service Type",
		"Urgency",
		"Province",
		"City",
		"Description",
		"Low (EUR)",
		"High (EUR)",
		"Adjustment",
		"Confidence",
		"Degraded",
		"Contact Digest",
		"Expires At",
	}
}

func estimateCSVRow(est estimaterepo.Estimate) []string {
	digest := ""
	if est.ContactDigest != nil {
		digest = *est.ContactDigest
	}
	city := ""
	if est.City != nil {
		city = *est.City
	}
	description := ""
	if est.Description != nil {
		description = *est.Description
	}

	return []string{
		est.ID.String(),
		est.CreatedAt.UTC().Format(time.RFC3339),
		est.Category,
		est.ServiceType,
		est.Urgency,
		est.Province,
		city,
		description,
		formatEuros(est.LowCents),
		formatEuros(est.HighCents),
		strconv.FormatFloat(est.Adjustment, 'f', 2, 64),
		strconv.Itoa(est.Confidence),
		strconv.FormatBool(est.Degraded),
		digest,
		est.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func formatEuros(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}

func getExportKeyID(c *gin.Context) (uuid.UUID, bool) {
	keyIDVal, _ := c.Get(exportKeyContextKey)
	keyID, ok := keyIDVal.(uuid.UUID)
	return keyID, ok
}

func parseSince(c *gin.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("since"))
	if raw == "" {
		return time.Now().UTC().AddDate(0, 0, -defaultLookback), nil
	}
	return time.Parse(dateLayout, raw)
}

func parseLimit(c *gin.Context, fallback int, max int) int {
	return parseIntQuery(c, "limit", fallback, max)
}

func parseIntQuery(c *gin.Context, name string, fallback int, max int) int {
	value := fallback
	if raw := strings.TrimSpace(c.Query(name)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			value = parsed
		}
	}
	if value > max {
		return max
	}
	if value < 1 {
		return fallback
	}
	return value
}
