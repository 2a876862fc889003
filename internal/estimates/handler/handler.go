package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"renoquote_backend/internal/estimates/service"
	"renoquote_backend/internal/estimates/transport"
	"renoquote_backend/platform/httpkit"
	"renoquote_backend/platform/validator"
)

// Handler handles HTTP requests for estimates.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid estimate id"
)

// New creates a new estimates handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateEstimate prices a job request and returns the shareable result.
// POST /api/v1/estimates
func (h *Handler) CreateEstimate(c *gin.Context) {
	var req transport.CreateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateEstimate(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// GetEstimate retrieves an estimate by ID.
// GET /api/v1/estimates/:id
func (h *Handler) GetEstimate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetEstimate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetEstimateQR renders the share link as a PNG QR code.
// GET /api/v1/estimates/:id/qr
func (h *Handler) GetEstimateQR(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	png, err := h.svc.ShareQR(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// GetSharedEstimate resolves a share token to its read-only view.
// GET /api/v1/shared/estimates/:token
func (h *Handler) GetSharedEstimate(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetSharedEstimate(c.Request.Context(), token)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
