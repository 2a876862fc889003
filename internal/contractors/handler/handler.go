package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"renoquote_backend/internal/contractors/service"
	"renoquote_backend/internal/contractors/transport"
	"renoquote_backend/platform/httpkit"
	"renoquote_backend/platform/validator"
)

// Handler handles HTTP requests for contractor search.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new contractors handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SearchContractors returns a ranked contractor shortlist.
// GET /api/v1/contractors/search
func (h *Handler) SearchContractors(c *gin.Context) {
	var req transport.SearchContractorsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Search(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
