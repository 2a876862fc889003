package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"renoquote_backend/internal/analysis/service"
	"renoquote_backend/internal/analysis/transport"
	"renoquote_backend/platform/httpkit"
	"renoquote_backend/platform/validator"
)

// Handler handles HTTP requests for photo analysis.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid analysis id"
	msgNoPhotos         = "no photos received"

	multipartMemoryLimit = 32 << 20
)

// New creates a new analysis handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// AnalyzePhotos stores the uploaded photos and runs the vision
// assessment.
// POST /api/v1/analysis/photos
func (h *Handler) AnalyzePhotos(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(multipartMemoryLimit); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unable to parse multipart form", nil)
		return
	}

	req := transport.AnalyzePhotosRequest{
		ServiceType: c.PostForm("serviceType"),
		Description: c.PostForm("description"),
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	photos, ok := h.collectPhotos(c)
	if !ok {
		return
	}
	req.Photos = photos

	result, err := h.svc.Analyze(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// GetAnalysis returns a stored analysis with fresh photo URLs.
// GET /api/v1/analysis/photos/:id
func (h *Handler) GetAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetAnalysis(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) collectPhotos(c *gin.Context) ([]transport.PhotoUpload, bool) {
	form := c.Request.MultipartForm
	if form == nil || len(form.File) == 0 {
		httpkit.Error(c, http.StatusBadRequest, msgNoPhotos, nil)
		return nil, false
	}

	maxBytes := h.svc.MaxUploadBytes()

	var photos []transport.PhotoUpload
	for _, fileHeaders := range form.File {
		for _, fh := range fileHeaders {
			f, err := fh.Open()
			if err != nil {
				continue
			}

			reader := io.Reader(f)
			if maxBytes > 0 {
				reader = io.LimitReader(f, maxBytes+1)
			}
			data, err := io.ReadAll(reader)
			_ = f.Close()
			if err != nil {
				httpkit.Error(c, http.StatusBadRequest, "unable to read uploaded photo", fh.Filename)
				return nil, false
			}

			photos = append(photos, transport.PhotoUpload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				SizeBytes:   int64(len(data)),
				Data:        data,
			})
		}
	}

	if len(photos) == 0 {
		httpkit.Error(c, http.StatusBadRequest, msgNoPhotos, nil)
		return nil, false
	}
	return photos, true
}
