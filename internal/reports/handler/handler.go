package handler

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"journeyon_backend/internal/reports/service"
	"journeyon_backend/platform/httpkit"
	"journeyon_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// UploadReportRequest carries a base64-encoded report file.
type UploadReportRequest struct {
	Filename    string         `json:"filename" validate:"required,max=255"`
	ContentType *string        `json:"content_type,omitempty" validate:"omitempty,max=128"`
	Data        string         `json:"data" validate:"required"`
	Format      *string        `json:"format,omitempty" validate:"omitempty,max=32"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Handler exposes trip reports over HTTP.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// NewHandler creates a report handler.
func NewHandler(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		httpkit.Error(c, http.StatusBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

// Upload handles POST /trips/:id/reports.
func (h *Handler) Upload(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UploadReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid_base64", nil)
		return
	}

	report, err := h.svc.Upload(c.Request.Context(), service.UploadParams{
		TripID:      tripID,
		UserID:      identity.UserID(),
		Filename:    req.Filename,
		Format:      req.Format,
		ContentType: req.ContentType,
		Data:        data,
		Meta:        req.Meta,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, report)
}

// List handles GET /trips/:id/reports.
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}

	reports, err := h.svc.ListByTrip(c.Request.Context(), tripID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"reports": reports, "count": len(reports)})
}

// Get handles GET /trips/:id/reports/:reportId.
func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	reportID, ok := parseID(c, "reportId")
	if !ok {
		return
	}

	report, err := h.svc.Get(c.Request.Context(), reportID, tripID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, report)
}

// Download handles GET /trips/:id/reports/:reportId/download and streams the
// file content.
func (h *Handler) Download(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	reportID, ok := parseID(c, "reportId")
	if !ok {
		return
	}

	report, reader, err := h.svc.Open(c.Request.Context(), reportID, tripID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	defer reader.Close()

	contentType := "application/octet-stream"
	if report.ContentType != nil && *report.ContentType != "" {
		contentType = *report.ContentType
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.DataFromReader(http.StatusOK, report.FileSize, contentType, reader, nil)
}

// PresignDownload handles GET /trips/:id/reports/:reportId/download-url.
func (h *Handler) PresignDownload(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	reportID, ok := parseID(c, "reportId")
	if !ok {
		return
	}

	presigned, err := h.svc.PresignDownload(c.Request.Context(), reportID, tripID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, presigned)
}

// Delete handles DELETE /trips/:id/reports/:reportId.
func (h *Handler) Delete(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	reportID, ok := parseID(c, "reportId")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), reportID, tripID, identity.UserID()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
