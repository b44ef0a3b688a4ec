package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"journeyon_backend/internal/tags/repository"
	"journeyon_backend/internal/tags/service"
	"journeyon_backend/platform/httpkit"
	"journeyon_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// CreateTagRequest is the payload for POST /user-tags.
type CreateTagRequest struct {
	Tag          string   `json:"tag" validate:"required,max=64"`
	Weight       *float64 `json:"weight,omitempty" validate:"omitempty,min=0"`
	SourceTripID *int64   `json:"source_trip_id,omitempty" validate:"omitempty,min=1"`
}

// UpdateTagRequest is the payload for PATCH /user-tags/:tagId.
type UpdateTagRequest struct {
	Tag          *string  `json:"tag,omitempty" validate:"omitempty,max=64"`
	Weight       *float64 `json:"weight,omitempty" validate:"omitempty,min=0"`
	SourceTripID *int64   `json:"source_trip_id,omitempty" validate:"omitempty,min=1"`
}

// UpsertTagItem is one entry of POST /user-tags/bulk-upsert.
type UpsertTagItem struct {
	Tag          string   `json:"tag"`
	Weight       *float64 `json:"weight,omitempty"`
	SourceTripID *int64   `json:"source_trip_id,omitempty"`
}

// Handler exposes user preference tags over HTTP.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// NewHandler creates a tag handler.
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

// Create handles POST /user-tags.
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tag, err := h.svc.Create(c.Request.Context(), repository.CreateParams{
		UserID:       identity.UserID(),
		Tag:          req.Tag,
		Weight:       req.Weight,
		SourceTripID: req.SourceTripID,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// List handles GET /user-tags.
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	filter := repository.ListFilter{Tag: c.Query("tag")}
	if raw := c.Query("source_trip_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			httpkit.Error(c, http.StatusBadRequest, "invalid source_trip_id", nil)
			return
		}
		filter.SourceTripID = id
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			httpkit.Error(c, http.StatusBadRequest, "invalid offset", nil)
			return
		}
		filter.Offset = offset
	}

	tags, err := h.svc.List(c.Request.Context(), identity.UserID(), filter)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"tags": tags, "count": len(tags)})
}

// Update handles PATCH /user-tags/:tagId.
func (h *Handler) Update(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tagID, ok := parseID(c, "tagId")
	if !ok {
		return
	}

	var req UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tag, err := h.svc.Update(c.Request.Context(), tagID, identity.UserID(), repository.UpdateParams{
		Tag:          req.Tag,
		Weight:       req.Weight,
		SourceTripID: req.SourceTripID,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, tag)
}

// Delete handles DELETE /user-tags/:tagId.
func (h *Handler) Delete(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tagID, ok := parseID(c, "tagId")
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), tagID, identity.UserID())) {
		return
	}
	c.Status(http.StatusNoContent)
}

// BulkUpsert handles POST /user-tags/bulk-upsert.
func (h *Handler) BulkUpsert(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req []UpsertTagItem
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	items := make([]repository.UpsertItem, 0, len(req))
	for _, item := range req {
		items = append(items, repository.UpsertItem{
			Tag:          item.Tag,
			Weight:       item.Weight,
			SourceTripID: item.SourceTripID,
		})
	}

	tags, err := h.svc.BulkUpsert(c.Request.Context(), identity.UserID(), items)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"tags": tags, "count": len(tags)})
}
