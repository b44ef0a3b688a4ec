package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"journeyon_backend/internal/itinerary/repository"
	"journeyon_backend/internal/itinerary/service"
	"journeyon_backend/platform/httpkit"
	"journeyon_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// CreateItemRequest is the payload for POST /trips/:id/itinerary.
type CreateItemRequest struct {
	Day       int      `json:"day" validate:"required,min=1"`
	StartTime *string  `json:"start_time,omitempty" validate:"omitempty,max=32"`
	EndTime   *string  `json:"end_time,omitempty" validate:"omitempty,max=32"`
	Kind      *string  `json:"kind,omitempty" validate:"omitempty,max=32"`
	Title     *string  `json:"title,omitempty" validate:"omitempty,max=255"`
	Location  *string  `json:"location,omitempty" validate:"omitempty,max=255"`
	Lat       *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng       *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
	Details   *string  `json:"details,omitempty"`
}

// UpdateItemRequest is the payload for PATCH /trips/:id/itinerary/:itemId.
type UpdateItemRequest struct {
	Day       *int     `json:"day,omitempty" validate:"omitempty,min=1"`
	StartTime *string  `json:"start_time,omitempty" validate:"omitempty,max=32"`
	EndTime   *string  `json:"end_time,omitempty" validate:"omitempty,max=32"`
	Kind      *string  `json:"kind,omitempty" validate:"omitempty,max=32"`
	Title     *string  `json:"title,omitempty" validate:"omitempty,max=255"`
	Location  *string  `json:"location,omitempty" validate:"omitempty,max=255"`
	Lat       *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng       *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
	Details   *string  `json:"details,omitempty"`
}

// Handler exposes the trip day plan over HTTP.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// NewHandler creates an itinerary handler.
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

// Create handles POST /trips/:id/itinerary.
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	item, err := h.svc.Create(c.Request.Context(), repository.CreateParams{
		TripID:    tripID,
		UserID:    identity.UserID(),
		Day:       req.Day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Kind:      req.Kind,
		Title:     req.Title,
		Location:  req.Location,
		Lat:       req.Lat,
		Lng:       req.Lng,
		Details:   req.Details,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, item)
}

// List handles GET /trips/:id/itinerary. Supports an optional day filter.
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}

	day := 0
	if raw := c.Query("day"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httpkit.Error(c, http.StatusBadRequest, "invalid day", nil)
			return
		}
		day = parsed
	}

	items, err := h.svc.ListByTrip(c.Request.Context(), tripID, identity.UserID(), day)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items, "count": len(items)})
}

// Update handles PATCH /trips/:id/itinerary/:itemId.
func (h *Handler) Update(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	item, err := h.svc.Update(c.Request.Context(), itemID, identity.UserID(), repository.UpdateParams{
		Day:       req.Day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Kind:      req.Kind,
		Title:     req.Title,
		Location:  req.Location,
		Lat:       req.Lat,
		Lng:       req.Lng,
		Details:   req.Details,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, item)
}

// Delete handles DELETE /trips/:id/itinerary/:itemId.
func (h *Handler) Delete(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), itemID, identity.UserID()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
