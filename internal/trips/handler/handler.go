package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"journeyon_backend/internal/trips/domain"
	"journeyon_backend/internal/trips/service"
	"journeyon_backend/internal/trips/transport"
	"journeyon_backend/platform/httpkit"
	"journeyon_backend/platform/validator"
)

// Handler handles HTTP requests for trips and their stage lifecycle.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidTripID    = "invalid trip ID"
)

// New creates a new trips handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func tripIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTripID, nil)
		return 0, false
	}
	return id, true
}

// Create creates a trip and initializes its three stage rows.
// POST /api/v1/trips
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	params, err := req.ToParams(identity.UserID())
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid start_date", nil)
		return
	}

	trip, err := h.svc.Create(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.FromTrip(trip))
}

// List retrieves the caller's trips, newest first.
// GET /api/v1/trips
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	trips, err := h.svc.List(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.TripResponse, 0, len(trips))
	for _, t := range trips {
		items = append(items, transport.FromTrip(t))
	}
	httpkit.OK(c, items)
}

// Get retrieves a single trip.
// GET /api/v1/trips/:id
func (h *Handler) Get(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	trip, err := h.svc.Get(c.Request.Context(), tripID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromTrip(trip))
}

// ListStages retrieves the trip's stage rows in canonical order.
// GET /api/v1/trips/:id/stages
func (h *Handler) ListStages(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	stages, err := h.svc.ListStages(c.Request.Context(), tripID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.StageResponse, 0, len(stages))
	for _, s := range stages {
		items = append(items, transport.FromStage(s))
	}
	httpkit.OK(c, items)
}

// AdvanceStage advances a trip one stage forward, to an optional explicit
// target or to the stage after the current one.
// POST /api/v1/trips/:id/advance-stage
func (h *Handler) AdvanceStage(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.AdvanceStageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	userID := identity.UserID()

	if req.ToStage != nil {
		target, err := domain.ParseStage(*req.ToStage)
		if httpkit.HandleError(c, err) {
			return
		}
		result, err := h.svc.Advance(ctx, tripID, userID, target)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, transport.FromAdvanceResult(result))
		return
	}

	result, err := h.svc.AdvanceNext(ctx, tripID, userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromAdvanceResult(result))
}

// UpdateStageStatus updates the status of one stage row.
// PATCH /api/v1/trips/:id/stages/:stageName
func (h *Handler) UpdateStageStatus(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.UpdateStageStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	row, err := h.svc.UpdateStageStatus(c.Request.Context(), tripID, identity.UserID(), c.Param("stageName"), req.NewStatus)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromStage(row))
}

// Archive drives a trip to post and marks it archived.
// POST /api/v1/trips/:id/archive
func (h *Handler) Archive(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	trip, err := h.svc.Archive(c.Request.Context(), tripID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromTrip(trip))
}
