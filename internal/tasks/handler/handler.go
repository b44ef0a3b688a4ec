package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"journeyon_backend/internal/tasks/repository"
	"journeyon_backend/internal/tasks/service"
	"journeyon_backend/platform/httpkit"
	"journeyon_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// CreateTaskRequest is the payload for POST /trips/:id/tasks.
type CreateTaskRequest struct {
	Stage       string         `json:"stage" validate:"required,oneof=pre on post"`
	Title       string         `json:"title" validate:"required,max=255"`
	Description *string        `json:"description,omitempty"`
	Priority    int            `json:"priority,omitempty"`
	AssignedTo  *string        `json:"assigned_to,omitempty"`
	DueDate     *string        `json:"due_date,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// UpdateTaskRequest is the payload for PATCH /trips/:id/tasks/:taskId.
type UpdateTaskRequest struct {
	Title       *string        `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string        `json:"description,omitempty"`
	Status      *string        `json:"status,omitempty"`
	Priority    *int           `json:"priority,omitempty"`
	AssignedTo  *string        `json:"assigned_to,omitempty"`
	DueDate     *string        `json:"due_date,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Handler exposes trip tasks over HTTP.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// NewHandler creates a task handler.
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

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Create handles POST /trips/:id/tasks.
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid due_date", nil)
		return
	}

	priority := req.Priority
	if priority == 0 {
		priority = 1
	}

	task, err := h.svc.Create(c.Request.Context(), repository.CreateParams{
		TripID:      tripID,
		UserID:      identity.UserID(),
		Stage:       req.Stage,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		AssignedTo:  req.AssignedTo,
		DueDate:     dueDate,
		Meta:        req.Meta,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, task)
}

// List handles GET /trips/:id/tasks.
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}

	tasks, err := h.svc.ListByTrip(c.Request.Context(), tripID, identity.UserID(), c.Query("stage"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"tasks": tasks, "count": len(tasks)})
}

// Update handles PATCH /trips/:id/tasks/:taskId.
func (h *Handler) Update(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	taskID, ok := parseID(c, "taskId")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid due_date", nil)
		return
	}

	task, err := h.svc.Update(c.Request.Context(), taskID, identity.UserID(), repository.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		DueDate:     dueDate,
		Meta:        req.Meta,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, task)
}

// Delete handles DELETE /trips/:id/tasks/:taskId.
func (h *Handler) Delete(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	taskID, ok := parseID(c, "taskId")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), taskID, identity.UserID()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
