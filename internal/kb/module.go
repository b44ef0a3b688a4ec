package kb

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/platform/httpkit"
	"journeyon_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// CreateEntryRequest is the payload for POST /trips/:id/kb-entries.
type CreateEntryRequest struct {
	Source  *string        `json:"source,omitempty" validate:"omitempty,max=64"`
	Title   *string        `json:"title,omitempty" validate:"omitempty,max=255"`
	Content *string        `json:"content,omitempty"`
	Meta    map[string]any `json:"metadata,omitempty"`
}

// UpdateEntryRequest is the payload for PATCH /trips/:id/kb-entries/:entryId.
type UpdateEntryRequest struct {
	Source  *string        `json:"source,omitempty" validate:"omitempty,max=64"`
	Title   *string        `json:"title,omitempty" validate:"omitempty,max=255"`
	Content *string        `json:"content,omitempty"`
	Meta    map[string]any `json:"metadata,omitempty"`
}

// Module bundles the trip knowledge base feature.
type Module struct {
	repo Repository
	val  *validator.Validator
}

var _ apphttp.Module = (*Module)(nil)

// NewModule wires the knowledge base module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	return &Module{repo: NewRepo(pool), val: val}
}

// Name returns the module name.
func (m *Module) Name() string { return "kb" }

// RegisterRoutes mounts the knowledge base endpoints under the trip resource.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/trips/:id/kb-entries")
	group.POST("", m.create)
	group.GET("", m.list)
	group.PATCH("/:entryId", m.update)
	group.DELETE("/:entryId", m.remove)
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		httpkit.Error(c, http.StatusBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func (m *Module) create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := m.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	entry, err := m.repo.Create(c.Request.Context(), CreateParams{
		TripID:  tripID,
		UserID:  identity.UserID(),
		Source:  req.Source,
		Title:   req.Title,
		Content: req.Content,
		Meta:    req.Meta,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, entry)
}

func (m *Module) list(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}

	entries, err := m.repo.ListByTrip(c.Request.Context(), tripID, identity.UserID(), c.Query("source"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"entries": entries, "count": len(entries)})
}

func (m *Module) update(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	entryID, ok := parseID(c, "entryId")
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := m.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	entry, err := m.repo.Update(c.Request.Context(), entryID, identity.UserID(), UpdateParams{
		Source:  req.Source,
		Title:   req.Title,
		Content: req.Content,
		Meta:    req.Meta,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, entry)
}

func (m *Module) remove(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	entryID, ok := parseID(c, "entryId")
	if !ok {
		return
	}

	if err := m.repo.Delete(c.Request.Context(), entryID, identity.UserID()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
