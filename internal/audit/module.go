package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/platform/httpkit"
)

// Module bundles the audit trail read API.
type Module struct {
	reader Reader
}

var _ apphttp.Module = (*Module)(nil)

// NewModule wires the audit module.
func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{reader: NewRepo(pool)}
}

// Name returns the module name.
func (m *Module) Name() string { return "audit" }

// RegisterRoutes mounts the audit endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/audit-logs", m.list)
}

func (m *Module) list(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var filter Filter
	if raw := c.Query("trip_id"); raw != "" {
		tripID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tripID < 1 {
			httpkit.Error(c, http.StatusBadRequest, "invalid trip_id", nil)
			return
		}
		filter.TripID = tripID
	}
	filter.Action = c.Query("action")
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			httpkit.Error(c, http.StatusBadRequest, "limit must be between 1 and 500", nil)
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

	entries, err := m.reader.List(c.Request.Context(), identity.UserID(), filter)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"logs": entries, "count": len(entries)})
}
