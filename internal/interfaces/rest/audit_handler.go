package rest

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
)

// AuditHandler serves the per-entity audit trail.
type AuditHandler struct {
	svc *services.ServiceManager
}

func NewAuditHandler(svc *services.ServiceManager) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// ListForEntity handles GET /api/audit/:entityType/:entityId
func (h *AuditHandler) ListForEntity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	HandleGetEnvelope(c, "entries", func() (interface{}, error) {
		return h.svc.Audit.ListForEntity(c.Request.Context(), GetTenantID(c),
			c.Param("entityType"), c.Param("entityId"), limit)
	})
}
