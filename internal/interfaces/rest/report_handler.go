package rest

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
)

// ReportHandler serves canned reports and the super-user SQL endpoint.
type ReportHandler struct {
	svc *services.ServiceManager
}

func NewReportHandler(svc *services.ServiceManager) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) DealPipeline(c *gin.Context) {
	HandleGetEnvelope(c, "rows", func() (interface{}, error) {
		return h.svc.Reports.DealPipeline(c.Request.Context(), GetTenantID(c))
	})
}

func (h *ReportHandler) RevenueByMonth(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("months", "12"))
	if err != nil || months < 1 || months > 60 {
		months = 12
	}
	HandleGetEnvelope(c, "rows", func() (interface{}, error) {
		return h.svc.Reports.RevenueByMonth(c.Request.Context(), GetTenantID(c), months)
	})
}

func (h *ReportHandler) OverduePayments(c *gin.Context) {
	HandleGetEnvelope(c, "rows", func() (interface{}, error) {
		return h.svc.Reports.OverduePayments(c.Request.Context(), GetTenantID(c))
	})
}

type AdminQueryRequest struct {
	SQL    string        `json:"sql" binding:"required"`
	Params []interface{} `json:"params"`
}

// RunQuery handles POST /api/reports/query (super users only).
func (h *ReportHandler) RunQuery(c *gin.Context) {
	var req AdminQueryRequest
	if !BindJSON(c, &req) {
		return
	}
	user := GetUserFromContext(c)

	HandleGetEnvelope(c, "rows", func() (interface{}, error) {
		return h.svc.Reports.RunAdminQuery(c.Request.Context(), GetTenantID(c), user.ID, req.SQL, req.Params)
	})
}
