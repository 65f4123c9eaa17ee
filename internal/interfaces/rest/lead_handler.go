package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/internal/domain/models"
)

// LeadHandler serves leads and their conversion into deals.
type LeadHandler struct {
	svc *services.ServiceManager
}

func NewLeadHandler(svc *services.ServiceManager) *LeadHandler {
	return &LeadHandler{svc: svc}
}

func (h *LeadHandler) ListLeads(c *gin.Context) {
	HandleGetEnvelope(c, "leads", func() (interface{}, error) {
		return h.svc.Leads.ListLeads(c.Request.Context(), GetTenantID(c), c.Query("status"))
	})
}

func (h *LeadHandler) GetLead(c *gin.Context) {
	HandleGetEnvelope(c, "lead", func() (interface{}, error) {
		return h.svc.Leads.GetLead(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

func (h *LeadHandler) CreateLead(c *gin.Context) {
	var body models.Lead
	if !BindJSON(c, &body) {
		return
	}
	HandleCreateEnvelope(c, "lead", "Lead created", func() (interface{}, error) {
		return h.svc.Leads.FlagLead(c.Request.Context(), GetTenantID(c), &body)
	})
}

func (h *LeadHandler) UpdateLead(c *gin.Context) {
	var body models.Lead
	if !BindJSON(c, &body) {
		return
	}
	HandleUpdateEnvelope(c, "lead", "Lead updated", func() (interface{}, error) {
		return h.svc.Leads.UpdateLead(c.Request.Context(), GetTenantID(c), c.Param("id"), &body)
	})
}

func (h *LeadHandler) DeleteLead(c *gin.Context) {
	HandleDeleteEnvelope(c, "Lead deleted", func() error {
		return h.svc.Leads.DeleteLead(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

// Convert handles POST /api/leads/:id/convert
func (h *LeadHandler) Convert(c *gin.Context) {
	var req services.ConvertRequest
	if !BindJSON(c, &req) {
		return
	}
	user := GetUserFromContext(c)

	HandleCreateEnvelope(c, "deal", "Lead converted", func() (interface{}, error) {
		return h.svc.Leads.Convert(c.Request.Context(), GetTenantID(c), user.ID, c.Param("id"), req)
	})
}
