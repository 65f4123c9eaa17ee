package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/internal/domain/models"
)

// DealHandler serves the deal pipeline.
type DealHandler struct {
	svc *services.ServiceManager
}

func NewDealHandler(svc *services.ServiceManager) *DealHandler {
	return &DealHandler{svc: svc}
}

func (h *DealHandler) ListDeals(c *gin.Context) {
	HandleGetEnvelope(c, "deals", func() (interface{}, error) {
		return h.svc.Deals.ListDeals(c.Request.Context(), GetTenantID(c),
			c.Query("stage"), c.Query("company_id"), c.Query("q"))
	})
}

func (h *DealHandler) GetDeal(c *gin.Context) {
	HandleGetEnvelope(c, "deal", func() (interface{}, error) {
		return h.svc.Deals.GetDeal(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

func (h *DealHandler) CreateDeal(c *gin.Context) {
	var body models.Deal
	if !BindJSON(c, &body) {
		return
	}
	user := GetUserFromContext(c)

	HandleCreateEnvelope(c, "deal", "Deal created", func() (interface{}, error) {
		return h.svc.Deals.CreateDeal(c.Request.Context(), GetTenantID(c), user.ID, &body)
	})
}

func (h *DealHandler) UpdateDeal(c *gin.Context) {
	var body models.Deal
	if !BindJSON(c, &body) {
		return
	}
	HandleUpdateEnvelope(c, "deal", "Deal updated", func() (interface{}, error) {
		return h.svc.Deals.UpdateDeal(c.Request.Context(), GetTenantID(c), c.Param("id"), &body)
	})
}

func (h *DealHandler) DeleteDeal(c *gin.Context) {
	HandleDeleteEnvelope(c, "Deal deleted", func() error {
		return h.svc.Deals.DeleteDeal(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

type MoveStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// MoveStage handles PUT /api/deals/:id/stage
func (h *DealHandler) MoveStage(c *gin.Context) {
	var req MoveStageRequest
	if !BindJSON(c, &req) {
		return
	}
	user := GetUserFromContext(c)

	HandleUpdateEnvelope(c, "deal", "Stage updated", func() (interface{}, error) {
		return h.svc.Deals.MoveStage(c.Request.Context(), GetTenantID(c), user.ID, c.Param("id"), req.Stage)
	})
}

// CloseWon handles POST /api/deals/:id/close
func (h *DealHandler) CloseWon(c *gin.Context) {
	var req services.CloseWonRequest
	if !BindJSON(c, &req) {
		return
	}
	user := GetUserFromContext(c)

	HandleCreateEnvelope(c, "result", "Deal won", func() (interface{}, error) {
		return h.svc.Deals.CloseWon(c.Request.Context(), GetTenantID(c), user.ID, c.Param("id"), req)
	})
}
