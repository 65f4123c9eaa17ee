package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/internal/domain/models"
)

// CurrencyHandler serves the global currency table. Writes are restricted
// to super users at the route level.
type CurrencyHandler struct {
	svc *services.ServiceManager
}

func NewCurrencyHandler(svc *services.ServiceManager) *CurrencyHandler {
	return &CurrencyHandler{svc: svc}
}

func (h *CurrencyHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "currencies", func() (interface{}, error) {
		return h.svc.Currency.List(c.Request.Context())
	})
}

func (h *CurrencyHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "currency", func() (interface{}, error) {
		return h.svc.Currency.Get(c.Request.Context(), c.Param("code"))
	})
}

func (h *CurrencyHandler) Upsert(c *gin.Context) {
	var body models.Currency
	if !BindJSON(c, &body) {
		return
	}
	HandleUpdateEnvelope(c, "currency", "Currency saved", func() (interface{}, error) {
		return h.svc.Currency.Upsert(c.Request.Context(), &body)
	})
}

func (h *CurrencyHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Currency deleted", func() error {
		return h.svc.Currency.Delete(c.Request.Context(), c.Param("code"))
	})
}
