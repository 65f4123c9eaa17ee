package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/internal/domain/models"
)

// BillingHandler serves contracts, payment terms, and their to-dos.
type BillingHandler struct {
	svc *services.ServiceManager
}

func NewBillingHandler(svc *services.ServiceManager) *BillingHandler {
	return &BillingHandler{svc: svc}
}

// --- Contracts ---

func (h *BillingHandler) ListContracts(c *gin.Context) {
	HandleGetEnvelope(c, "contracts", func() (interface{}, error) {
		return h.svc.Payments.ListContracts(c.Request.Context(), GetTenantID(c), c.Query("company_id"))
	})
}

func (h *BillingHandler) GetContract(c *gin.Context) {
	HandleGetEnvelope(c, "contract", func() (interface{}, error) {
		return h.svc.Payments.GetContract(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

func (h *BillingHandler) UpdateContract(c *gin.Context) {
	var body models.Contract
	if !BindJSON(c, &body) {
		return
	}
	HandleUpdateEnvelope(c, "contract", "Contract updated", func() (interface{}, error) {
		return h.svc.Payments.UpdateContract(c.Request.Context(), GetTenantID(c), c.Param("id"), &body)
	})
}

func (h *BillingHandler) DeleteContract(c *gin.Context) {
	HandleDeleteEnvelope(c, "Contract deleted", func() error {
		return h.svc.Payments.DeleteContract(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

// --- Payment terms ---

func (h *BillingHandler) ListPaymentTerms(c *gin.Context) {
	HandleGetEnvelope(c, "payment_terms", func() (interface{}, error) {
		return h.svc.Payments.ListPaymentTerms(c.Request.Context(), GetTenantID(c),
			c.Query("contract_id"), c.Query("stage"))
	})
}

// GetPaymentTerm also triggers the stage recommendation cascade.
func (h *BillingHandler) GetPaymentTerm(c *gin.Context) {
	user := GetUserFromContext(c)
	HandleGetEnvelope(c, "payment_term", func() (interface{}, error) {
		return h.svc.Payments.GetPaymentTerm(c.Request.Context(), GetTenantID(c), user.ID, c.Param("id"))
	})
}

func (h *BillingHandler) CreatePaymentTerm(c *gin.Context) {
	var body models.PaymentTerm
	if !BindJSON(c, &body) {
		return
	}
	HandleCreateEnvelope(c, "payment_term", "Payment term created", func() (interface{}, error) {
		return h.svc.Payments.AddPaymentTerm(c.Request.Context(), GetTenantID(c), &body)
	})
}

func (h *BillingHandler) UpdatePaymentTerm(c *gin.Context) {
	var body models.PaymentTerm
	if !BindJSON(c, &body) {
		return
	}
	user := GetUserFromContext(c)

	HandleUpdateEnvelope(c, "payment_term", "Payment term updated", func() (interface{}, error) {
		return h.svc.Payments.UpdatePaymentTerm(c.Request.Context(), GetTenantID(c), user.ID, c.Param("id"), &body)
	})
}

func (h *BillingHandler) DeletePaymentTerm(c *gin.Context) {
	HandleDeleteEnvelope(c, "Payment term deleted", func() error {
		return h.svc.Payments.DeletePaymentTerm(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

// --- To-dos ---

func (h *BillingHandler) ListTodos(c *gin.Context) {
	HandleGetEnvelope(c, "todos", func() (interface{}, error) {
		return h.svc.Payments.ListTodos(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

type AddTodoRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *BillingHandler) AddTodo(c *gin.Context) {
	var req AddTodoRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleCreateEnvelope(c, "todo", "Todo created", func() (interface{}, error) {
		return h.svc.Payments.AddTodo(c.Request.Context(), GetTenantID(c), c.Param("id"), req.Title)
	})
}

type SetTodoDoneRequest struct {
	Done *bool `json:"done" binding:"required"`
}

// SetTodoDone handles PUT /api/todos/:id
func (h *BillingHandler) SetTodoDone(c *gin.Context) {
	var req SetTodoDoneRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleDeleteEnvelope(c, "Todo updated", func() error {
		return h.svc.Payments.SetTodoDone(c.Request.Context(), GetTenantID(c), c.Param("id"), *req.Done)
	})
}

func (h *BillingHandler) DeleteTodo(c *gin.Context) {
	HandleDeleteEnvelope(c, "Todo deleted", func() error {
		return h.svc.Payments.DeleteTodo(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}
