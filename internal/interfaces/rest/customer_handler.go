package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/internal/domain/models"
)

// CustomerHandler serves customers and projects.
type CustomerHandler struct {
	svc *services.ServiceManager
}

func NewCustomerHandler(svc *services.ServiceManager) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// --- Customers ---

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	HandleGetEnvelope(c, "customers", func() (interface{}, error) {
		return h.svc.Customers.ListCustomers(c.Request.Context(), GetTenantID(c), c.Query("q"))
	})
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	HandleGetEnvelope(c, "customer", func() (interface{}, error) {
		return h.svc.Customers.GetCustomer(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var body models.Customer
	if !BindJSON(c, &body) {
		return
	}
	HandleCreateEnvelope(c, "customer", "Customer created", func() (interface{}, error) {
		return h.svc.Customers.CreateCustomer(c.Request.Context(), GetTenantID(c), &body)
	})
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var body models.Customer
	if !BindJSON(c, &body) {
		return
	}
	HandleUpdateEnvelope(c, "customer", "Customer updated", func() (interface{}, error) {
		return h.svc.Customers.UpdateCustomer(c.Request.Context(), GetTenantID(c), c.Param("id"), &body)
	})
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	HandleDeleteEnvelope(c, "Customer deleted", func() error {
		return h.svc.Customers.DeleteCustomer(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

// --- Projects ---

func (h *CustomerHandler) ListProjects(c *gin.Context) {
	HandleGetEnvelope(c, "projects", func() (interface{}, error) {
		return h.svc.Customers.ListProjects(c.Request.Context(), GetTenantID(c), c.Query("customer_id"), c.Query("status"))
	})
}

func (h *CustomerHandler) GetProject(c *gin.Context) {
	HandleGetEnvelope(c, "project", func() (interface{}, error) {
		return h.svc.Customers.GetProject(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

func (h *CustomerHandler) CreateProject(c *gin.Context) {
	var body models.Project
	if !BindJSON(c, &body) {
		return
	}
	HandleCreateEnvelope(c, "project", "Project created", func() (interface{}, error) {
		return h.svc.Customers.CreateProject(c.Request.Context(), GetTenantID(c), &body)
	})
}

func (h *CustomerHandler) UpdateProject(c *gin.Context) {
	var body models.Project
	if !BindJSON(c, &body) {
		return
	}
	HandleUpdateEnvelope(c, "project", "Project updated", func() (interface{}, error) {
		return h.svc.Customers.UpdateProject(c.Request.Context(), GetTenantID(c), c.Param("id"), &body)
	})
}

func (h *CustomerHandler) DeleteProject(c *gin.Context) {
	HandleDeleteEnvelope(c, "Project deleted", func() error {
		return h.svc.Customers.DeleteProject(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}
