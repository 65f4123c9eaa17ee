package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/internal/domain/models"
)

// CompanyHandler serves companies, contacts, and sites.
type CompanyHandler struct {
	svc *services.ServiceManager
}

func NewCompanyHandler(svc *services.ServiceManager) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// --- Companies ---

func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	HandleGetEnvelope(c, "companies", func() (interface{}, error) {
		return h.svc.Companies.ListCompanies(c.Request.Context(), GetTenantID(c), c.Query("q"))
	})
}

func (h *CompanyHandler) GetCompany(c *gin.Context) {
	HandleGetEnvelope(c, "company", func() (interface{}, error) {
		return h.svc.Companies.GetCompany(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var body models.Company
	if !BindJSON(c, &body) {
		return
	}
	HandleCreateEnvelope(c, "company", "Company created", func() (interface{}, error) {
		return h.svc.Companies.CreateCompany(c.Request.Context(), GetTenantID(c), &body)
	})
}

func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	var body models.Company
	if !BindJSON(c, &body) {
		return
	}
	HandleUpdateEnvelope(c, "company", "Company updated", func() (interface{}, error) {
		return h.svc.Companies.UpdateCompany(c.Request.Context(), GetTenantID(c), c.Param("id"), &body)
	})
}

func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	HandleDeleteEnvelope(c, "Company deleted", func() error {
		return h.svc.Companies.DeleteCompany(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

// --- Contacts ---

func (h *CompanyHandler) ListContacts(c *gin.Context) {
	HandleGetEnvelope(c, "contacts", func() (interface{}, error) {
		return h.svc.Companies.ListContacts(c.Request.Context(), GetTenantID(c), c.Query("company_id"), c.Query("q"))
	})
}

func (h *CompanyHandler) GetContact(c *gin.Context) {
	HandleGetEnvelope(c, "contact", func() (interface{}, error) {
		return h.svc.Companies.GetContact(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

func (h *CompanyHandler) CreateContact(c *gin.Context) {
	var body models.Contact
	if !BindJSON(c, &body) {
		return
	}
	HandleCreateEnvelope(c, "contact", "Contact created", func() (interface{}, error) {
		return h.svc.Companies.CreateContact(c.Request.Context(), GetTenantID(c), &body)
	})
}

func (h *CompanyHandler) UpdateContact(c *gin.Context) {
	var body models.Contact
	if !BindJSON(c, &body) {
		return
	}
	HandleUpdateEnvelope(c, "contact", "Contact updated", func() (interface{}, error) {
		return h.svc.Companies.UpdateContact(c.Request.Context(), GetTenantID(c), c.Param("id"), &body)
	})
}

func (h *CompanyHandler) DeleteContact(c *gin.Context) {
	HandleDeleteEnvelope(c, "Contact deleted", func() error {
		return h.svc.Companies.DeleteContact(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

// --- Sites ---

func (h *CompanyHandler) ListSites(c *gin.Context) {
	HandleGetEnvelope(c, "sites", func() (interface{}, error) {
		return h.svc.Companies.ListSites(c.Request.Context(), GetTenantID(c), c.Query("company_id"))
	})
}

func (h *CompanyHandler) GetSite(c *gin.Context) {
	HandleGetEnvelope(c, "site", func() (interface{}, error) {
		return h.svc.Companies.GetSite(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}

func (h *CompanyHandler) CreateSite(c *gin.Context) {
	var body models.Site
	if !BindJSON(c, &body) {
		return
	}
	HandleCreateEnvelope(c, "site", "Site created", func() (interface{}, error) {
		return h.svc.Companies.CreateSite(c.Request.Context(), GetTenantID(c), &body)
	})
}

func (h *CompanyHandler) UpdateSite(c *gin.Context) {
	var body models.Site
	if !BindJSON(c, &body) {
		return
	}
	HandleUpdateEnvelope(c, "site", "Site updated", func() (interface{}, error) {
		return h.svc.Companies.UpdateSite(c.Request.Context(), GetTenantID(c), c.Param("id"), &body)
	})
}

func (h *CompanyHandler) DeleteSite(c *gin.Context) {
	HandleDeleteEnvelope(c, "Site deleted", func() error {
		return h.svc.Companies.DeleteSite(c.Request.Context(), GetTenantID(c), c.Param("id"))
	})
}
