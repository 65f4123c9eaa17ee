package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/auth"
	"github.com/nimbuscrm/backend/pkg/errors"
	"github.com/nimbuscrm/backend/pkg/utils"
)

// CompanyService covers the core CRM records: companies, their contacts,
// and their sites.
type CompanyService struct {
	companies *persistence.CompanyRepository
}

func NewCompanyService(companies *persistence.CompanyRepository) *CompanyService {
	return &CompanyService{companies: companies}
}

// --- Companies ---

func (s *CompanyService) CreateCompany(ctx context.Context, tenantID string, c *models.Company) (*models.Company, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, errors.NewValidationError("name", "company name is required")
	}

	c.ID = utils.GenerateID()
	c.TenantID = tenantID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	if err := s.companies.CreateCompany(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return c, nil
}

func (s *CompanyService) GetCompany(ctx context.Context, tenantID, id string) (*models.Company, error) {
	c, err := s.companies.GetCompany(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if c == nil {
		return nil, errors.NewNotFoundError("company", id)
	}
	return c, nil
}

func (s *CompanyService) ListCompanies(ctx context.Context, tenantID, search string) ([]*models.Company, error) {
	return s.companies.ListCompanies(ctx, tenantID, search)
}

func (s *CompanyService) UpdateCompany(ctx context.Context, tenantID, id string, in *models.Company) (*models.Company, error) {
	c, err := s.GetCompany(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.NewValidationError("name", "company name is required")
	}

	c.Name = in.Name
	c.VATNumber = in.VATNumber
	c.Website = in.Website
	c.Phone = in.Phone
	c.Notes = in.Notes
	c.UpdatedAt = time.Now()
	if err := s.companies.UpdateCompany(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return c, nil
}

func (s *CompanyService) DeleteCompany(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetCompany(ctx, tenantID, id); err != nil {
		return err
	}
	return s.companies.DeleteCompany(ctx, tenantID, id)
}

// --- Contacts ---

func (s *CompanyService) CreateContact(ctx context.Context, tenantID string, c *models.Contact) (*models.Contact, error) {
	if strings.TrimSpace(c.FirstName) == "" && strings.TrimSpace(c.LastName) == "" {
		return nil, errors.NewValidationError("name", "contact needs a first or last name")
	}
	if c.Email != "" && !auth.IsValidEmail(c.Email) {
		return nil, errors.NewValidationError("email", "invalid email format")
	}
	if c.CompanyID != nil {
		if _, err := s.GetCompany(ctx, tenantID, *c.CompanyID); err != nil {
			return nil, err
		}
	}

	c.ID = utils.GenerateID()
	c.TenantID = tenantID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	if err := s.companies.CreateContact(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return c, nil
}

func (s *CompanyService) GetContact(ctx context.Context, tenantID, id string) (*models.Contact, error) {
	c, err := s.companies.GetContact(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if c == nil {
		return nil, errors.NewNotFoundError("contact", id)
	}
	return c, nil
}

func (s *CompanyService) ListContacts(ctx context.Context, tenantID, companyID, search string) ([]*models.Contact, error) {
	return s.companies.ListContacts(ctx, tenantID, companyID, search)
}

func (s *CompanyService) UpdateContact(ctx context.Context, tenantID, id string, in *models.Contact) (*models.Contact, error) {
	c, err := s.GetContact(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if in.Email != "" && !auth.IsValidEmail(in.Email) {
		return nil, errors.NewValidationError("email", "invalid email format")
	}
	if in.CompanyID != nil {
		if _, err := s.GetCompany(ctx, tenantID, *in.CompanyID); err != nil {
			return nil, err
		}
	}

	c.CompanyID = in.CompanyID
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	c.Phone = in.Phone
	c.Role = in.Role
	c.UpdatedAt = time.Now()
	if err := s.companies.UpdateContact(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return c, nil
}

func (s *CompanyService) DeleteContact(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetContact(ctx, tenantID, id); err != nil {
		return err
	}
	return s.companies.DeleteContact(ctx, tenantID, id)
}

// --- Sites ---

func (s *CompanyService) CreateSite(ctx context.Context, tenantID string, site *models.Site) (*models.Site, error) {
	if strings.TrimSpace(site.Name) == "" {
		return nil, errors.NewValidationError("name", "site name is required")
	}
	if _, err := s.GetCompany(ctx, tenantID, site.CompanyID); err != nil {
		return nil, err
	}

	site.ID = utils.GenerateID()
	site.TenantID = tenantID
	site.CreatedAt = time.Now()
	site.UpdatedAt = site.CreatedAt
	if err := s.companies.CreateSite(ctx, site); err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}
	return site, nil
}

func (s *CompanyService) GetSite(ctx context.Context, tenantID, id string) (*models.Site, error) {
	site, err := s.companies.GetSite(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if site == nil {
		return nil, errors.NewNotFoundError("site", id)
	}
	return site, nil
}

func (s *CompanyService) ListSites(ctx context.Context, tenantID, companyID string) ([]*models.Site, error) {
	return s.companies.ListSites(ctx, tenantID, companyID)
}

func (s *CompanyService) UpdateSite(ctx context.Context, tenantID, id string, in *models.Site) (*models.Site, error) {
	site, err := s.GetSite(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.NewValidationError("name", "site name is required")
	}

	site.CompanyID = in.CompanyID
	site.Name = in.Name
	site.Address = in.Address
	site.City = in.City
	site.Country = in.Country
	site.UpdatedAt = time.Now()
	if err := s.companies.UpdateSite(ctx, site); err != nil {
		return nil, fmt.Errorf("failed to update site: %w", err)
	}
	return site, nil
}

func (s *CompanyService) DeleteSite(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetSite(ctx, tenantID, id); err != nil {
		return err
	}
	return s.companies.DeleteSite(ctx, tenantID, id)
}
