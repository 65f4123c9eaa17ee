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

// CustomerService promotes companies to customers with billing defaults
// and manages their delivery projects.
type CustomerService struct {
	customers  *persistence.CustomerRepository
	companies  *persistence.CompanyRepository
	currencies *persistence.CurrencyRepository
}

func NewCustomerService(customers *persistence.CustomerRepository, companies *persistence.CompanyRepository, currencies *persistence.CurrencyRepository) *CustomerService {
	return &CustomerService{customers: customers, companies: companies, currencies: currencies}
}

func (s *CustomerService) validateCurrency(ctx context.Context, code string) error {
	currency, err := s.currencies.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if currency == nil {
		return errors.NewValidationError("currency_code", "unknown currency "+code)
	}
	return nil
}

// --- Customers ---

func (s *CustomerService) CreateCustomer(ctx context.Context, tenantID string, c *models.Customer) (*models.Customer, error) {
	company, err := s.companies.GetCompany(ctx, tenantID, c.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if company == nil {
		return nil, errors.NewNotFoundError("company", c.CompanyID)
	}

	exists, err := s.customers.CustomerExistsForCompany(ctx, tenantID, c.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if exists {
		return nil, errors.NewConflictError("customer", "company_id", c.CompanyID)
	}

	if err := s.validateCurrency(ctx, c.CurrencyCode); err != nil {
		return nil, err
	}
	if c.PaymentNetDays < 0 {
		return nil, errors.NewValidationError("payment_net_days", "must not be negative")
	}
	if c.BillingEmail != "" && !auth.IsValidEmail(c.BillingEmail) {
		return nil, errors.NewValidationError("billing_email", "invalid email format")
	}

	c.ID = utils.GenerateID()
	c.TenantID = tenantID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	if err := s.customers.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	c.CompanyName = company.Name
	return c, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, tenantID, id string) (*models.Customer, error) {
	c, err := s.customers.GetCustomer(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if c == nil {
		return nil, errors.NewNotFoundError("customer", id)
	}
	return c, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, tenantID, search string) ([]*models.Customer, error) {
	return s.customers.ListCustomers(ctx, tenantID, search)
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, tenantID, id string, in *models.Customer) (*models.Customer, error) {
	c, err := s.GetCustomer(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateCurrency(ctx, in.CurrencyCode); err != nil {
		return nil, err
	}
	if in.PaymentNetDays < 0 {
		return nil, errors.NewValidationError("payment_net_days", "must not be negative")
	}
	if in.BillingEmail != "" && !auth.IsValidEmail(in.BillingEmail) {
		return nil, errors.NewValidationError("billing_email", "invalid email format")
	}

	c.CurrencyCode = in.CurrencyCode
	c.PaymentNetDays = in.PaymentNetDays
	c.BillingEmail = in.BillingEmail
	c.BillingAddress = in.BillingAddress
	c.UpdatedAt = time.Now()
	if err := s.customers.UpdateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return c, nil
}

func (s *CustomerService) DeleteCustomer(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetCustomer(ctx, tenantID, id); err != nil {
		return err
	}
	return s.customers.DeleteCustomer(ctx, tenantID, id)
}

// --- Projects ---

func (s *CustomerService) CreateProject(ctx context.Context, tenantID string, p *models.Project) (*models.Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, errors.NewValidationError("name", "project name is required")
	}
	if _, err := s.GetCustomer(ctx, tenantID, p.CustomerID); err != nil {
		return nil, err
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return nil, errors.NewValidationError("end_date", "end date is before start date")
	}
	if p.Status == "" {
		p.Status = "active"
	}

	p.ID = utils.GenerateID()
	p.TenantID = tenantID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	if err := s.customers.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

func (s *CustomerService) GetProject(ctx context.Context, tenantID, id string) (*models.Project, error) {
	p, err := s.customers.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("project", id)
	}
	return p, nil
}

func (s *CustomerService) ListProjects(ctx context.Context, tenantID, customerID, status string) ([]*models.Project, error) {
	return s.customers.ListProjects(ctx, tenantID, customerID, status)
}

func (s *CustomerService) UpdateProject(ctx context.Context, tenantID, id string, in *models.Project) (*models.Project, error) {
	p, err := s.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.NewValidationError("name", "project name is required")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, errors.NewValidationError("end_date", "end date is before start date")
	}

	p.CustomerID = in.CustomerID
	p.ContractID = in.ContractID
	p.Name = in.Name
	p.Status = in.Status
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	p.UpdatedAt = time.Now()
	if err := s.customers.UpdateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

func (s *CustomerService) DeleteProject(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetProject(ctx, tenantID, id); err != nil {
		return err
	}
	return s.customers.DeleteProject(ctx, tenantID, id)
}
