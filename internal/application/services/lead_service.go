package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/errors"
	"github.com/nimbuscrm/backend/pkg/utils"
)

// LeadService flags companies, contacts, and sites as pre-sales prospects
// and converts them into deals.
type LeadService struct {
	leads     *persistence.LeadRepository
	deals     *persistence.DealRepository
	companies *persistence.CompanyRepository
	txManager *persistence.TransactionManager
	audit     *AuditService
}

func NewLeadService(leads *persistence.LeadRepository, deals *persistence.DealRepository,
	companies *persistence.CompanyRepository, txManager *persistence.TransactionManager, audit *AuditService) *LeadService {
	return &LeadService{leads: leads, deals: deals, companies: companies, txManager: txManager, audit: audit}
}

// FlagLead marks an existing company, contact, or site as a lead.
func (s *LeadService) FlagLead(ctx context.Context, tenantID string, l *models.Lead) (*models.Lead, error) {
	switch l.Kind {
	case constants.LeadKindCompany:
		c, err := s.companies.GetCompany(ctx, tenantID, l.SourceID)
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if c == nil {
			return nil, errors.NewNotFoundError("company", l.SourceID)
		}
	case constants.LeadKindContact:
		c, err := s.companies.GetContact(ctx, tenantID, l.SourceID)
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if c == nil {
			return nil, errors.NewNotFoundError("contact", l.SourceID)
		}
	case constants.LeadKindSite:
		site, err := s.companies.GetSite(ctx, tenantID, l.SourceID)
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if site == nil {
			return nil, errors.NewNotFoundError("site", l.SourceID)
		}
	default:
		return nil, errors.NewValidationError("kind", "kind must be company, contact, or site")
	}

	l.ID = utils.GenerateID()
	l.TenantID = tenantID
	l.Status = constants.LeadStatusOpen
	l.DealID = nil
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	if err := s.leads.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return l, nil
}

func (s *LeadService) GetLead(ctx context.Context, tenantID, id string) (*models.Lead, error) {
	l, err := s.leads.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if l == nil {
		return nil, errors.NewNotFoundError("lead", id)
	}
	return l, nil
}

func (s *LeadService) ListLeads(ctx context.Context, tenantID, status string) ([]*models.Lead, error) {
	return s.leads.List(ctx, tenantID, status)
}

func (s *LeadService) UpdateLead(ctx context.Context, tenantID, id string, in *models.Lead) (*models.Lead, error) {
	l, err := s.GetLead(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if l.Status == constants.LeadStatusConverted {
		return nil, errors.NewValidationError("lead", "converted leads are read-only")
	}

	l.Source = in.Source
	l.Notes = in.Notes
	l.UpdatedAt = time.Now()
	if err := s.leads.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return l, nil
}

func (s *LeadService) DeleteLead(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetLead(ctx, tenantID, id); err != nil {
		return err
	}
	return s.leads.Delete(ctx, tenantID, id)
}

// ConvertRequest carries the deal fields for a lead conversion.
type ConvertRequest struct {
	Name         string  `json:"name" binding:"required"`
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currency_code" binding:"required"`
}

// Convert turns an open lead into a deal. The deal insert and the lead
// status flip run in one transaction; the deal carries the lead's source
// so the origin stays visible down the pipeline.
func (s *LeadService) Convert(ctx context.Context, tenantID, actorID, leadID string, req ConvertRequest) (*models.Deal, error) {
	lead, err := s.GetLead(ctx, tenantID, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status != constants.LeadStatusOpen {
		return nil, errors.NewValidationError("lead", "lead is already converted")
	}
	if req.Amount < 0 {
		return nil, errors.NewValidationError("amount", "amount must not be negative")
	}

	var companyID, contactID *string
	switch lead.Kind {
	case constants.LeadKindCompany:
		companyID = &lead.SourceID
	case constants.LeadKindContact:
		contact, err := s.companies.GetContact(ctx, tenantID, lead.SourceID)
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if contact != nil {
			contactID = &contact.ID
			companyID = contact.CompanyID
		}
	case constants.LeadKindSite:
		site, err := s.companies.GetSite(ctx, tenantID, lead.SourceID)
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if site != nil {
			companyID = &site.CompanyID
		}
	}

	now := time.Now()
	deal := &models.Deal{
		ID:           utils.GenerateID(),
		TenantID:     tenantID,
		CompanyID:    companyID,
		ContactID:    contactID,
		Name:         req.Name,
		Stage:        constants.DealStageQualification,
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
		Source:       lead.Source,
		OwnerID:      actorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.txManager.WithRetry(func(tx *sql.Tx) error {
		if err := s.deals.Create(ctx, tx, deal); err != nil {
			return err
		}
		return s.leads.MarkConverted(ctx, tx, tenantID, leadID, deal.ID)
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("lead conversion failed: %w", err)
	}

	s.audit.Record(ctx, tenantID, actorID, "lead", leadID, constants.AuditLeadConverted,
		fmt.Sprintf("converted to deal %s", deal.ID))
	return deal, nil
}
