package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/errors"
	"github.com/nimbuscrm/backend/pkg/expression"
	"github.com/nimbuscrm/backend/pkg/formula"
	"github.com/nimbuscrm/backend/pkg/utils"
)

// TemplateService manages device templates, their nested property and
// option rows, the SKU/description preview, and per-user form drafts.
// Template writes (header + properties + options) run in one transaction.
type TemplateService struct {
	devices   *persistence.DeviceRepository
	txManager *persistence.TransactionManager
	exprs     *expression.Engine
}

func NewTemplateService(devices *persistence.DeviceRepository, txManager *persistence.TransactionManager, exprs *expression.Engine) *TemplateService {
	return &TemplateService{devices: devices, txManager: txManager, exprs: exprs}
}

// StaleDraftAge is how long an untouched draft survives before the purge
// job removes it.
const StaleDraftAge = 30 * 24 * time.Hour

func (s *TemplateService) validateTemplate(t *models.DeviceTemplate) error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.NewValidationError("name", "template name is required")
	}
	if t.BasePrice < 0 {
		return errors.NewValidationError("base_price", "base price must not be negative")
	}

	seen := make(map[string]bool)
	for i := range t.Properties {
		p := &t.Properties[i]
		if strings.TrimSpace(p.Name) == "" {
			return errors.NewValidationError("properties", "property name is required")
		}
		if seen[p.Name] {
			return errors.NewValidationError("properties", "duplicate property "+p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case constants.PropertyTypeText, constants.PropertyTypeNumber:
			if len(p.Options) > 0 {
				return errors.NewValidationError("properties", p.Name+": only select properties carry options")
			}
		case constants.PropertyTypeSelect:
			if len(p.Options) == 0 {
				return errors.NewValidationError("properties", p.Name+": select property needs at least one option")
			}
			values := make(map[string]bool)
			for _, o := range p.Options {
				if o.Value == "" {
					return errors.NewValidationError("properties", p.Name+": option value is required")
				}
				if values[o.Value] {
					return errors.NewValidationError("properties", p.Name+": duplicate option "+o.Value)
				}
				values[o.Value] = true
				if o.CostExpr != "" {
					if err := s.exprs.Validate(o.CostExpr); err != nil {
						return errors.NewValidationError("properties",
							fmt.Sprintf("%s/%s: %v", p.Name, o.Value, err))
					}
				}
			}
		default:
			return errors.NewValidationError("properties", p.Name+": type must be text, number, or select")
		}
	}

	// Placeholders in the formulas must refer to declared properties so the
	// preview never silently carries a typo into every generated SKU.
	for _, tmpl := range []string{t.SKUFormula, t.DescriptionFormula} {
		for _, name := range formula.Placeholders(tmpl) {
			if !seen[name] {
				return errors.NewValidationError("formula", "unknown placeholder {"+name+"}")
			}
		}
	}
	return nil
}

func (s *TemplateService) assignIDs(t *models.DeviceTemplate) {
	for i := range t.Properties {
		p := &t.Properties[i]
		p.ID = utils.GenerateID()
		p.TemplateID = t.ID
		p.Seq = i + 1
		for j := range p.Options {
			p.Options[j].ID = utils.GenerateID()
			p.Options[j].PropertyID = p.ID
			p.Options[j].Seq = j + 1
		}
	}
}

func (s *TemplateService) CreateTemplate(ctx context.Context, tenantID string, t *models.DeviceTemplate) (*models.DeviceTemplate, error) {
	if err := s.validateTemplate(t); err != nil {
		return nil, err
	}

	t.ID = utils.GenerateID()
	t.TenantID = tenantID
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.assignIDs(t)

	err := s.txManager.WithRetry(func(tx *sql.Tx) error {
		if err := s.devices.InsertTemplate(ctx, tx, t); err != nil {
			return err
		}
		return s.devices.ReplaceProperties(ctx, tx, t.ID, t.Properties)
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return t, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, tenantID, id string) (*models.DeviceTemplate, error) {
	t, err := s.devices.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if t == nil {
		return nil, errors.NewNotFoundError("device template", id)
	}
	return t, nil
}

func (s *TemplateService) ListTemplates(ctx context.Context, tenantID, search string) ([]*models.DeviceTemplate, error) {
	return s.devices.ListTemplates(ctx, tenantID, search)
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, tenantID, id string, in *models.DeviceTemplate) (*models.DeviceTemplate, error) {
	t, err := s.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateTemplate(in); err != nil {
		return nil, err
	}

	t.Name = in.Name
	t.BasePrice = in.BasePrice
	t.CurrencyCode = in.CurrencyCode
	t.SKUFormula = in.SKUFormula
	t.DescriptionFormula = in.DescriptionFormula
	t.Properties = in.Properties
	t.UpdatedAt = time.Now()
	s.assignIDs(t)

	err = s.txManager.WithRetry(func(tx *sql.Tx) error {
		if err := s.devices.UpdateTemplate(ctx, tx, t); err != nil {
			return err
		}
		return s.devices.ReplaceProperties(ctx, tx, t.ID, t.Properties)
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return t, nil
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetTemplate(ctx, tenantID, id); err != nil {
		return err
	}

	n, err := s.devices.CountDevicesForTemplate(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if n > 0 {
		return errors.NewValidationError("template", fmt.Sprintf("%d devices still use this template", n))
	}

	return s.txManager.WithRetry(func(tx *sql.Tx) error {
		return s.devices.DeleteTemplate(ctx, tx, tenantID, id)
	}, 3)
}

// PreviewResult is the substituted SKU and description for sample values.
type PreviewResult struct {
	SKU         string   `json:"sku"`
	Description string   `json:"description"`
	Unresolved  []string `json:"unresolved,omitempty"`
}

// Preview substitutes the given sample values into the template's
// formulas. Placeholders without a value stay verbatim and are reported
// so the caller can show what is missing.
func (s *TemplateService) Preview(ctx context.Context, tenantID, id string, values map[string]string) (*PreviewResult, error) {
	t, err := s.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{
		SKU:         formula.Substitute(t.SKUFormula, values),
		Description: formula.Substitute(t.DescriptionFormula, values),
	}

	seen := make(map[string]bool)
	for _, tmpl := range []string{t.SKUFormula, t.DescriptionFormula} {
		for _, name := range formula.Placeholders(tmpl) {
			if _, ok := values[name]; !ok && !seen[name] {
				seen[name] = true
				result.Unresolved = append(result.Unresolved, name)
			}
		}
	}
	return result, nil
}

// --- Drafts ---

// SaveDraft upserts the caller's draft for a template. A write whose
// updated_at is older than the stored row loses: the stored draft is
// returned unchanged so the caller can reconcile.
func (s *TemplateService) SaveDraft(ctx context.Context, tenantID, userID, templateID, payload string, updatedAt time.Time) (*models.TemplateDraft, bool, error) {
	if _, err := s.GetTemplate(ctx, tenantID, templateID); err != nil {
		return nil, false, err
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	stored, err := s.devices.GetDraft(ctx, tenantID, userID, templateID)
	if err != nil {
		return nil, false, fmt.Errorf("database error: %w", err)
	}
	if stored != nil && updatedAt.Before(stored.UpdatedAt) {
		return stored, false, nil
	}

	draft := &models.TemplateDraft{
		TenantID:   tenantID,
		UserID:     userID,
		TemplateID: templateID,
		Payload:    payload,
		UpdatedAt:  updatedAt,
	}
	if err := s.devices.UpsertDraft(ctx, draft); err != nil {
		return nil, false, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, true, nil
}

func (s *TemplateService) GetDraft(ctx context.Context, tenantID, userID, templateID string) (*models.TemplateDraft, error) {
	d, err := s.devices.GetDraft(ctx, tenantID, userID, templateID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if d == nil {
		return nil, errors.NewNotFoundError("draft", templateID)
	}
	return d, nil
}

func (s *TemplateService) DiscardDraft(ctx context.Context, tenantID, userID, templateID string) error {
	return s.devices.DeleteDraft(ctx, tenantID, userID, templateID)
}

// PurgeStaleDrafts removes drafts past StaleDraftAge. Called by the
// hourly scheduler job.
func (s *TemplateService) PurgeStaleDrafts(ctx context.Context) (int64, error) {
	return s.devices.PurgeStaleDrafts(ctx, time.Now().Add(-StaleDraftAge))
}
