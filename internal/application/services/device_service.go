package services

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/errors"
	"github.com/nimbuscrm/backend/pkg/expression"
	"github.com/nimbuscrm/backend/pkg/formula"
	"github.com/nimbuscrm/backend/pkg/utils"
)

// DeviceService instantiates catalog devices from templates: values are
// validated against the template schema, the SKU and description are
// generated from the formulas, and the price is the base price plus the
// evaluated option cost modifiers.
type DeviceService struct {
	devices   *persistence.DeviceRepository
	templates *TemplateService
	exprs     *expression.Engine
}

func NewDeviceService(devices *persistence.DeviceRepository, templates *TemplateService, exprs *expression.Engine) *DeviceService {
	return &DeviceService{devices: devices, templates: templates, exprs: exprs}
}

// materialize validates values against the template and fills the derived
// fields (SKU, description, price) on the device.
func (s *DeviceService) materialize(t *models.DeviceTemplate, d *models.Device) error {
	if d.Values == nil {
		d.Values = make(map[string]string)
	}

	known := make(map[string]bool, len(t.Properties))
	price := t.BasePrice
	for _, p := range t.Properties {
		known[p.Name] = true
		value, present := d.Values[p.Name]

		if !present || value == "" {
			if p.Required {
				return errors.NewValidationError(p.Name, "value is required")
			}
			continue
		}

		switch p.Type {
		case constants.PropertyTypeNumber:
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return errors.NewValidationError(p.Name, "not a number: "+value)
			}
		case constants.PropertyTypeSelect:
			var option *models.PropertyOption
			for i := range p.Options {
				if p.Options[i].Value == value {
					option = &p.Options[i]
					break
				}
			}
			if option == nil {
				return errors.NewValidationError(p.Name, "not an allowed option: "+value)
			}
			if option.CostExpr != "" {
				modifier, err := s.exprs.EvaluateNumber(option.CostExpr, map[string]interface{}{
					"base":  t.BasePrice,
					"value": option.Value,
				})
				if err != nil {
					return errors.NewValidationError(p.Name, fmt.Sprintf("cost expression failed: %v", err))
				}
				price += modifier
			}
		}
	}

	for name := range d.Values {
		if !known[name] {
			return errors.NewValidationError(name, "not a template property")
		}
	}

	d.SKU = formula.Substitute(t.SKUFormula, d.Values)
	d.Description = formula.Substitute(t.DescriptionFormula, d.Values)
	d.Price = math.Round(price*100) / 100
	return nil
}

func (s *DeviceService) CreateDevice(ctx context.Context, tenantID string, d *models.Device) (*models.Device, error) {
	t, err := s.templates.GetTemplate(ctx, tenantID, d.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := s.materialize(t, d); err != nil {
		return nil, err
	}

	d.ID = utils.GenerateID()
	d.TenantID = tenantID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	if err := s.devices.CreateDevice(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return d, nil
}

func (s *DeviceService) GetDevice(ctx context.Context, tenantID, id string) (*models.Device, error) {
	d, err := s.devices.GetDevice(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if d == nil {
		return nil, errors.NewNotFoundError("device", id)
	}
	return d, nil
}

func (s *DeviceService) ListDevices(ctx context.Context, tenantID, templateID, search string) ([]*models.Device, error) {
	return s.devices.ListDevices(ctx, tenantID, templateID, search)
}

// UpdateDevice re-validates the new values and regenerates the derived
// fields against the device's template.
func (s *DeviceService) UpdateDevice(ctx context.Context, tenantID, id string, values map[string]string) (*models.Device, error) {
	d, err := s.GetDevice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	t, err := s.templates.GetTemplate(ctx, tenantID, d.TemplateID)
	if err != nil {
		return nil, err
	}

	d.Values = values
	if err := s.materialize(t, d); err != nil {
		return nil, err
	}
	d.UpdatedAt = time.Now()
	if err := s.devices.UpdateDevice(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}
	return d, nil
}

func (s *DeviceService) DeleteDevice(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetDevice(ctx, tenantID, id); err != nil {
		return err
	}
	return s.devices.DeleteDevice(ctx, tenantID, id)
}
