package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/expression"
)

func materializeTemplate() *models.DeviceTemplate {
	return &models.DeviceTemplate{
		Name:               "Sensor",
		BasePrice:          100,
		SKUFormula:         "SEN-{range}-{housing}",
		DescriptionFormula: "Sensor with {range}m range",
		Properties: []models.TemplateProperty{
			{Name: "range", Type: constants.PropertyTypeNumber, Required: true},
			{Name: "housing", Type: constants.PropertyTypeSelect, Required: true,
				Options: []models.PropertyOption{
					{Value: "plastic"},
					{Value: "steel", CostExpr: "base * 0.2"},
				}},
			{Name: "note", Type: constants.PropertyTypeText},
		},
	}
}

func TestMaterialize(t *testing.T) {
	svc := &DeviceService{exprs: expression.NewEngine()}

	t.Run("fills sku, description, and price", func(t *testing.T) {
		d := &models.Device{Values: map[string]string{"range": "30", "housing": "steel"}}
		require.NoError(t, svc.materialize(materializeTemplate(), d))

		assert.Equal(t, "SEN-30-steel", d.SKU)
		assert.Equal(t, "Sensor with 30m range", d.Description)
		assert.Equal(t, 120.0, d.Price) // 100 base + 20% steel modifier
	})

	t.Run("option without cost expr keeps base price", func(t *testing.T) {
		d := &models.Device{Values: map[string]string{"range": "30", "housing": "plastic"}}
		require.NoError(t, svc.materialize(materializeTemplate(), d))
		assert.Equal(t, 100.0, d.Price)
	})

	t.Run("missing required value", func(t *testing.T) {
		d := &models.Device{Values: map[string]string{"housing": "plastic"}}
		assert.Error(t, svc.materialize(materializeTemplate(), d))
	})

	t.Run("number property rejects text", func(t *testing.T) {
		d := &models.Device{Values: map[string]string{"range": "far", "housing": "plastic"}}
		assert.Error(t, svc.materialize(materializeTemplate(), d))
	})

	t.Run("select rejects unknown option", func(t *testing.T) {
		d := &models.Device{Values: map[string]string{"range": "30", "housing": "titanium"}}
		assert.Error(t, svc.materialize(materializeTemplate(), d))
	})

	t.Run("unknown value key rejected", func(t *testing.T) {
		d := &models.Device{Values: map[string]string{"range": "30", "housing": "plastic", "color": "red"}}
		assert.Error(t, svc.materialize(materializeTemplate(), d))
	})

	t.Run("optional property may be absent", func(t *testing.T) {
		d := &models.Device{Values: map[string]string{"range": "30", "housing": "plastic"}}
		require.NoError(t, svc.materialize(materializeTemplate(), d))
	})
}
