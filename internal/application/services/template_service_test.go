package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/expression"
)

func newTestTemplateService() *TemplateService {
	return &TemplateService{exprs: expression.NewEngine()}
}

func validTemplate() *models.DeviceTemplate {
	return &models.DeviceTemplate{
		Name:               "Sensor",
		BasePrice:          100,
		CurrencyCode:       "EUR",
		SKUFormula:         "SEN-{range}-{housing}",
		DescriptionFormula: "Sensor, {range}m range, {housing} housing",
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

func TestValidateTemplate(t *testing.T) {
	svc := newTestTemplateService()

	t.Run("valid template passes", func(t *testing.T) {
		assert.NoError(t, svc.validateTemplate(validTemplate()))
	})

	t.Run("name required", func(t *testing.T) {
		tmpl := validTemplate()
		tmpl.Name = "  "
		assert.Error(t, svc.validateTemplate(tmpl))
	})

	t.Run("negative base price", func(t *testing.T) {
		tmpl := validTemplate()
		tmpl.BasePrice = -1
		assert.Error(t, svc.validateTemplate(tmpl))
	})

	t.Run("duplicate property names", func(t *testing.T) {
		tmpl := validTemplate()
		tmpl.Properties = append(tmpl.Properties, models.TemplateProperty{
			Name: "range", Type: constants.PropertyTypeText,
		})
		assert.Error(t, svc.validateTemplate(tmpl))
	})

	t.Run("select needs options", func(t *testing.T) {
		tmpl := validTemplate()
		tmpl.Properties[1].Options = nil
		assert.Error(t, svc.validateTemplate(tmpl))
	})

	t.Run("text property must not carry options", func(t *testing.T) {
		tmpl := validTemplate()
		tmpl.Properties[2].Options = []models.PropertyOption{{Value: "x"}}
		assert.Error(t, svc.validateTemplate(tmpl))
	})

	t.Run("duplicate option values", func(t *testing.T) {
		tmpl := validTemplate()
		tmpl.Properties[1].Options = append(tmpl.Properties[1].Options, models.PropertyOption{Value: "steel"})
		assert.Error(t, svc.validateTemplate(tmpl))
	})

	t.Run("unknown property type", func(t *testing.T) {
		tmpl := validTemplate()
		tmpl.Properties[0].Type = "date"
		assert.Error(t, svc.validateTemplate(tmpl))
	})

	t.Run("broken cost expression", func(t *testing.T) {
		tmpl := validTemplate()
		tmpl.Properties[1].Options[1].CostExpr = "base *"
		assert.Error(t, svc.validateTemplate(tmpl))
	})

	t.Run("formula placeholder must be a declared property", func(t *testing.T) {
		tmpl := validTemplate()
		tmpl.SKUFormula = "SEN-{color}"
		err := svc.validateTemplate(tmpl)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "color")
	})
}

func newMockDraftService(t *testing.T) (*TemplateService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := persistence.NewDeviceRepository(database.FromDB(db))
	return NewTemplateService(repo, nil, expression.NewEngine()), mock
}

func expectTemplateLookup(mock sqlmock.Sqlmock, now time.Time) {
	mock.ExpectQuery("SELECT (.+) FROM device_templates WHERE tenant_id = \\? AND id = \\?").
		WithArgs("tenant-1", "tmpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "base_price", "currency_code", "sku_formula", "description_formula", "created_at", "updated_at"}).
			AddRow("tmpl-1", "tenant-1", "Sensor", 100.0, "EUR", "", "", now, now))
	mock.ExpectQuery("SELECT (.+) FROM template_properties WHERE template_id = \\?").
		WithArgs("tmpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "template_id", "name", "type", "required", "seq"}))
}

func expectDraftLookup(mock sqlmock.Sqlmock, payload string, updatedAt time.Time) {
	rows := sqlmock.NewRows([]string{"tenant_id", "user_id", "template_id", "payload", "updated_at"})
	if payload != "" {
		rows.AddRow("tenant-1", "user-1", "tmpl-1", payload, updatedAt)
	}
	mock.ExpectQuery("SELECT (.+) FROM template_drafts WHERE tenant_id = \\? AND user_id = \\? AND template_id = \\?").
		WithArgs("tenant-1", "user-1", "tmpl-1").
		WillReturnRows(rows)
}

func TestSaveDraftReconciliation(t *testing.T) {
	ctx := context.Background()

	t.Run("stale write loses, stored draft wins", func(t *testing.T) {
		svc, mock := newMockDraftService(t)
		now := time.Now()
		expectTemplateLookup(mock, now)
		expectDraftLookup(mock, `{"range":"30"}`, now)

		draft, saved, err := svc.SaveDraft(ctx, "tenant-1", "user-1", "tmpl-1", `{"range":"10"}`, now.Add(-time.Minute))
		require.NoError(t, err)
		assert.False(t, saved)
		assert.Equal(t, `{"range":"30"}`, draft.Payload)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("equal timestamp overwrites", func(t *testing.T) {
		svc, mock := newMockDraftService(t)
		now := time.Now()
		expectTemplateLookup(mock, now)
		expectDraftLookup(mock, `{"range":"30"}`, now)
		mock.ExpectExec("INSERT INTO template_drafts").
			WithArgs("tenant-1", "user-1", "tmpl-1", `{"range":"12"}`, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		draft, saved, err := svc.SaveDraft(ctx, "tenant-1", "user-1", "tmpl-1", `{"range":"12"}`, now)
		require.NoError(t, err)
		assert.True(t, saved)
		assert.Equal(t, `{"range":"12"}`, draft.Payload)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero timestamp defaults to now", func(t *testing.T) {
		svc, mock := newMockDraftService(t)
		now := time.Now()
		expectTemplateLookup(mock, now)
		expectDraftLookup(mock, "", time.Time{})
		mock.ExpectExec("INSERT INTO template_drafts").
			WithArgs("tenant-1", "user-1", "tmpl-1", `{"range":"12"}`, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		draft, saved, err := svc.SaveDraft(ctx, "tenant-1", "user-1", "tmpl-1", `{"range":"12"}`, time.Time{})
		require.NoError(t, err)
		assert.True(t, saved)
		assert.WithinDuration(t, time.Now(), draft.UpdatedAt, time.Minute)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
