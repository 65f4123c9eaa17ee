package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

// DeviceRepository owns the device_templates, template_properties,
// property_options, devices, and template_drafts tables. Template writes
// replace the nested property/option rows wholesale inside the caller's
// transaction.
type DeviceRepository struct {
	db *database.Connection
}

func NewDeviceRepository(db *database.Connection) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// --- Templates ---

func (r *DeviceRepository) InsertTemplate(ctx context.Context, tx *sql.Tx, t *models.DeviceTemplate) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, name, base_price, currency_code, sku_formula, description_formula, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableDeviceTemplate)
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.TenantID, t.Name, t.BasePrice, t.CurrencyCode, t.SKUFormula, t.DescriptionFormula, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *DeviceRepository) UpdateTemplate(ctx context.Context, tx *sql.Tx, t *models.DeviceTemplate) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = ?, base_price = ?, currency_code = ?, sku_formula = ?, description_formula = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TableDeviceTemplate)
	_, err := tx.ExecContext(ctx, query,
		t.Name, t.BasePrice, t.CurrencyCode, t.SKUFormula, t.DescriptionFormula, t.UpdatedAt, t.TenantID, t.ID)
	return err
}

// ReplaceProperties deletes and re-inserts the property and option rows
// of a template. Must run inside the same transaction as the template
// write so a partial failure rolls everything back.
func (r *DeviceRepository) ReplaceProperties(ctx context.Context, tx *sql.Tx, templateID string, props []models.TemplateProperty) error {
	delOptions := fmt.Sprintf(`
		DELETE FROM %s WHERE property_id IN (SELECT id FROM %s WHERE template_id = ?)`,
		constants.TablePropertyOption, constants.TableTemplateProperty)
	if _, err := tx.ExecContext(ctx, delOptions, templateID); err != nil {
		return err
	}
	delProps := fmt.Sprintf("DELETE FROM %s WHERE template_id = ?", constants.TableTemplateProperty)
	if _, err := tx.ExecContext(ctx, delProps, templateID); err != nil {
		return err
	}

	insProp := fmt.Sprintf(`
		INSERT INTO %s (id, template_id, name, type, required, seq)
		VALUES (?, ?, ?, ?, ?, ?)`, constants.TableTemplateProperty)
	insOption := fmt.Sprintf(`
		INSERT INTO %s (id, property_id, value, cost_expr, seq)
		VALUES (?, ?, ?, ?, ?)`, constants.TablePropertyOption)

	for _, p := range props {
		if _, err := tx.ExecContext(ctx, insProp, p.ID, templateID, p.Name, p.Type, p.Required, p.Seq); err != nil {
			return err
		}
		for _, o := range p.Options {
			if _, err := tx.ExecContext(ctx, insOption, o.ID, p.ID, o.Value, o.CostExpr, o.Seq); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetTemplate loads a template with its properties and options.
func (r *DeviceRepository) GetTemplate(ctx context.Context, tenantID, id string) (*models.DeviceTemplate, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, name, base_price, currency_code, sku_formula, description_formula, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND id = ? LIMIT 1`, constants.TableDeviceTemplate)

	var t models.DeviceTemplate
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&t.ID, &t.TenantID, &t.Name, &t.BasePrice, &t.CurrencyCode, &t.SKUFormula, &t.DescriptionFormula, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	props, err := r.loadProperties(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Properties = props
	return &t, nil
}

func (r *DeviceRepository) loadProperties(ctx context.Context, templateID string) ([]models.TemplateProperty, error) {
	query := fmt.Sprintf(`
		SELECT id, template_id, name, type, required, seq
		FROM %s WHERE template_id = ? ORDER BY seq`, constants.TableTemplateProperty)

	rows, err := r.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	props := make([]models.TemplateProperty, 0)
	byID := make(map[string]int)
	for rows.Next() {
		var p models.TemplateProperty
		if err := rows.Scan(&p.ID, &p.TemplateID, &p.Name, &p.Type, &p.Required, &p.Seq); err != nil {
			return nil, err
		}
		byID[p.ID] = len(props)
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return props, nil
	}

	optQuery := fmt.Sprintf(`
		SELECT o.id, o.property_id, o.value, o.cost_expr, o.seq
		FROM %s o JOIN %s p ON p.id = o.property_id
		WHERE p.template_id = ? ORDER BY o.seq`, constants.TablePropertyOption, constants.TableTemplateProperty)

	optRows, err := r.db.QueryContext(ctx, optQuery, templateID)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o models.PropertyOption
		if err := optRows.Scan(&o.ID, &o.PropertyID, &o.Value, &o.CostExpr, &o.Seq); err != nil {
			return nil, err
		}
		if i, ok := byID[o.PropertyID]; ok {
			props[i].Options = append(props[i].Options, o)
		}
	}
	return props, optRows.Err()
}

// ListTemplates returns template headers without nested properties.
func (r *DeviceRepository) ListTemplates(ctx context.Context, tenantID, search string) ([]*models.DeviceTemplate, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, name, base_price, currency_code, sku_formula, description_formula, created_at, updated_at
		FROM %s WHERE tenant_id = ?`, constants.TableDeviceTemplate)
	args := []interface{}{tenantID}

	if search != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]*models.DeviceTemplate, 0)
	for rows.Next() {
		var t models.DeviceTemplate
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.BasePrice, &t.CurrencyCode, &t.SKUFormula, &t.DescriptionFormula, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

func (r *DeviceRepository) DeleteTemplate(ctx context.Context, tx *sql.Tx, tenantID, id string) error {
	if err := r.ReplaceProperties(ctx, tx, id, nil); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableDeviceTemplate)
	_, err := tx.ExecContext(ctx, query, tenantID, id)
	return err
}

// CountDevicesForTemplate guards template deletion while devices still
// reference it.
func (r *DeviceRepository) CountDevicesForTemplate(ctx context.Context, tenantID, templateID string) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE tenant_id = ? AND template_id = ?", constants.TableDevice)
	err := r.db.QueryRowContext(ctx, query, tenantID, templateID).Scan(&n)
	return n, err
}

// --- Devices ---

func (r *DeviceRepository) CreateDevice(ctx context.Context, d *models.Device) error {
	values, err := json.Marshal(d.Values)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, template_id, sku, description, price, property_values, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableDevice)
	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.TenantID, d.TemplateID, d.SKU, d.Description, d.Price, string(values), d.CreatedAt, d.UpdatedAt)
	return err
}

func (r *DeviceRepository) GetDevice(ctx context.Context, tenantID, id string) (*models.Device, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, template_id, sku, description, price, property_values, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND id = ? LIMIT 1`, constants.TableDevice)

	var d models.Device
	var values string
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&d.ID, &d.TenantID, &d.TemplateID, &d.SKU, &d.Description, &d.Price, &values, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(values), &d.Values); err != nil {
		return nil, fmt.Errorf("corrupt property values for device %s: %w", d.ID, err)
	}
	return &d, nil
}

func (r *DeviceRepository) ListDevices(ctx context.Context, tenantID, templateID, search string) ([]*models.Device, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, template_id, sku, description, price, property_values, created_at, updated_at
		FROM %s WHERE tenant_id = ?`, constants.TableDevice)
	args := []interface{}{tenantID}

	if templateID != "" {
		query += " AND template_id = ?"
		args = append(args, templateID)
	}
	if search != "" {
		query += " AND (sku LIKE ? OR description LIKE ?)"
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY sku"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := make([]*models.Device, 0)
	for rows.Next() {
		var d models.Device
		var values string
		if err := rows.Scan(&d.ID, &d.TenantID, &d.TemplateID, &d.SKU, &d.Description, &d.Price, &values, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(values), &d.Values); err != nil {
			return nil, fmt.Errorf("corrupt property values for device %s: %w", d.ID, err)
		}
		devices = append(devices, &d)
	}
	return devices, rows.Err()
}

func (r *DeviceRepository) UpdateDevice(ctx context.Context, d *models.Device) error {
	values, err := json.Marshal(d.Values)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		UPDATE %s SET sku = ?, description = ?, price = ?, property_values = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TableDevice)
	_, err = r.db.ExecContext(ctx, query,
		d.SKU, d.Description, d.Price, string(values), d.UpdatedAt, d.TenantID, d.ID)
	return err
}

func (r *DeviceRepository) DeleteDevice(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableDevice)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}

// --- Drafts ---

// GetDraft returns the stored draft for (tenant, user, template), or nil.
func (r *DeviceRepository) GetDraft(ctx context.Context, tenantID, userID, templateID string) (*models.TemplateDraft, error) {
	query := fmt.Sprintf(`
		SELECT tenant_id, user_id, template_id, payload, updated_at
		FROM %s WHERE tenant_id = ? AND user_id = ? AND template_id = ? LIMIT 1`, constants.TableTemplateDraft)

	var d models.TemplateDraft
	err := r.db.QueryRowContext(ctx, query, tenantID, userID, templateID).Scan(
		&d.TenantID, &d.UserID, &d.TemplateID, &d.Payload, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertDraft writes a draft row, replacing any existing one.
func (r *DeviceRepository) UpsertDraft(ctx context.Context, d *models.TemplateDraft) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (tenant_id, user_id, template_id, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`,
		constants.TableTemplateDraft)
	_, err := r.db.ExecContext(ctx, query, d.TenantID, d.UserID, d.TemplateID, d.Payload, d.UpdatedAt)
	return err
}

func (r *DeviceRepository) DeleteDraft(ctx context.Context, tenantID, userID, templateID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND user_id = ? AND template_id = ?", constants.TableTemplateDraft)
	_, err := r.db.ExecContext(ctx, query, tenantID, userID, templateID)
	return err
}

// PurgeStaleDrafts removes drafts untouched since the cutoff. Returns the
// number of rows removed for the scheduler log line.
func (r *DeviceRepository) PurgeStaleDrafts(ctx context.Context, olderThan time.Time) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE updated_at < ?", constants.TableTemplateDraft)
	res, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
