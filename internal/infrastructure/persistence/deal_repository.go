package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

// DealRepository owns the deals table.
type DealRepository struct {
	db *database.Connection
}

func NewDealRepository(db *database.Connection) *DealRepository {
	return &DealRepository{db: db}
}

const dealColumns = "id, tenant_id, company_id, contact_id, name, stage, amount, currency_code, source, owner_id, closed_at, created_at, updated_at"

func scanDeal(scan func(dest ...interface{}) error) (*models.Deal, error) {
	var d models.Deal
	var companyID, contactID sql.NullString
	var closedAt sql.NullTime
	err := scan(&d.ID, &d.TenantID, &companyID, &contactID, &d.Name, &d.Stage, &d.Amount,
		&d.CurrencyCode, &d.Source, &d.OwnerID, &closedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if companyID.Valid {
		d.CompanyID = &companyID.String
	}
	if contactID.Valid {
		d.ContactID = &contactID.String
	}
	if closedAt.Valid {
		d.ClosedAt = &closedAt.Time
	}
	return &d, nil
}

// Create inserts a deal; runs inside the lead-conversion transaction when
// tx is non-nil.
func (r *DealRepository) Create(ctx context.Context, tx *sql.Tx, d *models.Deal) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableDeal, dealColumns)
	args := []interface{}{
		d.ID, d.TenantID, d.CompanyID, d.ContactID, d.Name, d.Stage, d.Amount,
		d.CurrencyCode, d.Source, d.OwnerID, d.ClosedAt, d.CreatedAt, d.UpdatedAt,
	}

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	return err
}

func (r *DealRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Deal, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = ? AND id = ? LIMIT 1", dealColumns, constants.TableDeal)

	row := r.db.QueryRowContext(ctx, query, tenantID, id)
	d, err := scanDeal(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DealRepository) List(ctx context.Context, tenantID, stage, companyID, search string) ([]*models.Deal, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = ?", dealColumns, constants.TableDeal)
	args := []interface{}{tenantID}

	if stage != "" {
		query += " AND stage = ?"
		args = append(args, stage)
	}
	if companyID != "" {
		query += " AND company_id = ?"
		args = append(args, companyID)
	}
	if search != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deals := make([]*models.Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows.Scan)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (r *DealRepository) Update(ctx context.Context, d *models.Deal) error {
	query := fmt.Sprintf(`
		UPDATE %s SET company_id = ?, contact_id = ?, name = ?, amount = ?, currency_code = ?, source = ?, owner_id = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TableDeal)
	_, err := r.db.ExecContext(ctx, query,
		d.CompanyID, d.ContactID, d.Name, d.Amount, d.CurrencyCode, d.Source, d.OwnerID, d.UpdatedAt, d.TenantID, d.ID)
	return err
}

// UpdateStage moves a deal to a new stage, setting closed_at on terminal
// stages. Stage validity is checked at the service layer.
func (r *DealRepository) UpdateStage(ctx context.Context, tx *sql.Tx, tenantID, id, stage string, closedAt *time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET stage = ?, closed_at = ?, updated_at = NOW()
		WHERE tenant_id = ? AND id = ?`, constants.TableDeal)

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, stage, closedAt, tenantID, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, stage, closedAt, tenantID, id)
	}
	return err
}

func (r *DealRepository) Delete(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableDeal)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}
