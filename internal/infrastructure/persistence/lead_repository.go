package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

// LeadRepository owns the leads table. Write methods accept an optional
// *sql.Tx so lead conversion can run inside one transaction; pass nil to
// use the shared pool.
type LeadRepository struct {
	db *database.Connection
}

func NewLeadRepository(db *database.Connection) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, l *models.Lead) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, kind, source_id, source, status, notes, deal_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableLead)
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.TenantID, l.Kind, l.SourceID, l.Source, l.Status, l.Notes, l.DealID, l.CreatedAt, l.UpdatedAt)
	return err
}

func (r *LeadRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Lead, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, kind, source_id, source, status, notes, deal_id, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND id = ? LIMIT 1`, constants.TableLead)

	var l models.Lead
	var dealID sql.NullString
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&l.ID, &l.TenantID, &l.Kind, &l.SourceID, &l.Source, &l.Status, &l.Notes, &dealID, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if dealID.Valid {
		l.DealID = &dealID.String
	}
	return &l, nil
}

func (r *LeadRepository) List(ctx context.Context, tenantID, status string) ([]*models.Lead, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, kind, source_id, source, status, notes, deal_id, created_at, updated_at
		FROM %s WHERE tenant_id = ?`, constants.TableLead)
	args := []interface{}{tenantID}

	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]*models.Lead, 0)
	for rows.Next() {
		var l models.Lead
		var dealID sql.NullString
		if err := rows.Scan(&l.ID, &l.TenantID, &l.Kind, &l.SourceID, &l.Source, &l.Status, &l.Notes, &dealID, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		if dealID.Valid {
			l.DealID = &dealID.String
		}
		leads = append(leads, &l)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) Update(ctx context.Context, l *models.Lead) error {
	query := fmt.Sprintf(`
		UPDATE %s SET source = ?, notes = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TableLead)
	_, err := r.db.ExecContext(ctx, query, l.Source, l.Notes, l.UpdatedAt, l.TenantID, l.ID)
	return err
}

// MarkConverted flips the lead to converted and links the created deal.
// Runs inside the conversion transaction when tx is non-nil.
func (r *LeadRepository) MarkConverted(ctx context.Context, tx *sql.Tx, tenantID, leadID, dealID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status = ?, deal_id = ?, updated_at = NOW()
		WHERE tenant_id = ? AND id = ? AND status = ?`, constants.TableLead)

	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, constants.LeadStatusConverted, dealID, tenantID, leadID, constants.LeadStatusOpen)
	} else {
		res, err = r.db.ExecContext(ctx, query, constants.LeadStatusConverted, dealID, tenantID, leadID, constants.LeadStatusOpen)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("lead %s is not open", leadID)
	}
	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableLead)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}
