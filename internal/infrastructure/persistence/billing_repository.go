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

// BillingRepository owns the contracts, payment_terms, and todos tables.
type BillingRepository struct {
	db *database.Connection
}

func NewBillingRepository(db *database.Connection) *BillingRepository {
	return &BillingRepository{db: db}
}

// --- Contracts ---

// CreateContract inserts a contract; part of the deal close-out
// transaction when tx is non-nil.
func (r *BillingRepository) CreateContract(ctx context.Context, tx *sql.Tx, c *models.Contract) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, deal_id, company_id, name, total_value, currency_code, signed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableContract)
	args := []interface{}{
		c.ID, c.TenantID, c.DealID, c.CompanyID, c.Name, c.TotalValue, c.CurrencyCode, c.SignedAt, c.CreatedAt, c.UpdatedAt,
	}

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	return err
}

func (r *BillingRepository) GetContract(ctx context.Context, tenantID, id string) (*models.Contract, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, deal_id, company_id, name, total_value, currency_code, signed_at, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND id = ? LIMIT 1`, constants.TableContract)

	var c models.Contract
	var companyID sql.NullString
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&c.ID, &c.TenantID, &c.DealID, &companyID, &c.Name, &c.TotalValue, &c.CurrencyCode, &c.SignedAt, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if companyID.Valid {
		c.CompanyID = &companyID.String
	}
	return &c, nil
}

func (r *BillingRepository) ListContracts(ctx context.Context, tenantID, companyID string) ([]*models.Contract, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, deal_id, company_id, name, total_value, currency_code, signed_at, created_at, updated_at
		FROM %s WHERE tenant_id = ?`, constants.TableContract)
	args := []interface{}{tenantID}

	if companyID != "" {
		query += " AND company_id = ?"
		args = append(args, companyID)
	}
	query += " ORDER BY signed_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := make([]*models.Contract, 0)
	for rows.Next() {
		var c models.Contract
		var cid sql.NullString
		if err := rows.Scan(&c.ID, &c.TenantID, &c.DealID, &cid, &c.Name, &c.TotalValue, &c.CurrencyCode, &c.SignedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if cid.Valid {
			c.CompanyID = &cid.String
		}
		contracts = append(contracts, &c)
	}
	return contracts, rows.Err()
}

func (r *BillingRepository) UpdateContract(ctx context.Context, c *models.Contract) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = ?, total_value = ?, currency_code = ?, signed_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TableContract)
	_, err := r.db.ExecContext(ctx, query,
		c.Name, c.TotalValue, c.CurrencyCode, c.SignedAt, c.UpdatedAt, c.TenantID, c.ID)
	return err
}

func (r *BillingRepository) DeleteContract(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableContract)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}

// --- Payment terms ---

func (r *BillingRepository) CreatePaymentTerm(ctx context.Context, tx *sql.Tx, p *models.PaymentTerm) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, contract_id, seq, amount, due_date, paid_date, stage, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TablePaymentTerm)
	args := []interface{}{
		p.ID, p.TenantID, p.ContractID, p.Seq, p.Amount, p.DueDate, p.PaidDate, p.Stage, p.CreatedAt, p.UpdatedAt,
	}

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	return err
}

func (r *BillingRepository) GetPaymentTerm(ctx context.Context, tenantID, id string) (*models.PaymentTerm, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, contract_id, seq, amount, due_date, paid_date, stage, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND id = ? LIMIT 1`, constants.TablePaymentTerm)

	var p models.PaymentTerm
	var paid sql.NullTime
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&p.ID, &p.TenantID, &p.ContractID, &p.Seq, &p.Amount, &p.DueDate, &paid, &p.Stage, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if paid.Valid {
		p.PaidDate = &paid.Time
	}
	return &p, nil
}

func (r *BillingRepository) ListPaymentTerms(ctx context.Context, tenantID, contractID, stage string) ([]*models.PaymentTerm, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, contract_id, seq, amount, due_date, paid_date, stage, created_at, updated_at
		FROM %s WHERE tenant_id = ?`, constants.TablePaymentTerm)
	args := []interface{}{tenantID}

	if contractID != "" {
		query += " AND contract_id = ?"
		args = append(args, contractID)
	}
	if stage != "" {
		query += " AND stage = ?"
		args = append(args, stage)
	}
	query += " ORDER BY due_date, seq"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make([]*models.PaymentTerm, 0)
	for rows.Next() {
		var p models.PaymentTerm
		var paid sql.NullTime
		if err := rows.Scan(&p.ID, &p.TenantID, &p.ContractID, &p.Seq, &p.Amount, &p.DueDate, &paid, &p.Stage, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if paid.Valid {
			p.PaidDate = &paid.Time
		}
		terms = append(terms, &p)
	}
	return terms, rows.Err()
}

// ListUnpaidPaymentTerms returns every unpaid term across all tenants.
// Used by the nightly stage sweep.
func (r *BillingRepository) ListUnpaidPaymentTerms(ctx context.Context) ([]*models.PaymentTerm, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, contract_id, seq, amount, due_date, paid_date, stage, created_at, updated_at
		FROM %s WHERE stage != ? ORDER BY tenant_id, due_date`, constants.TablePaymentTerm)

	rows, err := r.db.QueryContext(ctx, query, constants.PaymentStagePaid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make([]*models.PaymentTerm, 0)
	for rows.Next() {
		var p models.PaymentTerm
		var paid sql.NullTime
		if err := rows.Scan(&p.ID, &p.TenantID, &p.ContractID, &p.Seq, &p.Amount, &p.DueDate, &paid, &p.Stage, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if paid.Valid {
			p.PaidDate = &paid.Time
		}
		terms = append(terms, &p)
	}
	return terms, rows.Err()
}

func (r *BillingRepository) UpdatePaymentTerm(ctx context.Context, p *models.PaymentTerm) error {
	query := fmt.Sprintf(`
		UPDATE %s SET amount = ?, due_date = ?, paid_date = ?, stage = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TablePaymentTerm)
	_, err := r.db.ExecContext(ctx, query,
		p.Amount, p.DueDate, p.PaidDate, p.Stage, p.UpdatedAt, p.TenantID, p.ID)
	return err
}

// UpdatePaymentStage writes just the recommended stage. Last write wins.
func (r *BillingRepository) UpdatePaymentStage(ctx context.Context, tenantID, id, stage string) error {
	query := fmt.Sprintf("UPDATE %s SET stage = ?, updated_at = NOW() WHERE tenant_id = ? AND id = ?", constants.TablePaymentTerm)
	_, err := r.db.ExecContext(ctx, query, stage, tenantID, id)
	return err
}

func (r *BillingRepository) DeletePaymentTerm(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TablePaymentTerm)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}

// --- To-dos ---

func (r *BillingRepository) CreateTodo(ctx context.Context, t *models.Todo) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, payment_term_id, title, done, done_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, constants.TableTodo)
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.TenantID, t.PaymentTermID, t.Title, t.Done, t.DoneAt, t.CreatedAt)
	return err
}

func (r *BillingRepository) ListTodos(ctx context.Context, tenantID, paymentTermID string) ([]models.Todo, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, payment_term_id, title, done, done_at, created_at
		FROM %s WHERE tenant_id = ? AND payment_term_id = ? ORDER BY created_at`, constants.TableTodo)

	rows, err := r.db.QueryContext(ctx, query, tenantID, paymentTermID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := make([]models.Todo, 0)
	for rows.Next() {
		var t models.Todo
		var doneAt sql.NullTime
		if err := rows.Scan(&t.ID, &t.TenantID, &t.PaymentTermID, &t.Title, &t.Done, &doneAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		if doneAt.Valid {
			t.DoneAt = &doneAt.Time
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// AllTodosDone reports whether every to-do of a payment term is complete.
// A term with no to-dos counts as done.
func (r *BillingRepository) AllTodosDone(ctx context.Context, tenantID, paymentTermID string) (bool, error) {
	var open int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE tenant_id = ? AND payment_term_id = ? AND done = 0", constants.TableTodo)
	err := r.db.QueryRowContext(ctx, query, tenantID, paymentTermID).Scan(&open)
	return open == 0, err
}

func (r *BillingRepository) SetTodoDone(ctx context.Context, tenantID, id string, done bool, doneAt *time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET done = ?, done_at = ? WHERE tenant_id = ? AND id = ?", constants.TableTodo)
	_, err := r.db.ExecContext(ctx, query, done, doneAt, tenantID, id)
	return err
}

func (r *BillingRepository) DeleteTodo(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableTodo)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}
