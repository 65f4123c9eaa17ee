package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

// CustomerRepository owns the customers and projects tables.
type CustomerRepository struct {
	db *database.Connection
}

func NewCustomerRepository(db *database.Connection) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// --- Customers ---

func (r *CustomerRepository) CreateCustomer(ctx context.Context, c *models.Customer) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, company_id, currency_code, payment_net_days, billing_email, billing_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableCustomer)
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.TenantID, c.CompanyID, c.CurrencyCode, c.PaymentNetDays, c.BillingEmail, c.BillingAddress, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CustomerRepository) GetCustomer(ctx context.Context, tenantID, id string) (*models.Customer, error) {
	query := fmt.Sprintf(`
		SELECT c.id, c.tenant_id, c.company_id, c.currency_code, c.payment_net_days,
		       c.billing_email, c.billing_address, c.created_at, c.updated_at, co.name
		FROM %s c JOIN %s co ON co.id = c.company_id
		WHERE c.tenant_id = ? AND c.id = ? LIMIT 1`, constants.TableCustomer, constants.TableCompany)

	var c models.Customer
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&c.ID, &c.TenantID, &c.CompanyID, &c.CurrencyCode, &c.PaymentNetDays,
		&c.BillingEmail, &c.BillingAddress, &c.CreatedAt, &c.UpdatedAt, &c.CompanyName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CustomerExistsForCompany reports whether a company was already promoted.
func (r *CustomerRepository) CustomerExistsForCompany(ctx context.Context, tenantID, companyID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE tenant_id = ? AND company_id = ?)", constants.TableCustomer)
	err := r.db.QueryRowContext(ctx, query, tenantID, companyID).Scan(&exists)
	return exists, err
}

func (r *CustomerRepository) ListCustomers(ctx context.Context, tenantID, search string) ([]*models.Customer, error) {
	query := fmt.Sprintf(`
		SELECT c.id, c.tenant_id, c.company_id, c.currency_code, c.payment_net_days,
		       c.billing_email, c.billing_address, c.created_at, c.updated_at, co.name
		FROM %s c JOIN %s co ON co.id = c.company_id
		WHERE c.tenant_id = ?`, constants.TableCustomer, constants.TableCompany)
	args := []interface{}{tenantID}

	if search != "" {
		query += " AND co.name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY co.name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]*models.Customer, 0)
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.TenantID, &c.CompanyID, &c.CurrencyCode, &c.PaymentNetDays,
			&c.BillingEmail, &c.BillingAddress, &c.CreatedAt, &c.UpdatedAt, &c.CompanyName); err != nil {
			return nil, err
		}
		customers = append(customers, &c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	query := fmt.Sprintf(`
		UPDATE %s SET currency_code = ?, payment_net_days = ?, billing_email = ?, billing_address = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TableCustomer)
	_, err := r.db.ExecContext(ctx, query,
		c.CurrencyCode, c.PaymentNetDays, c.BillingEmail, c.BillingAddress, c.UpdatedAt, c.TenantID, c.ID)
	return err
}

func (r *CustomerRepository) DeleteCustomer(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableCustomer)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}

// --- Projects ---

func (r *CustomerRepository) CreateProject(ctx context.Context, p *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, customer_id, contract_id, name, status, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableProject)
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.TenantID, p.CustomerID, p.ContractID, p.Name, p.Status, p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *CustomerRepository) GetProject(ctx context.Context, tenantID, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, customer_id, contract_id, name, status, start_date, end_date, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND id = ? LIMIT 1`, constants.TableProject)

	var p models.Project
	var contractID sql.NullString
	var start, end sql.NullTime
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&p.ID, &p.TenantID, &p.CustomerID, &contractID, &p.Name, &p.Status, &start, &end, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if contractID.Valid {
		p.ContractID = &contractID.String
	}
	if start.Valid {
		p.StartDate = &start.Time
	}
	if end.Valid {
		p.EndDate = &end.Time
	}
	return &p, nil
}

func (r *CustomerRepository) ListProjects(ctx context.Context, tenantID, customerID, status string) ([]*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, customer_id, contract_id, name, status, start_date, end_date, created_at, updated_at
		FROM %s WHERE tenant_id = ?`, constants.TableProject)
	args := []interface{}{tenantID}

	if customerID != "" {
		query += " AND customer_id = ?"
		args = append(args, customerID)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	for rows.Next() {
		var p models.Project
		var contractID sql.NullString
		var start, end sql.NullTime
		if err := rows.Scan(&p.ID, &p.TenantID, &p.CustomerID, &contractID, &p.Name, &p.Status, &start, &end, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if contractID.Valid {
			p.ContractID = &contractID.String
		}
		if start.Valid {
			p.StartDate = &start.Time
		}
		if end.Valid {
			p.EndDate = &end.Time
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *CustomerRepository) UpdateProject(ctx context.Context, p *models.Project) error {
	query := fmt.Sprintf(`
		UPDATE %s SET customer_id = ?, contract_id = ?, name = ?, status = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TableProject)
	_, err := r.db.ExecContext(ctx, query,
		p.CustomerID, p.ContractID, p.Name, p.Status, p.StartDate, p.EndDate, p.UpdatedAt, p.TenantID, p.ID)
	return err
}

func (r *CustomerRepository) DeleteProject(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableProject)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}
