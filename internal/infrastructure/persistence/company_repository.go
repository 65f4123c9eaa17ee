package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

// CompanyRepository owns the companies, contacts, and sites tables.
// Every query carries a tenant_id predicate; callers pass the tenant
// resolved from the authenticated membership.
type CompanyRepository struct {
	db *database.Connection
}

func NewCompanyRepository(db *database.Connection) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// --- Companies ---

func (r *CompanyRepository) CreateCompany(ctx context.Context, c *models.Company) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, name, vat_number, website, phone, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableCompany)
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.TenantID, c.Name, c.VATNumber, c.Website, c.Phone, c.Notes, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CompanyRepository) GetCompany(ctx context.Context, tenantID, id string) (*models.Company, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, name, vat_number, website, phone, notes, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND id = ? LIMIT 1`, constants.TableCompany)

	var c models.Company
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.VATNumber, &c.Website, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCompanies returns companies of a tenant, optionally filtered by a
// case-insensitive name substring.
func (r *CompanyRepository) ListCompanies(ctx context.Context, tenantID, search string) ([]*models.Company, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, name, vat_number, website, phone, notes, created_at, updated_at
		FROM %s WHERE tenant_id = ?`, constants.TableCompany)
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

	companies := make([]*models.Company, 0)
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.VATNumber, &c.Website, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

func (r *CompanyRepository) UpdateCompany(ctx context.Context, c *models.Company) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = ?, vat_number = ?, website = ?, phone = ?, notes = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TableCompany)
	_, err := r.db.ExecContext(ctx, query,
		c.Name, c.VATNumber, c.Website, c.Phone, c.Notes, c.UpdatedAt, c.TenantID, c.ID)
	return err
}

func (r *CompanyRepository) DeleteCompany(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableCompany)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}

// --- Contacts ---

func (r *CompanyRepository) CreateContact(ctx context.Context, c *models.Contact) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, company_id, first_name, last_name, email, phone, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableContact)
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.TenantID, c.CompanyID, c.FirstName, c.LastName, c.Email, c.Phone, c.Role, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CompanyRepository) GetContact(ctx context.Context, tenantID, id string) (*models.Contact, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, company_id, first_name, last_name, email, phone, role, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND id = ? LIMIT 1`, constants.TableContact)

	var c models.Contact
	var companyID sql.NullString
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&c.ID, &c.TenantID, &companyID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Role, &c.CreatedAt, &c.UpdatedAt)
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

// ListContacts returns contacts of a tenant. companyID and search are
// optional filters.
func (r *CompanyRepository) ListContacts(ctx context.Context, tenantID, companyID, search string) ([]*models.Contact, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, company_id, first_name, last_name, email, phone, role, created_at, updated_at
		FROM %s WHERE tenant_id = ?`, constants.TableContact)
	args := []interface{}{tenantID}

	if companyID != "" {
		query += " AND company_id = ?"
		args = append(args, companyID)
	}
	if search != "" {
		query += " AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)"
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	query += " ORDER BY last_name, first_name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]*models.Contact, 0)
	for rows.Next() {
		var c models.Contact
		var cid sql.NullString
		if err := rows.Scan(&c.ID, &c.TenantID, &cid, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Role, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if cid.Valid {
			c.CompanyID = &cid.String
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

func (r *CompanyRepository) UpdateContact(ctx context.Context, c *models.Contact) error {
	query := fmt.Sprintf(`
		UPDATE %s SET company_id = ?, first_name = ?, last_name = ?, email = ?, phone = ?, role = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TableContact)
	_, err := r.db.ExecContext(ctx, query,
		c.CompanyID, c.FirstName, c.LastName, c.Email, c.Phone, c.Role, c.UpdatedAt, c.TenantID, c.ID)
	return err
}

func (r *CompanyRepository) DeleteContact(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableContact)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}

// --- Sites ---

func (r *CompanyRepository) CreateSite(ctx context.Context, s *models.Site) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, company_id, name, address, city, country, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableSite)
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.TenantID, s.CompanyID, s.Name, s.Address, s.City, s.Country, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *CompanyRepository) GetSite(ctx context.Context, tenantID, id string) (*models.Site, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, company_id, name, address, city, country, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND id = ? LIMIT 1`, constants.TableSite)

	var s models.Site
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&s.ID, &s.TenantID, &s.CompanyID, &s.Name, &s.Address, &s.City, &s.Country, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *CompanyRepository) ListSites(ctx context.Context, tenantID, companyID string) ([]*models.Site, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, company_id, name, address, city, country, created_at, updated_at
		FROM %s WHERE tenant_id = ?`, constants.TableSite)
	args := []interface{}{tenantID}

	if companyID != "" {
		query += " AND company_id = ?"
		args = append(args, companyID)
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sites := make([]*models.Site, 0)
	for rows.Next() {
		var s models.Site
		if err := rows.Scan(&s.ID, &s.TenantID, &s.CompanyID, &s.Name, &s.Address, &s.City, &s.Country, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sites = append(sites, &s)
	}
	return sites, rows.Err()
}

func (r *CompanyRepository) UpdateSite(ctx context.Context, s *models.Site) error {
	query := fmt.Sprintf(`
		UPDATE %s SET company_id = ?, name = ?, address = ?, city = ?, country = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`, constants.TableSite)
	_, err := r.db.ExecContext(ctx, query,
		s.CompanyID, s.Name, s.Address, s.City, s.Country, s.UpdatedAt, s.TenantID, s.ID)
	return err
}

func (r *CompanyRepository) DeleteSite(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND id = ?", constants.TableSite)
	_, err := r.db.ExecContext(ctx, query, tenantID, id)
	return err
}
