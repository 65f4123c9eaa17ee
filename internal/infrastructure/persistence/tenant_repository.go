package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

// TenantRepository owns the tenants and memberships tables.
type TenantRepository struct {
	db *database.Connection
}

func NewTenantRepository(db *database.Connection) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, t *models.Tenant) error {
	query := fmt.Sprintf("INSERT INTO %s (id, name, slug, created_at) VALUES (?, ?, ?, ?)", constants.TableTenant)
	_, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.Slug, t.CreatedAt)
	return err
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := fmt.Sprintf("SELECT id, name, slug, created_at FROM %s WHERE id = ? LIMIT 1", constants.TableTenant)
	var t models.Tenant
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE slug = ?)", constants.TableTenant)
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists)
	return exists, err
}

// --- Memberships ---

func (r *TenantRepository) AddMembership(ctx context.Context, m *models.Membership) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?, ?)`, constants.TableMembership)
	_, err := r.db.ExecContext(ctx, query, m.ID, m.TenantID, m.UserID, m.Role, m.CreatedAt)
	return err
}

// GetMembership resolves a user's membership in a tenant. Returns (nil, nil)
// when the user is not a member.
func (r *TenantRepository) GetMembership(ctx context.Context, tenantID, userID string) (*models.Membership, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, user_id, role, created_at
		FROM %s WHERE tenant_id = ? AND user_id = ? LIMIT 1`, constants.TableMembership)

	var m models.Membership
	err := r.db.QueryRowContext(ctx, query, tenantID, userID).Scan(
		&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListForUser returns all memberships of a user with tenant names joined.
func (r *TenantRepository) ListForUser(ctx context.Context, userID string) ([]*models.Membership, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.tenant_id, m.user_id, m.role, m.created_at, t.name
		FROM %s m JOIN %s t ON t.id = m.tenant_id
		WHERE m.user_id = ?
		ORDER BY t.name`, constants.TableMembership, constants.TableTenant)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]*models.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.CreatedAt, &m.TenantName); err != nil {
			return nil, err
		}
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}

// ListForTenant returns all members of a tenant with user info joined.
func (r *TenantRepository) ListForTenant(ctx context.Context, tenantID string) ([]*models.Membership, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.tenant_id, m.user_id, m.role, m.created_at, u.name, u.email
		FROM %s m JOIN %s u ON u.id = m.user_id
		WHERE m.tenant_id = ?
		ORDER BY u.name`, constants.TableMembership, constants.TableUser)

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]*models.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.CreatedAt, &m.UserName, &m.UserEmail); err != nil {
			return nil, err
		}
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}

func (r *TenantRepository) UpdateMembershipRole(ctx context.Context, membershipID, role string) error {
	query := fmt.Sprintf("UPDATE %s SET role = ? WHERE id = ?", constants.TableMembership)
	_, err := r.db.ExecContext(ctx, query, role, membershipID)
	return err
}

func (r *TenantRepository) RemoveMembership(ctx context.Context, membershipID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", constants.TableMembership)
	_, err := r.db.ExecContext(ctx, query, membershipID)
	return err
}

// CountAdmins counts admin-role members of a tenant; removing the last
// admin is rejected at the service layer.
func (r *TenantRepository) CountAdmins(ctx context.Context, tenantID string) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE tenant_id = ? AND role IN (?, ?)", constants.TableMembership)
	err := r.db.QueryRowContext(ctx, query, tenantID, constants.RoleAdmin, constants.RoleSuperAdmin).Scan(&n)
	return n, err
}
