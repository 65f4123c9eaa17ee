package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/errors"
	"github.com/nimbuscrm/backend/pkg/utils"
)

// TenantService manages tenants and memberships. Membership resolution is
// the server-side analog of row-level security: every tenant-scoped
// request passes through ResolveMembership before any repository call.
type TenantService struct {
	tenants *persistence.TenantRepository
	users   *persistence.UserRepository
	audit   *AuditService
}

func NewTenantService(tenants *persistence.TenantRepository, users *persistence.UserRepository, audit *AuditService) *TenantService {
	return &TenantService{tenants: tenants, users: users, audit: audit}
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a tenant name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugCleanRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// CreateTenant creates a tenant and makes the creator its admin.
func (s *TenantService) CreateTenant(ctx context.Context, name, creatorID string) (*models.Tenant, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("name", "tenant name is required")
	}

	slug := Slugify(name)
	if slug == "" {
		return nil, errors.NewValidationError("name", "tenant name must contain letters or digits")
	}
	taken, err := s.tenants.SlugExists(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if taken {
		return nil, errors.NewConflictError("tenant", "slug", slug)
	}

	tenant := &models.Tenant{
		ID:        utils.GenerateID(),
		Name:      strings.TrimSpace(name),
		Slug:      slug,
		CreatedAt: time.Now(),
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	membership := &models.Membership{
		ID:        utils.GenerateID(),
		TenantID:  tenant.ID,
		UserID:    creatorID,
		Role:      constants.RoleAdmin,
		CreatedAt: time.Now(),
	}
	if err := s.tenants.AddMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to create admin membership: %w", err)
	}

	return tenant, nil
}

// MyTenants lists the caller's memberships with tenant names.
func (s *TenantService) MyTenants(ctx context.Context, userID string) ([]*models.Membership, error) {
	return s.tenants.ListForUser(ctx, userID)
}

// ResolveMembership maps (tenantID, user) to an active membership. Super
// users get a synthetic admin membership in any tenant.
func (s *TenantService) ResolveMembership(ctx context.Context, tenantID, userID string, superUser bool) (*models.Membership, error) {
	if tenantID == "" {
		return nil, errors.NewValidationError("tenant", "missing "+constants.HeaderTenantID+" header")
	}

	m, err := s.tenants.GetMembership(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if m == nil {
		if superUser {
			tenant, err := s.tenants.GetByID(ctx, tenantID)
			if err != nil {
				return nil, fmt.Errorf("database error: %w", err)
			}
			if tenant == nil {
				return nil, errors.NewNotFoundError("tenant", tenantID)
			}
			return &models.Membership{
				TenantID: tenantID,
				UserID:   userID,
				Role:     constants.RoleSuperAdmin,
			}, nil
		}
		return nil, errors.NewPermissionError("access", "tenant")
	}
	return m, nil
}

// Members lists all members of a tenant.
func (s *TenantService) Members(ctx context.Context, tenantID string) ([]*models.Membership, error) {
	return s.tenants.ListForTenant(ctx, tenantID)
}

// AddMember attaches an existing user account to the tenant by email.
func (s *TenantService) AddMember(ctx context.Context, tenantID, actorID, email, role string) (*models.Membership, error) {
	if role != constants.RoleAdmin && role != constants.RoleMember {
		return nil, errors.NewValidationError("role", "role must be admin or member")
	}

	user, err := s.users.FindByEmailWithPassword(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user", email)
	}

	existing, err := s.tenants.GetMembership(ctx, tenantID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError("membership", "email", email)
	}

	m := &models.Membership{
		ID:        utils.GenerateID(),
		TenantID:  tenantID,
		UserID:    user.ID,
		Role:      role,
		CreatedAt: time.Now(),
		UserName:  user.Name,
		UserEmail: user.Email,
	}
	if err := s.tenants.AddMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.audit.Record(ctx, tenantID, actorID, "membership", m.ID, constants.AuditMemberChange,
		fmt.Sprintf("added %s as %s", email, role))
	return m, nil
}

// ChangeRole updates a member's role. The last admin cannot be demoted.
func (s *TenantService) ChangeRole(ctx context.Context, tenantID, actorID, membershipID, role string) error {
	if role != constants.RoleAdmin && role != constants.RoleMember {
		return errors.NewValidationError("role", "role must be admin or member")
	}

	members, err := s.tenants.ListForTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	var target *models.Membership
	for _, m := range members {
		if m.ID == membershipID {
			target = m
			break
		}
	}
	if target == nil {
		return errors.NewNotFoundError("membership", membershipID)
	}

	if constants.IsAdminRole(target.Role) && role == constants.RoleMember {
		admins, err := s.tenants.CountAdmins(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if admins <= 1 {
			return errors.NewValidationError("role", "cannot demote the last admin")
		}
	}

	if err := s.tenants.UpdateMembershipRole(ctx, membershipID, role); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	s.audit.Record(ctx, tenantID, actorID, "membership", membershipID, constants.AuditMemberChange,
		fmt.Sprintf("role changed to %s", role))
	return nil
}

// RemoveMember deletes a membership. The last admin cannot be removed.
func (s *TenantService) RemoveMember(ctx context.Context, tenantID, actorID, membershipID string) error {
	members, err := s.tenants.ListForTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	var target *models.Membership
	for _, m := range members {
		if m.ID == membershipID {
			target = m
			break
		}
	}
	if target == nil {
		return errors.NewNotFoundError("membership", membershipID)
	}

	if constants.IsAdminRole(target.Role) {
		admins, err := s.tenants.CountAdmins(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if admins <= 1 {
			return errors.NewValidationError("membership", "cannot remove the last admin")
		}
	}

	if err := s.tenants.RemoveMembership(ctx, membershipID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	s.audit.Record(ctx, tenantID, actorID, "membership", membershipID, constants.AuditMemberChange, "member removed")
	return nil
}
