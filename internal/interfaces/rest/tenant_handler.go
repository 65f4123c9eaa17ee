package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/pkg/errors"
)

type TenantHandler struct {
	svc *services.ServiceManager
}

func NewTenantHandler(svc *services.ServiceManager) *TenantHandler {
	return &TenantHandler{svc: svc}
}

type CreateTenantRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateTenant handles POST /api/tenants. The creator becomes admin.
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req CreateTenantRequest
	if !BindJSON(c, &req) {
		return
	}
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}

	HandleCreateEnvelope(c, "tenant", "Tenant created", func() (interface{}, error) {
		return h.svc.Tenants.CreateTenant(c.Request.Context(), req.Name, user.ID)
	})
}

// MyTenants handles GET /api/tenants
func (h *TenantHandler) MyTenants(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}

	HandleGetEnvelope(c, "memberships", func() (interface{}, error) {
		return h.svc.Tenants.MyTenants(c.Request.Context(), user.ID)
	})
}

// Members handles GET /api/members
func (h *TenantHandler) Members(c *gin.Context) {
	HandleGetEnvelope(c, "members", func() (interface{}, error) {
		return h.svc.Tenants.Members(c.Request.Context(), GetTenantID(c))
	})
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

// AddMember handles POST /api/members (tenant admin only)
func (h *TenantHandler) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if !BindJSON(c, &req) {
		return
	}
	user := GetUserFromContext(c)

	HandleCreateEnvelope(c, "member", "Member added", func() (interface{}, error) {
		return h.svc.Tenants.AddMember(c.Request.Context(), GetTenantID(c), user.ID, req.Email, req.Role)
	})
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeRole handles PUT /api/members/:id (tenant admin only)
func (h *TenantHandler) ChangeRole(c *gin.Context) {
	var req ChangeRoleRequest
	if !BindJSON(c, &req) {
		return
	}
	user := GetUserFromContext(c)

	HandleDeleteEnvelope(c, "Role updated", func() error {
		return h.svc.Tenants.ChangeRole(c.Request.Context(), GetTenantID(c), user.ID, c.Param("id"), req.Role)
	})
}

// RemoveMember handles DELETE /api/members/:id (tenant admin only).
// Admins cannot remove their own membership; another admin has to.
func (h *TenantHandler) RemoveMember(c *gin.Context) {
	user := GetUserFromContext(c)
	if m := GetMembership(c); m != nil && m.ID == c.Param("id") {
		RespondAppError(c, errors.NewValidationError("member", "cannot remove your own membership"))
		return
	}

	HandleDeleteEnvelope(c, "Member removed", func() error {
		return h.svc.Tenants.RemoveMember(c.Request.Context(), GetTenantID(c), user.ID, c.Param("id"))
	})
}
