package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/pkg/auth"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/errors"
)

func abortWith(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		constants.ResponseError:   message,
		constants.ResponseMessage: message,
		"code":                    code,
	})
	c.Abort()
}

// RequireAuth validates the Bearer token and its persisted session, then
// stores the user session and token in the request context.
func RequireAuth(authSvc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "no authorization token provided")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
			return
		}
		tokenString := parts[1]

		claims, err := authSvc.ValidateSession(c.Request.Context(), tokenString)
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}

		authSvc.TouchSession(claims.RegisteredClaims.ID)

		c.Set(constants.ContextKeyUser, claims.User)
		c.Set(constants.ContextKeyToken, tokenString)
		c.Next()
	}
}

// RequireTenant resolves the X-Tenant-ID header to an active membership
// of the authenticated user and stores it in the context. This is the
// row-level-security analog: handlers only ever see the resolved tenant.
func RequireTenant(tenantSvc *services.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userInterface, exists := c.Get(constants.ContextKeyUser)
		if !exists {
			abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "user not authenticated")
			return
		}
		user := userInterface.(auth.UserSession)

		tenantID := c.GetHeader(constants.HeaderTenantID)
		membership, err := tenantSvc.ResolveMembership(c.Request.Context(), tenantID, user.ID, user.SuperUser)
		if err != nil {
			abortWith(c, errors.GetHTTPStatus(err), errors.GetErrorCode(err), err.Error())
			return
		}

		c.Set(constants.ContextKeyTenant, membership.TenantID)
		c.Set(constants.ContextKeyMembership, membership)
		c.Next()
	}
}

// RequireTenantAdmin gates tenant administration routes. Must run after
// RequireTenant.
func RequireTenantAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		membershipInterface, exists := c.Get(constants.ContextKeyMembership)
		if !exists {
			abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "tenant not resolved")
			return
		}
		membership := membershipInterface.(*models.Membership)
		if !constants.IsAdminRole(membership.Role) {
			abortWith(c, http.StatusForbidden, "FORBIDDEN", "tenant admin role required")
			return
		}
		c.Next()
	}
}

// RequireSuperUser gates server-operator routes (currency management,
// raw report SQL).
func RequireSuperUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userInterface, exists := c.Get(constants.ContextKeyUser)
		if !exists {
			abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "user not authenticated")
			return
		}
		user := userInterface.(auth.UserSession)
		if !user.SuperUser {
			abortWith(c, http.StatusForbidden, "FORBIDDEN", "super user required")
			return
		}
		c.Next()
	}
}

// Cors allows cross-origin requests from the SPA frontends.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, "+constants.HeaderAuthorization+", "+constants.HeaderTenantID)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
