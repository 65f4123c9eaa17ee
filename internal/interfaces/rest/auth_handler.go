package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/application/services"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/errors"
)

type AuthHandler struct {
	svc *services.ServiceManager
}

func NewAuthHandler(svc *services.ServiceManager) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleCreateEnvelope(c, "user", "Account created", func() (interface{}, error) {
		return h.svc.Auth.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.svc.Auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"user":       result.User,
		"expires_at": result.ExpiresAt.Format(time.RFC3339),
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString, exists := c.Get(constants.ContextKeyToken)
	if !exists {
		RespondAppError(c, errors.NewUnauthorizedError("no token provided"))
		return
	}

	HandleDeleteEnvelope(c, "Logged out", func() error {
		return h.svc.Auth.Logout(c.Request.Context(), tokenString.(string))
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}

	account, memberships, err := h.svc.Auth.Me(c.Request.Context(), user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":        account,
		"memberships": memberships,
	})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !BindJSON(c, &req) {
		return
	}
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}

	HandleDeleteEnvelope(c, "Password changed", func() error {
		return h.svc.Auth.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	})
}
