package rest

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/pkg/auth"
	"github.com/nimbuscrm/backend/pkg/constants"
	"github.com/nimbuscrm/backend/pkg/errors"
)

// GetUserFromContext extracts the authenticated user placed by RequireAuth.
func GetUserFromContext(c *gin.Context) *auth.UserSession {
	userInterface, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil
	}
	user := userInterface.(auth.UserSession)
	return &user
}

// GetTenantID returns the tenant resolved by RequireTenant.
func GetTenantID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyTenant)
}

// GetMembership returns the membership resolved by RequireTenant.
func GetMembership(c *gin.Context) *models.Membership {
	membershipInterface, exists := c.Get(constants.ContextKeyMembership)
	if !exists {
		return nil
	}
	return membershipInterface.(*models.Membership)
}

// RespondAppError sends a standardised JSON error using pkg/errors.
func RespondAppError(c *gin.Context, err error) {
	status := errors.GetHTTPStatus(err)
	if status >= 500 {
		log.Printf("ERROR [%d] %s %s: %v", status, c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		constants.ResponseError:   err.Error(),
		constants.ResponseMessage: err.Error(),
		"code":                    errors.GetErrorCode(err),
	})
}

// BindJSON binds the request body and responds with a validation error on
// failure.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGetEnvelope runs a read action and wraps the result:
// { [key]: result }.
func HandleGetEnvelope(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleCreateEnvelope runs a create action and wraps the result:
// { message, [key]: result } with status 201.
func HandleCreateEnvelope(c *gin.Context, key, successMsg string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	response := gin.H{constants.ResponseMessage: successMsg}
	if key != "" {
		response[key] = result
	}
	c.JSON(http.StatusCreated, response)
}

// HandleUpdateEnvelope runs an update action and wraps the result:
// { message, [key]: result }.
func HandleUpdateEnvelope(c *gin.Context, key, successMsg string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	response := gin.H{constants.ResponseMessage: successMsg}
	if key != "" {
		response[key] = result
	}
	c.JSON(http.StatusOK, response)
}

// HandleDeleteEnvelope runs a delete action and responds { message }.
func HandleDeleteEnvelope(c *gin.Context, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.ResponseMessage: successMsg})
}
