package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/pkg/auth"
	"github.com/nimbuscrm/backend/pkg/constants"
)

func TestRemoveMemberRejectsOwnMembership(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/members/mem-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "mem-1"}}
	c.Set(constants.ContextKeyUser, auth.UserSession{ID: "user-1"})
	c.Set(constants.ContextKeyTenant, "tenant-1")
	c.Set(constants.ContextKeyMembership, &models.Membership{
		ID: "mem-1", TenantID: "tenant-1", UserID: "user-1", Role: constants.RoleAdmin,
	})

	// A nil service manager panics if the guard ever lets the call through.
	NewTenantHandler(nil).RemoveMember(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "own membership")
}
