package constants

// Common field/column names shared across repositories and handlers.
const (
	FieldID         = "id"
	FieldEmail      = "email"
	FieldIsRevoked  = "is_revoked"
	FieldLastActive = "last_activity"
)

// Gin context keys and HTTP headers.
const (
	ContextKeyUser       = "user"
	ContextKeyToken      = "token"
	ContextKeyTenant     = "tenant_id"
	ContextKeyMembership = "membership"

	HeaderAuthorization = "Authorization"
	HeaderTenantID      = "X-Tenant-ID"
)

// Response envelope keys.
const (
	ResponseError   = "error"
	ResponseMessage = "message"
)
