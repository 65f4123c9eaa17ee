package constants

// Table names. Every business table carries a tenant_id column; system
// tables (users, sessions) are global.
const (
	TableUser       = "users"
	TableSession    = "sessions"
	TableTenant     = "tenants"
	TableMembership = "memberships"

	TableCompany  = "companies"
	TableContact  = "contacts"
	TableSite     = "sites"
	TableCustomer = "customers"
	TableLead     = "leads"
	TableDeal     = "deals"
	TableProject  = "projects"

	TableContract    = "contracts"
	TablePaymentTerm = "payment_terms"
	TableTodo        = "todos"
	TableCurrency    = "currencies"

	TableDeviceTemplate   = "device_templates"
	TableTemplateProperty = "template_properties"
	TablePropertyOption   = "property_options"
	TableDevice           = "devices"
	TableTemplateDraft    = "template_drafts"

	TableAuditLog = "audit_log"
)
