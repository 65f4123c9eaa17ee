package bootstrap

import (
	"fmt"
	"log"

	"github.com/nimbuscrm/backend/internal/infrastructure/database"
)

// tableDDL lists every table in dependency order. Statements are idempotent
// (CREATE TABLE IF NOT EXISTS) so startup can run them unconditionally.
var tableDDL = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id         VARCHAR(36) PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			email      VARCHAR(255) NOT NULL,
			password   VARCHAR(255),
			super_user BOOLEAN NOT NULL DEFAULT FALSE,
			is_active  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			last_login DATETIME NULL,
			UNIQUE KEY uq_users_email (email)
		)`},
	{"sessions", `
		CREATE TABLE IF NOT EXISTS sessions (
			id            VARCHAR(36) PRIMARY KEY,
			user_id       VARCHAR(36) NOT NULL,
			token         TEXT NOT NULL,
			expires_at    DATETIME NOT NULL,
			ip_address    VARCHAR(64),
			user_agent    VARCHAR(512),
			is_revoked    BOOLEAN NOT NULL DEFAULT FALSE,
			last_activity DATETIME NOT NULL,
			KEY idx_sessions_user (user_id)
		)`},
	{"tenants", `
		CREATE TABLE IF NOT EXISTS tenants (
			id         VARCHAR(36) PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			slug       VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE KEY uq_tenants_slug (slug)
		)`},
	{"memberships", `
		CREATE TABLE IF NOT EXISTS memberships (
			id         VARCHAR(36) PRIMARY KEY,
			tenant_id  VARCHAR(36) NOT NULL,
			user_id    VARCHAR(36) NOT NULL,
			role       VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE KEY uq_memberships_tenant_user (tenant_id, user_id),
			KEY idx_memberships_user (user_id)
		)`},
	{"companies", `
		CREATE TABLE IF NOT EXISTS companies (
			id         VARCHAR(36) PRIMARY KEY,
			tenant_id  VARCHAR(36) NOT NULL,
			name       VARCHAR(255) NOT NULL,
			vat_number VARCHAR(64),
			website    VARCHAR(255),
			phone      VARCHAR(64),
			notes      TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			KEY idx_companies_tenant (tenant_id),
			KEY idx_companies_tenant_name (tenant_id, name)
		)`},
	{"contacts", `
		CREATE TABLE IF NOT EXISTS contacts (
			id         VARCHAR(36) PRIMARY KEY,
			tenant_id  VARCHAR(36) NOT NULL,
			company_id VARCHAR(36),
			first_name VARCHAR(128) NOT NULL,
			last_name  VARCHAR(128) NOT NULL,
			email      VARCHAR(255),
			phone      VARCHAR(64),
			role       VARCHAR(128),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			KEY idx_contacts_tenant_company (tenant_id, company_id)
		)`},
	{"sites", `
		CREATE TABLE IF NOT EXISTS sites (
			id         VARCHAR(36) PRIMARY KEY,
			tenant_id  VARCHAR(36) NOT NULL,
			company_id VARCHAR(36) NOT NULL,
			name       VARCHAR(255) NOT NULL,
			address    VARCHAR(512),
			city       VARCHAR(128),
			country    VARCHAR(128),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			KEY idx_sites_tenant_company (tenant_id, company_id)
		)`},
	{"customers", `
		CREATE TABLE IF NOT EXISTS customers (
			id               VARCHAR(36) PRIMARY KEY,
			tenant_id        VARCHAR(36) NOT NULL,
			company_id       VARCHAR(36) NOT NULL,
			currency_code    VARCHAR(3) NOT NULL,
			payment_net_days INT NOT NULL DEFAULT 30,
			billing_email    VARCHAR(255),
			billing_address  VARCHAR(512),
			created_at       DATETIME NOT NULL,
			updated_at       DATETIME NOT NULL,
			UNIQUE KEY uq_customers_tenant_company (tenant_id, company_id)
		)`},
	{"leads", `
		CREATE TABLE IF NOT EXISTS leads (
			id         VARCHAR(36) PRIMARY KEY,
			tenant_id  VARCHAR(36) NOT NULL,
			kind       VARCHAR(16) NOT NULL,
			source_id  VARCHAR(36) NOT NULL,
			source     VARCHAR(128),
			status     VARCHAR(16) NOT NULL,
			notes      TEXT,
			deal_id    VARCHAR(36),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			KEY idx_leads_tenant_status (tenant_id, status)
		)`},
	{"deals", `
		CREATE TABLE IF NOT EXISTS deals (
			id            VARCHAR(36) PRIMARY KEY,
			tenant_id     VARCHAR(36) NOT NULL,
			company_id    VARCHAR(36),
			contact_id    VARCHAR(36),
			name          VARCHAR(255) NOT NULL,
			stage         VARCHAR(16) NOT NULL,
			amount        DECIMAL(14,2) NOT NULL DEFAULT 0,
			currency_code VARCHAR(3) NOT NULL,
			source        VARCHAR(128),
			owner_id      VARCHAR(36) NOT NULL,
			closed_at     DATETIME NULL,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL,
			KEY idx_deals_tenant_stage (tenant_id, stage),
			KEY idx_deals_tenant_company (tenant_id, company_id)
		)`},
	{"projects", `
		CREATE TABLE IF NOT EXISTS projects (
			id          VARCHAR(36) PRIMARY KEY,
			tenant_id   VARCHAR(36) NOT NULL,
			customer_id VARCHAR(36) NOT NULL,
			contract_id VARCHAR(36),
			name        VARCHAR(255) NOT NULL,
			status      VARCHAR(16) NOT NULL,
			start_date  DATE NULL,
			end_date    DATE NULL,
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL,
			KEY idx_projects_tenant_customer (tenant_id, customer_id)
		)`},
	{"contracts", `
		CREATE TABLE IF NOT EXISTS contracts (
			id            VARCHAR(36) PRIMARY KEY,
			tenant_id     VARCHAR(36) NOT NULL,
			deal_id       VARCHAR(36) NOT NULL,
			company_id    VARCHAR(36),
			name          VARCHAR(255) NOT NULL,
			total_value   DECIMAL(14,2) NOT NULL,
			currency_code VARCHAR(3) NOT NULL,
			signed_at     DATETIME NULL,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL,
			KEY idx_contracts_tenant (tenant_id),
			KEY idx_contracts_tenant_company (tenant_id, company_id)
		)`},
	{"payment_terms", `
		CREATE TABLE IF NOT EXISTS payment_terms (
			id          VARCHAR(36) PRIMARY KEY,
			tenant_id   VARCHAR(36) NOT NULL,
			contract_id VARCHAR(36) NOT NULL,
			seq         INT NOT NULL,
			amount      DECIMAL(14,2) NOT NULL,
			due_date    DATETIME NOT NULL,
			paid_date   DATETIME NULL,
			stage       VARCHAR(16) NOT NULL,
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL,
			KEY idx_payment_terms_tenant_contract (tenant_id, contract_id),
			KEY idx_payment_terms_stage (stage)
		)`},
	{"todos", `
		CREATE TABLE IF NOT EXISTS todos (
			id              VARCHAR(36) PRIMARY KEY,
			tenant_id       VARCHAR(36) NOT NULL,
			payment_term_id VARCHAR(36) NOT NULL,
			title           VARCHAR(255) NOT NULL,
			done            BOOLEAN NOT NULL DEFAULT FALSE,
			done_at         DATETIME NULL,
			created_at      DATETIME NOT NULL,
			KEY idx_todos_tenant_term (tenant_id, payment_term_id)
		)`},
	{"currencies", `
		CREATE TABLE IF NOT EXISTS currencies (
			code       VARCHAR(3) PRIMARY KEY,
			name       VARCHAR(128) NOT NULL,
			symbol     VARCHAR(8),
			rate       DECIMAL(14,6) NOT NULL,
			is_base    BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at DATETIME NOT NULL
		)`},
	{"device_templates", `
		CREATE TABLE IF NOT EXISTS device_templates (
			id                  VARCHAR(36) PRIMARY KEY,
			tenant_id           VARCHAR(36) NOT NULL,
			name                VARCHAR(255) NOT NULL,
			base_price          DECIMAL(14,2) NOT NULL,
			currency_code       VARCHAR(3) NOT NULL,
			sku_formula         VARCHAR(512),
			description_formula VARCHAR(1024),
			created_at          DATETIME NOT NULL,
			updated_at          DATETIME NOT NULL,
			KEY idx_device_templates_tenant (tenant_id)
		)`},
	{"template_properties", `
		CREATE TABLE IF NOT EXISTS template_properties (
			id          VARCHAR(36) PRIMARY KEY,
			template_id VARCHAR(36) NOT NULL,
			name        VARCHAR(128) NOT NULL,
			type        VARCHAR(16) NOT NULL,
			required    BOOLEAN NOT NULL DEFAULT FALSE,
			seq         INT NOT NULL,
			KEY idx_template_properties_template (template_id)
		)`},
	{"property_options", `
		CREATE TABLE IF NOT EXISTS property_options (
			id          VARCHAR(36) PRIMARY KEY,
			property_id VARCHAR(36) NOT NULL,
			value       VARCHAR(255) NOT NULL,
			cost_expr   VARCHAR(512),
			seq         INT NOT NULL,
			KEY idx_property_options_property (property_id)
		)`},
	{"devices", `
		CREATE TABLE IF NOT EXISTS devices (
			id              VARCHAR(36) PRIMARY KEY,
			tenant_id       VARCHAR(36) NOT NULL,
			template_id     VARCHAR(36) NOT NULL,
			sku             VARCHAR(255) NOT NULL,
			description     VARCHAR(1024),
			price           DECIMAL(14,2) NOT NULL,
			property_values JSON,
			created_at      DATETIME NOT NULL,
			updated_at      DATETIME NOT NULL,
			KEY idx_devices_tenant_template (tenant_id, template_id)
		)`},
	{"template_drafts", `
		CREATE TABLE IF NOT EXISTS template_drafts (
			tenant_id   VARCHAR(36) NOT NULL,
			user_id     VARCHAR(36) NOT NULL,
			template_id VARCHAR(36) NOT NULL,
			payload     MEDIUMTEXT NOT NULL,
			updated_at  DATETIME NOT NULL,
			PRIMARY KEY (tenant_id, user_id, template_id),
			KEY idx_template_drafts_updated (updated_at)
		)`},
	{"audit_log", `
		CREATE TABLE IF NOT EXISTS audit_log (
			id          VARCHAR(36) PRIMARY KEY,
			tenant_id   VARCHAR(36) NOT NULL,
			actor_id    VARCHAR(36) NOT NULL,
			entity_type VARCHAR(64) NOT NULL,
			entity_id   VARCHAR(36) NOT NULL,
			action      VARCHAR(64) NOT NULL,
			detail      TEXT,
			created_at  DATETIME NOT NULL,
			KEY idx_audit_tenant_entity (tenant_id, entity_type, entity_id)
		)`},
}

// InitializeSchema creates every table on startup. Safe to run on every
// boot.
func InitializeSchema(db *database.Connection) error {
	log.Println("Initializing schema...")

	for _, t := range tableDDL {
		if _, err := db.Exec(t.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
	}

	log.Printf("Schema ready (%d tables)", len(tableDDL))
	return nil
}
