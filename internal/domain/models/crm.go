package models

import "time"

// Company is the anchor CRM record; contacts and sites hang off it.
type Company struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	VATNumber string    `json:"vat_number,omitempty"`
	Website   string    `json:"website,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact is a person, optionally attached to a company.
type Contact struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	CompanyID *string   `json:"company_id,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Site is a physical location belonging to a company.
type Site struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer promotes a company to customer status with billing defaults.
type Customer struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	CompanyID       string    `json:"company_id"`
	CurrencyCode    string    `json:"currency_code"`
	PaymentNetDays  int       `json:"payment_net_days"`
	BillingEmail    string    `json:"billing_email,omitempty"`
	BillingAddress  string    `json:"billing_address,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	CompanyName string `json:"company_name,omitempty"` // joined
}

// Lead flags a company, contact, or site as a pre-sales prospect.
type Lead struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Kind       string    `json:"kind"` // company | contact | site
	SourceID   string    `json:"source_id"`
	Source     string    `json:"source,omitempty"` // where the prospect came from (referral, web, ...)
	Status     string    `json:"status"`           // open | converted
	Notes      string    `json:"notes,omitempty"`
	DealID     *string   `json:"deal_id,omitempty"` // set on conversion
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Deal is a sales opportunity tracked through a stage pipeline.
type Deal struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	CompanyID    *string    `json:"company_id,omitempty"`
	ContactID    *string    `json:"contact_id,omitempty"`
	Name         string     `json:"name"`
	Stage        string     `json:"stage"`
	Amount       float64    `json:"amount"`
	CurrencyCode string     `json:"currency_code"`
	Source       string     `json:"source,omitempty"` // conversion source, threaded from the lead
	OwnerID      string     `json:"owner_id"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Project is a delivery project for a customer, optionally under a contract.
type Project struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	CustomerID string     `json:"customer_id"`
	ContractID *string    `json:"contract_id,omitempty"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
