package models

import "time"

// Contract is a finalized agreement derived from a won deal.
type Contract struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	DealID       string    `json:"deal_id"`
	CompanyID    *string   `json:"company_id,omitempty"`
	Name         string    `json:"name"`
	TotalValue   float64   `json:"total_value"`
	CurrencyCode string    `json:"currency_code"`
	SignedAt     time.Time `json:"signed_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PaymentTerm is one scheduled installment under a contract. Stage is
// maintained by the recommendation cascade and is best-effort
// last-write-wins.
type PaymentTerm struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	ContractID string     `json:"contract_id"`
	Seq        int        `json:"seq"`
	Amount     float64    `json:"amount"`
	DueDate    time.Time  `json:"due_date"`
	PaidDate   *time.Time `json:"paid_date,omitempty"`
	Stage      string     `json:"stage"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Todos []Todo `json:"todos,omitempty"`
}

// Todo is a small task attached to a payment term; completion feeds the
// stage cascade.
type Todo struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	PaymentTermID string     `json:"payment_term_id"`
	Title         string     `json:"title"`
	Done          bool       `json:"done"`
	DoneAt        *time.Time `json:"done_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
