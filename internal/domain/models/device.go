package models

import "time"

// DeviceTemplate is a reusable schema of named properties used to generate
// device SKUs/descriptions and to validate device data entry. SKUFormula
// and DescriptionFormula are plain strings with {property} placeholders.
type DeviceTemplate struct {
	ID                 string    `json:"id"`
	TenantID           string    `json:"tenant_id"`
	Name               string    `json:"name"`
	BasePrice          float64   `json:"base_price"`
	CurrencyCode       string    `json:"currency_code"`
	SKUFormula         string    `json:"sku_formula"`
	DescriptionFormula string    `json:"description_formula"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Properties []TemplateProperty `json:"properties,omitempty"`
}

// TemplateProperty is one named slot in a device template.
type TemplateProperty struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	Name       string `json:"name"`
	Type       string `json:"type"` // text | number | select
	Required   bool   `json:"required"`
	Seq        int    `json:"seq"`

	Options []PropertyOption `json:"options,omitempty"` // select properties only
}

// PropertyOption is an allowed value of a select property, optionally
// carrying a cost-modifier expression evaluated with env {base, value}.
type PropertyOption struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Value      string `json:"value"`
	CostExpr   string `json:"cost_expr,omitempty"`
	Seq        int    `json:"seq"`
}

// Device is a catalog entry instantiated from a template.
type Device struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenant_id"`
	TemplateID  string            `json:"template_id"`
	SKU         string            `json:"sku"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Values      map[string]string `json:"values"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TemplateDraft is auto-saved form state, one row per
// (tenant, user, template). UpdatedAt arbitrates stale writes.
type TemplateDraft struct {
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	TemplateID string    `json:"template_id"`
	Payload    string    `json:"payload"` // opaque JSON form state
	UpdatedAt  time.Time `json:"updated_at"`
}
