package models

// TenantContext identifies who is acting. Every engine operation takes one explicitly.
type TenantContext struct {
	CompanyID string `json:"company_id"`
	UserID    string `json:"user_id"`
}
