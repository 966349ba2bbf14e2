package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money and ratios go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// QuoteStatus is the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteStatusSubmitted QuoteStatus = "SUBMITTED"
	QuoteStatusApproved  QuoteStatus = "APPROVED"
)

// Quote is a vendor's priced response to an RFQ. It is an audit record: only the
// approval fields ever change after it is written.
type Quote struct {
	ID            string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id" example:"6f1c2a9e-3d4b-4c1e-9a8b-0f2e7d6c5b4a"`
	CompanyID     string          `gorm:"column:company_id;type:varchar(36);not null;index;uniqueIndex:idx_quotes_company_number,priority:1" json:"company_id"`
	QuoteNumber   string          `gorm:"column:quote_number;type:varchar(40);not null;uniqueIndex:idx_quotes_company_number,priority:2" json:"quote_number" example:"QT-20260115-000042"`
	RFQID         string          `gorm:"column:rfq_id;type:varchar(36);not null;index" json:"rfq_id"`
	VendorID      string          `gorm:"column:vendor_id;type:varchar(36);not null;index" json:"vendor_id"`
	BasePrice     decimal.Decimal `gorm:"column:base_price;type:numeric(14,2);not null" json:"base_price" example:"50000"`
	GSTPercent    decimal.Decimal `gorm:"column:gst_percent;type:numeric(5,2);not null" json:"gst_percent" example:"18"`
	GSTAmount     decimal.Decimal `gorm:"column:gst_amount;type:numeric(14,2);not null" json:"gst_amount" example:"9000"`
	TransportCost decimal.Decimal `gorm:"column:transport_cost;type:numeric(14,2);not null;default:0" json:"transport_cost" example:"2000"`
	LandedCost    decimal.Decimal `gorm:"column:landed_cost;type:numeric(14,2);not null" json:"landed_cost" example:"61000"`
	DeliveryDays  *int            `gorm:"column:delivery_days" json:"delivery_days" example:"14"`
	Terms         string          `gorm:"column:terms;type:text" json:"terms"`
	Notes         string          `gorm:"column:notes;type:text" json:"notes"`
	Status        QuoteStatus     `gorm:"column:status;type:varchar(16);not null;default:'SUBMITTED'" json:"status" example:"SUBMITTED"`
	IsApproved    bool            `gorm:"column:is_approved;not null;default:false" json:"is_approved"`
	ApprovedAt    *time.Time      `gorm:"column:approved_at" json:"approved_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for Quote
func (Quote) TableName() string {
	return "quotes"
}

// QuoteSequence holds the per-company counter behind quote numbers.
type QuoteSequence struct {
	CompanyID string    `gorm:"primaryKey;column:company_id;type:varchar(36)"`
	Value     int64     `gorm:"column:value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for QuoteSequence
func (QuoteSequence) TableName() string {
	return "quote_sequences"
}

// SubmitQuoteRequest is the body of POST /api/quotes.
type SubmitQuoteRequest struct {
	RFQID         string           `json:"rfq_id" binding:"required" example:"0b7d2f7e-8f41-4a55-b1b6-4a3e5d7c9e10"`
	VendorID      string           `json:"vendor_id" binding:"required" example:"a3c1e0f2-5b6d-4e7f-8a9b-0c1d2e3f4a5b"`
	BasePrice     decimal.Decimal  `json:"base_price" example:"50000"`
	GSTPercent    decimal.Decimal  `json:"gst_percent" example:"18"`
	TransportCost *decimal.Decimal `json:"transport_cost,omitempty" example:"2000"`
	DeliveryDays  *int             `json:"delivery_days,omitempty" example:"14"`
	Terms         string           `json:"terms,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// SubmitQuoteResponse carries the stored quote and, when a baseline existed, its anomaly.
type SubmitQuoteResponse struct {
	Quote   Quote    `json:"quote"`
	Anomaly *Anomaly `json:"anomaly"`
}
