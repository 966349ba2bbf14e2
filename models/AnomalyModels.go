package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Severity classifies how far a quoted price sits above its baseline.
type Severity string

const (
	SeverityNormal        Severity = "NORMAL"
	SeverityHigh          Severity = "HIGH"
	SeverityExtremelyHigh Severity = "EXTREMELY_HIGH"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityNormal, SeverityHigh, SeverityExtremelyHigh:
		return true
	}
	return false
}

// Anomaly is the result of comparing one quote's price against the item's baseline.
type Anomaly struct {
	ID             string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	CompanyID      string          `gorm:"column:company_id;type:varchar(36);not null;index:idx_anomalies_company_created,priority:1" json:"company_id"`
	QuoteID        string          `gorm:"column:quote_id;type:varchar(36);not null;uniqueIndex" json:"quote_id"`
	ItemID         string          `gorm:"column:item_id;type:varchar(36);not null;index" json:"item_id"`
	ExpectedPrice  decimal.Decimal `gorm:"column:expected_price;type:numeric(14,2);not null" json:"expected_price" example:"100"`
	ActualPrice    decimal.Decimal `gorm:"column:actual_price;type:numeric(14,2);not null" json:"actual_price" example:"115"`
	Deviation      decimal.Decimal `gorm:"column:deviation;type:numeric(10,4);not null" json:"deviation" example:"0.15"`
	Severity       Severity        `gorm:"column:severity;type:varchar(16);not null;index" json:"severity" example:"HIGH"`
	AIExplanation  *string         `gorm:"column:ai_explanation;type:text" json:"ai_explanation"`
	Acknowledged   bool            `gorm:"column:acknowledged;not null;default:false" json:"acknowledged"`
	AcknowledgedAt *time.Time      `gorm:"column:acknowledged_at" json:"acknowledged_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null;index:idx_anomalies_company_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for Anomaly
func (Anomaly) TableName() string {
	return "anomalies"
}

// AnomalyFilter narrows a listing of anomalies. Zero values mean "any".
type AnomalyFilter struct {
	QuoteID      string
	ItemID       string
	Severities   []Severity
	Acknowledged *bool
	Limit        int
}
