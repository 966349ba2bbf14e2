package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Urgency is the caller's delivery-time sensitivity for a recommendation request.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Valid reports whether u is one of the known urgencies.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Recommendation is one ranked vendor within a recommendation request.
type Recommendation struct {
	ID             string           `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	CompanyID      string           `gorm:"column:company_id;type:varchar(36);not null;index" json:"company_id"`
	RequestID      string           `gorm:"column:request_id;type:varchar(36);not null;uniqueIndex:idx_recommendations_request_rank,priority:1" json:"request_id"`
	ItemIDs        []string         `gorm:"column:item_ids;type:text;serializer:json" json:"item_ids"`
	Urgency        Urgency          `gorm:"column:urgency;type:varchar(8);not null" json:"urgency" example:"high"`
	VendorID       string           `gorm:"column:vendor_id;type:varchar(36);not null" json:"vendor_id"`
	RelevanceScore decimal.Decimal  `gorm:"column:relevance_score;type:numeric(6,4);not null" json:"relevance_score" example:"0.8125"`
	VendorScore    *decimal.Decimal `gorm:"column:vendor_score;type:numeric(5,2)" json:"vendor_score" example:"92"`
	Reasons        []string         `gorm:"column:reasons;type:text;serializer:json" json:"reasons"`
	Rank           int              `gorm:"column:rank;not null;uniqueIndex:idx_recommendations_request_rank,priority:2" json:"rank" example:"1"`
	WasSelected    bool             `gorm:"column:was_selected;not null;default:false" json:"was_selected"`
	CreatedAt      time.Time        `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for Recommendation
func (Recommendation) TableName() string {
	return "recommendations"
}

// RecommendationRequest is the body of POST /api/recommendations.
type RecommendationRequest struct {
	ItemIDs []string `json:"item_ids" example:"0b7d2f7e-8f41-4a55-b1b6-4a3e5d7c9e10"`
	Urgency Urgency  `json:"urgency" example:"medium"`
}

// VendorHistory summarises a vendor's past quotes for the requested items.
type VendorHistory struct {
	VendorID        string
	QuoteCount      int
	AvgLandedCost   decimal.Decimal
	DeliverySamples int
	AvgDeliveryDays decimal.Decimal
}

// RecommendationSnapshot is everything the ranker reads, taken at one point in time.
type RecommendationSnapshot struct {
	Items   []Item
	Vendors []Vendor
	History map[string]VendorHistory
}
