package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups items; vendors declare the categories they can supply.
type Category struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	CompanyID string    `gorm:"column:company_id;type:varchar(36);not null;index" json:"company_id"`
	Name      string    `gorm:"column:name;type:varchar(120);not null" json:"name" example:"Cement"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}

// Vendor is a supplier registered by a company. CreatedAt is the registration time.
type Vendor struct {
	ID          string           `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	CompanyID   string           `gorm:"column:company_id;type:varchar(36);not null;index" json:"company_id"`
	Name        string           `gorm:"column:name;type:varchar(200);not null" json:"name" example:"ABC Suppliers"`
	Email       string           `gorm:"column:email;type:varchar(200)" json:"email" example:"vendor@example.com"`
	Phone       string           `gorm:"column:phone;type:varchar(40)" json:"phone" example:"9876543210"`
	VendorScore *decimal.Decimal `gorm:"column:vendor_score;type:numeric(5,2)" json:"vendor_score" example:"88"`
	CategoryIDs []string         `gorm:"-" json:"category_ids"`
	IsDeleted   bool             `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	DeletedAt   *time.Time       `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
	CreatedAt   time.Time        `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for Vendor
func (Vendor) TableName() string {
	return "vendors"
}

// VendorCategory links a vendor to a category it supplies.
type VendorCategory struct {
	VendorID   string `gorm:"primaryKey;column:vendor_id;type:varchar(36)"`
	CategoryID string `gorm:"primaryKey;column:category_id;type:varchar(36)"`
}

// TableName specifies the table name for VendorCategory
func (VendorCategory) TableName() string {
	return "vendor_categories"
}

// Item is a catalog entry that RFQs are raised against.
type Item struct {
	ID             string           `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	CompanyID      string           `gorm:"column:company_id;type:varchar(36);not null;index" json:"company_id"`
	Name           string           `gorm:"column:name;type:varchar(200);not null" json:"name" example:"OPC 53 Cement"`
	CategoryID     string           `gorm:"column:category_id;type:varchar(36);not null;index" json:"category_id"`
	Unit           string           `gorm:"column:unit;type:varchar(20)" json:"unit" example:"bag"`
	ReferencePrice *decimal.Decimal `gorm:"column:reference_price;type:numeric(14,2)" json:"reference_price"`
	IsDeleted      bool             `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	DeletedAt      *time.Time       `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
	CreatedAt      time.Time        `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for Item
func (Item) TableName() string {
	return "items"
}

// RFQ is a request for quotation for one item.
type RFQ struct {
	ID        string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	CompanyID string          `gorm:"column:company_id;type:varchar(36);not null;index" json:"company_id"`
	ItemID    string          `gorm:"column:item_id;type:varchar(36);not null;index" json:"item_id"`
	Title     string          `gorm:"column:title;type:varchar(200)" json:"title" example:"Cement for Tower B"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null" json:"quantity" example:"500"`
	CreatedAt time.Time       `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for RFQ
func (RFQ) TableName() string {
	return "rfqs"
}

// CreateCategoryRequest is the body of POST /api/categories.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required" example:"Cement"`
}

// CreateVendorRequest is the body of POST /api/vendors.
type CreateVendorRequest struct {
	Name        string           `json:"name" binding:"required" example:"ABC Suppliers"`
	Email       string           `json:"email" example:"vendor@example.com"`
	Phone       string           `json:"phone" example:"9876543210"`
	VendorScore *decimal.Decimal `json:"vendor_score,omitempty" example:"88"`
	CategoryIDs []string         `json:"category_ids"`
}

// CreateItemRequest is the body of POST /api/items.
type CreateItemRequest struct {
	Name           string           `json:"name" binding:"required" example:"OPC 53 Cement"`
	CategoryID     string           `json:"category_id" binding:"required"`
	Unit           string           `json:"unit" example:"bag"`
	ReferencePrice *decimal.Decimal `json:"reference_price,omitempty" example:"385"`
}

// CreateRFQRequest is the body of POST /api/rfqs.
type CreateRFQRequest struct {
	ItemID   string          `json:"item_id" binding:"required"`
	Title    string          `json:"title" example:"Cement for Tower B"`
	Quantity decimal.Decimal `json:"quantity" example:"500"`
}
