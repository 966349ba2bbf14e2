package services

import (
	"context"
	"fmt"
	"procurement/models"
	"procurement/repository"
	"procurement/storage"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CatalogService manages the categories, vendors, items and RFQs the engine reads.
type CatalogService struct {
	store storage.Store
	now   func() time.Time
}

func NewCatalogService(store storage.Store) *CatalogService {
	return &CatalogService{store: store, now: time.Now}
}

func (s *CatalogService) CreateCategory(ctx context.Context, tenant models.TenantContext, req models.CreateCategoryRequest) (models.Category, error) {
	if err := requireTenant(tenant); err != nil {
		return models.Category{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Category{}, validationErr("name", "is required")
	}
	category := models.Category{
		ID:        repository.NewID(),
		CompanyID: tenant.CompanyID,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return models.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, tenant models.TenantContext) ([]models.Category, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	categories, err := s.store.ListCategories(ctx, tenant.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (s *CatalogService) CreateVendor(ctx context.Context, tenant models.TenantContext, req models.CreateVendorRequest) (models.Vendor, error) {
	if err := requireTenant(tenant); err != nil {
		return models.Vendor{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Vendor{}, validationErr("name", "is required")
	}
	if req.VendorScore != nil && (req.VendorScore.IsNegative() || req.VendorScore.GreaterThan(hundred)) {
		return models.Vendor{}, validationErr("vendor_score", "must be between 0 and 100, got %s", req.VendorScore)
	}
	categoryIDs := dedupe(req.CategoryIDs)
	if err := s.requireCategories(ctx, tenant.CompanyID, categoryIDs...); err != nil {
		return models.Vendor{}, err
	}

	vendor := models.Vendor{
		ID:          repository.NewID(),
		CompanyID:   tenant.CompanyID,
		Name:        name,
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		VendorScore: req.VendorScore,
		CategoryIDs: categoryIDs,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateVendor(ctx, vendor); err != nil {
		return models.Vendor{}, fmt.Errorf("create vendor: %w", err)
	}
	return vendor, nil
}

func (s *CatalogService) GetVendor(ctx context.Context, tenant models.TenantContext, vendorID string) (models.Vendor, error) {
	if err := requireTenant(tenant); err != nil {
		return models.Vendor{}, err
	}
	vendor, err := s.store.GetVendor(ctx, tenant.CompanyID, vendorID)
	if err != nil {
		return models.Vendor{}, notFoundOr(err, "vendor", vendorID)
	}
	return vendor, nil
}

func (s *CatalogService) ListVendors(ctx context.Context, tenant models.TenantContext) ([]models.Vendor, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	vendors, err := s.store.ListVendors(ctx, tenant.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	if vendors == nil {
		vendors = []models.Vendor{}
	}
	return vendors, nil
}

// DeleteVendor tombstones the vendor. Its quotes and recommendations stay readable.
func (s *CatalogService) DeleteVendor(ctx context.Context, tenant models.TenantContext, vendorID string) error {
	if err := requireTenant(tenant); err != nil {
		return err
	}
	if err := s.store.TombstoneVendor(ctx, tenant.CompanyID, vendorID, s.now().UTC()); err != nil {
		return notFoundOr(err, "vendor", vendorID)
	}
	return nil
}

func (s *CatalogService) CreateItem(ctx context.Context, tenant models.TenantContext, req models.CreateItemRequest) (models.Item, error) {
	if err := requireTenant(tenant); err != nil {
		return models.Item{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Item{}, validationErr("name", "is required")
	}
	if req.CategoryID == "" {
		return models.Item{}, validationErr("category_id", "is required")
	}
	if req.ReferencePrice != nil && !req.ReferencePrice.IsPositive() {
		return models.Item{}, validationErr("reference_price", "must be greater than 0, got %s", req.ReferencePrice)
	}
	if err := s.requireCategories(ctx, tenant.CompanyID, req.CategoryID); err != nil {
		return models.Item{}, err
	}

	var reference *decimal.Decimal
	if req.ReferencePrice != nil {
		rounded := req.ReferencePrice.RoundBank(2)
		reference = &rounded
	}
	item := models.Item{
		ID:             repository.NewID(),
		CompanyID:      tenant.CompanyID,
		Name:           name,
		CategoryID:     req.CategoryID,
		Unit:           strings.TrimSpace(req.Unit),
		ReferencePrice: reference,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return models.Item{}, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (s *CatalogService) ListItems(ctx context.Context, tenant models.TenantContext) ([]models.Item, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx, tenant.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// DeleteItem tombstones the item. Existing RFQs and quotes for it are kept.
func (s *CatalogService) DeleteItem(ctx context.Context, tenant models.TenantContext, itemID string) error {
	if err := requireTenant(tenant); err != nil {
		return err
	}
	if err := s.store.TombstoneItem(ctx, tenant.CompanyID, itemID, s.now().UTC()); err != nil {
		return notFoundOr(err, "item", itemID)
	}
	return nil
}

func (s *CatalogService) CreateRFQ(ctx context.Context, tenant models.TenantContext, req models.CreateRFQRequest) (models.RFQ, error) {
	if err := requireTenant(tenant); err != nil {
		return models.RFQ{}, err
	}
	if !req.Quantity.IsPositive() {
		return models.RFQ{}, validationErr("quantity", "must be greater than 0, got %s", req.Quantity)
	}
	item, err := s.store.GetItem(ctx, tenant.CompanyID, req.ItemID)
	if err != nil {
		return models.RFQ{}, notFoundOr(err, "item", req.ItemID)
	}
	if item.IsDeleted {
		return models.RFQ{}, &NotFoundError{Entity: "item", ID: req.ItemID}
	}

	rfq := models.RFQ{
		ID:        repository.NewID(),
		CompanyID: tenant.CompanyID,
		ItemID:    item.ID,
		Title:     strings.TrimSpace(req.Title),
		Quantity:  req.Quantity,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateRFQ(ctx, rfq); err != nil {
		return models.RFQ{}, fmt.Errorf("create rfq: %w", err)
	}
	return rfq, nil
}

func (s *CatalogService) GetRFQ(ctx context.Context, tenant models.TenantContext, rfqID string) (models.RFQ, error) {
	if err := requireTenant(tenant); err != nil {
		return models.RFQ{}, err
	}
	rfq, err := s.store.GetRFQ(ctx, tenant.CompanyID, rfqID)
	if err != nil {
		return models.RFQ{}, notFoundOr(err, "rfq", rfqID)
	}
	return rfq, nil
}

func (s *CatalogService) requireCategories(ctx context.Context, companyID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	categories, err := s.store.ListCategories(ctx, companyID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return &NotFoundError{Entity: "category", ID: id}
		}
	}
	return nil
}
