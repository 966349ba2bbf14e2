package storage

import (
	"context"
	"database/sql"
	"procurement/models"
	"procurement/utils"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// NextSequence bumps the company's counter in a single UPDATE ... RETURNING so that
// concurrent callers serialize on the row lock and each observes a distinct value.
func (s *GormStore) NextSequence(ctx context.Context, companyID string) (int64, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()

	var value int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Exec(
			`INSERT INTO quote_sequences (company_id, value, updated_at) VALUES (?, 0, ?)
			 ON CONFLICT (company_id) DO NOTHING`, companyID, now).Error; err != nil {
			return err
		}
		return tx.Raw(
			`UPDATE quote_sequences SET value = value + 1, updated_at = ?
			 WHERE company_id = ? RETURNING value`, now, companyID).Scan(&value).Error
	})
	if err != nil {
		return 0, translateError(err)
	}
	return value, nil
}

// Catalog

func (s *GormStore) CreateCategory(ctx context.Context, category models.Category) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return translateError(s.db.WithContext(ctx).Create(&category).Error)
}

func (s *GormStore) ListCategories(ctx context.Context, companyID string) ([]models.Category, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	var categories []models.Category
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("name").Find(&categories).Error; err != nil {
		return nil, translateError(err)
	}
	return categories, nil
}

func (s *GormStore) CreateVendor(ctx context.Context, vendor models.Vendor) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&vendor).Error; err != nil {
			return err
		}
		if len(vendor.CategoryIDs) == 0 {
			return nil
		}
		links := make([]models.VendorCategory, 0, len(vendor.CategoryIDs))
		for _, categoryID := range vendor.CategoryIDs {
			links = append(links, models.VendorCategory{VendorID: vendor.ID, CategoryID: categoryID})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
	return translateError(err)
}

func (s *GormStore) GetVendor(ctx context.Context, companyID, vendorID string) (models.Vendor, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var vendor models.Vendor
	db := s.db.WithContext(ctx)
	if err := db.Where("id = ? AND company_id = ?", vendorID, companyID).First(&vendor).Error; err != nil {
		return models.Vendor{}, translateError(err)
	}
	vendors := []models.Vendor{vendor}
	if err := attachCategories(db, vendors); err != nil {
		return models.Vendor{}, translateError(err)
	}
	return vendors[0], nil
}

func (s *GormStore) ListVendors(ctx context.Context, companyID string) ([]models.Vendor, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	vendors, err := liveVendors(s.db.WithContext(ctx), companyID)
	if err != nil {
		return nil, translateError(err)
	}
	return vendors, nil
}

func (s *GormStore) TombstoneVendor(ctx context.Context, companyID, vendorID string, at time.Time) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return s.tombstone(ctx, &models.Vendor{}, companyID, vendorID, at)
}

func (s *GormStore) CreateItem(ctx context.Context, item models.Item) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return translateError(s.db.WithContext(ctx).Create(&item).Error)
}

func (s *GormStore) GetItem(ctx context.Context, companyID, itemID string) (models.Item, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var item models.Item
	if err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", itemID, companyID).First(&item).Error; err != nil {
		return models.Item{}, translateError(err)
	}
	return item, nil
}

func (s *GormStore) ListItems(ctx context.Context, companyID string) ([]models.Item, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	var items []models.Item
	if err := s.db.WithContext(ctx).
		Where("company_id = ? AND is_deleted = ?", companyID, false).
		Order("name").
		Find(&items).Error; err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

func (s *GormStore) TombstoneItem(ctx context.Context, companyID, itemID string, at time.Time) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return s.tombstone(ctx, &models.Item{}, companyID, itemID, at)
}

// tombstone marks a catalog row deleted. Repeating it keeps the first deleted_at.
func (s *GormStore) tombstone(ctx context.Context, model interface{}, companyID, id string, at time.Time) error {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(model).Where("id = ? AND company_id = ?", id, companyID).Count(&count).Error; err != nil {
		return translateError(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	err := db.Model(model).
		Where("id = ? AND company_id = ? AND is_deleted = ?", id, companyID, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at}).Error
	return translateError(err)
}

func (s *GormStore) CreateRFQ(ctx context.Context, rfq models.RFQ) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return translateError(s.db.WithContext(ctx).Create(&rfq).Error)
}

func (s *GormStore) GetRFQ(ctx context.Context, companyID, rfqID string) (models.RFQ, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var rfq models.RFQ
	if err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", rfqID, companyID).First(&rfq).Error; err != nil {
		return models.RFQ{}, translateError(err)
	}
	return rfq, nil
}

// Quotes

func (s *GormStore) CreateQuote(ctx context.Context, quote models.Quote) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return translateError(s.db.WithContext(ctx).Create(&quote).Error)
}

func (s *GormStore) GetQuote(ctx context.Context, companyID, quoteID string) (models.Quote, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var quote models.Quote
	if err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", quoteID, companyID).First(&quote).Error; err != nil {
		return models.Quote{}, translateError(err)
	}
	return quote, nil
}

func (s *GormStore) ListQuotesByRFQ(ctx context.Context, companyID, rfqID string) ([]models.Quote, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	var quotes []models.Quote
	if err := s.db.WithContext(ctx).
		Where("company_id = ? AND rfq_id = ?", companyID, rfqID).
		Order("created_at ASC").
		Find(&quotes).Error; err != nil {
		return nil, translateError(err)
	}
	return quotes, nil
}

func (s *GormStore) UpdateQuote(ctx context.Context, companyID, quoteID string, mutate func(*models.Quote) error) (models.Quote, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var quote models.Quote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND company_id = ?", quoteID, companyID).
			First(&quote).Error; err != nil {
			return err
		}
		if err := mutate(&quote); err != nil {
			return err
		}
		return tx.Save(&quote).Error
	})
	if err != nil {
		return models.Quote{}, translateError(err)
	}
	return quote, nil
}

func (s *GormStore) ApprovedPriceStats(ctx context.Context, companyID, itemID string) (decimal.Decimal, int, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	var row struct {
		Mean  decimal.Decimal
		Count int64
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(AVG(q.base_price), 0) AS mean, COUNT(*) AS count
		 FROM quotes q JOIN rfqs r ON r.id = q.rfq_id
		 WHERE q.company_id = ? AND r.item_id = ? AND q.status = ?`,
		companyID, itemID, models.QuoteStatusApproved).Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, translateError(err)
	}
	return row.Mean, int(row.Count), nil
}

// Anomalies

func (s *GormStore) CreateAnomaly(ctx context.Context, anomaly models.Anomaly) error {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	return translateError(s.db.WithContext(ctx).Create(&anomaly).Error)
}

func (s *GormStore) ListAnomalies(ctx context.Context, companyID string, filter models.AnomalyFilter) ([]models.Anomaly, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	query := s.db.WithContext(ctx).Where("company_id = ?", companyID)
	if filter.QuoteID != "" {
		query = query.Where("quote_id = ?", filter.QuoteID)
	}
	if filter.ItemID != "" {
		query = query.Where("item_id = ?", filter.ItemID)
	}
	if filter.Acknowledged != nil {
		query = query.Where("acknowledged = ?", *filter.Acknowledged)
	}
	if len(filter.Severities) > 0 {
		query = query.Where("severity IN ?", filter.Severities)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var anomalies []models.Anomaly
	if err := query.Order("created_at DESC, id DESC").Find(&anomalies).Error; err != nil {
		return nil, translateError(err)
	}
	return anomalies, nil
}

func (s *GormStore) UpdateAnomaly(ctx context.Context, companyID, anomalyID string, mutate func(*models.Anomaly) error) (models.Anomaly, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var anomaly models.Anomaly
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND company_id = ?", anomalyID, companyID).
			First(&anomaly).Error; err != nil {
			return err
		}
		if err := mutate(&anomaly); err != nil {
			return err
		}
		return tx.Save(&anomaly).Error
	})
	if err != nil {
		return models.Anomaly{}, translateError(err)
	}
	return anomaly, nil
}

func (s *GormStore) CompaniesWithOpenAnomalies(ctx context.Context, severities []models.Severity) ([]string, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	var companyIDs []string
	err := s.db.WithContext(ctx).Model(&models.Anomaly{}).
		Distinct("company_id").
		Where("acknowledged = ? AND severity IN ?", false, severities).
		Order("company_id").
		Pluck("company_id", &companyIDs).Error
	if err != nil {
		return nil, translateError(err)
	}
	return companyIDs, nil
}

// Recommendations

// RecommendationSnapshot reads items, vendors and quote history inside one read-only
// REPEATABLE READ transaction, so a concurrent write cannot split the view.
func (s *GormStore) RecommendationSnapshot(ctx context.Context, companyID string, itemIDs []string) (models.RecommendationSnapshot, error) {
	ctx, cancel := utils.GetSlowQueryContext(ctx)
	defer cancel()

	snap := models.RecommendationSnapshot{History: make(map[string]models.VendorHistory)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ? AND id IN ?", companyID, itemIDs).Find(&snap.Items).Error; err != nil {
			return err
		}
		vendors, err := liveVendors(tx, companyID)
		if err != nil {
			return err
		}
		snap.Vendors = vendors

		var rows []struct {
			VendorID        string
			QuoteCount      int64
			AvgLandedCost   decimal.Decimal
			DeliverySamples int64
			AvgDeliveryDays decimal.Decimal
		}
		if err := tx.Raw(
			`SELECT q.vendor_id AS vendor_id,
			        COUNT(*) AS quote_count,
			        AVG(q.landed_cost) AS avg_landed_cost,
			        COUNT(q.delivery_days) AS delivery_samples,
			        COALESCE(AVG(q.delivery_days), 0) AS avg_delivery_days
			 FROM quotes q JOIN rfqs r ON r.id = q.rfq_id
			 WHERE q.company_id = ? AND r.item_id IN ?
			 GROUP BY q.vendor_id`, companyID, itemIDs).Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			snap.History[row.VendorID] = models.VendorHistory{
				VendorID:        row.VendorID,
				QuoteCount:      int(row.QuoteCount),
				AvgLandedCost:   row.AvgLandedCost,
				DeliverySamples: int(row.DeliverySamples),
				AvgDeliveryDays: row.AvgDeliveryDays,
			}
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return models.RecommendationSnapshot{}, translateError(err)
	}
	return snap, nil
}

func (s *GormStore) CreateRecommendations(ctx context.Context, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	return translateError(s.db.WithContext(ctx).Create(&recs).Error)
}

func (s *GormStore) ListRecommendations(ctx context.Context, companyID, requestID string) ([]models.Recommendation, error) {
	ctx, cancel := utils.GetDefaultQueryContext(ctx)
	defer cancel()
	var recs []models.Recommendation
	if err := s.db.WithContext(ctx).
		Where("company_id = ? AND request_id = ?", companyID, requestID).
		Order("rank ASC").
		Find(&recs).Error; err != nil {
		return nil, translateError(err)
	}
	return recs, nil
}

func (s *GormStore) UpdateRecommendation(ctx context.Context, companyID, recommendationID string, mutate func(*models.Recommendation) error) (models.Recommendation, error) {
	ctx, cancel := utils.GetFastQueryContext(ctx)
	defer cancel()
	var rec models.Recommendation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND company_id = ?", recommendationID, companyID).
			First(&rec).Error; err != nil {
			return err
		}
		if err := mutate(&rec); err != nil {
			return err
		}
		return tx.Save(&rec).Error
	})
	if err != nil {
		return models.Recommendation{}, translateError(err)
	}
	return rec, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func liveVendors(db *gorm.DB, companyID string) ([]models.Vendor, error) {
	var vendors []models.Vendor
	if err := db.Where("company_id = ? AND is_deleted = ?", companyID, false).
		Order("created_at ASC, id ASC").
		Find(&vendors).Error; err != nil {
		return nil, err
	}
	if err := attachCategories(db, vendors); err != nil {
		return nil, err
	}
	return vendors, nil
}

// attachCategories fills CategoryIDs for each vendor from vendor_categories.
func attachCategories(db *gorm.DB, vendors []models.Vendor) error {
	if len(vendors) == 0 {
		return nil
	}
	ids := make([]string, 0, len(vendors))
	for _, v := range vendors {
		ids = append(ids, v.ID)
	}
	var links []models.VendorCategory
	if err := db.Where("vendor_id IN ?", ids).Order("category_id").Find(&links).Error; err != nil {
		return err
	}
	byVendor := make(map[string][]string, len(vendors))
	for _, link := range links {
		byVendor[link.VendorID] = append(byVendor[link.VendorID], link.CategoryID)
	}
	for i := range vendors {
		vendors[i].CategoryIDs = append(make([]string, 0, len(byVendor[vendors[i].ID])), byVendor[vendors[i].ID]...)
	}
	return nil
}
