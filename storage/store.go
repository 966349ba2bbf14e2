package storage

import (
	"context"
	"errors"
	"procurement/models"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when the addressed row does not exist for the company.
	ErrNotFound = errors.New("record not found")
	// ErrContention marks transient write conflicts that are safe to retry.
	ErrContention = errors.New("write contention")
)

// SequenceStore hands out per-company counter values. Every call returns a value no
// other call for the same company has seen.
type SequenceStore interface {
	NextSequence(ctx context.Context, companyID string) (int64, error)
}

// Store is the persistence collaborator of the quote engine. All reads and writes are
// scoped by company.
type Store interface {
	SequenceStore

	// Catalog
	CreateCategory(ctx context.Context, category models.Category) error
	ListCategories(ctx context.Context, companyID string) ([]models.Category, error)
	CreateVendor(ctx context.Context, vendor models.Vendor) error
	GetVendor(ctx context.Context, companyID, vendorID string) (models.Vendor, error)
	ListVendors(ctx context.Context, companyID string) ([]models.Vendor, error)
	TombstoneVendor(ctx context.Context, companyID, vendorID string, at time.Time) error
	CreateItem(ctx context.Context, item models.Item) error
	GetItem(ctx context.Context, companyID, itemID string) (models.Item, error)
	ListItems(ctx context.Context, companyID string) ([]models.Item, error)
	TombstoneItem(ctx context.Context, companyID, itemID string, at time.Time) error
	CreateRFQ(ctx context.Context, rfq models.RFQ) error
	GetRFQ(ctx context.Context, companyID, rfqID string) (models.RFQ, error)

	// Quotes
	CreateQuote(ctx context.Context, quote models.Quote) error
	GetQuote(ctx context.Context, companyID, quoteID string) (models.Quote, error)
	ListQuotesByRFQ(ctx context.Context, companyID, rfqID string) ([]models.Quote, error)
	// UpdateQuote loads the quote under a row lock, applies mutate and writes the result
	// in the same transaction. An error from mutate aborts without writing.
	UpdateQuote(ctx context.Context, companyID, quoteID string, mutate func(*models.Quote) error) (models.Quote, error)
	// ApprovedPriceStats returns the mean base price and count of approved quotes for an item.
	ApprovedPriceStats(ctx context.Context, companyID, itemID string) (decimal.Decimal, int, error)

	// Anomalies
	CreateAnomaly(ctx context.Context, anomaly models.Anomaly) error
	ListAnomalies(ctx context.Context, companyID string, filter models.AnomalyFilter) ([]models.Anomaly, error)
	UpdateAnomaly(ctx context.Context, companyID, anomalyID string, mutate func(*models.Anomaly) error) (models.Anomaly, error)

	// Recommendations
	RecommendationSnapshot(ctx context.Context, companyID string, itemIDs []string) (models.RecommendationSnapshot, error)
	CreateRecommendations(ctx context.Context, recs []models.Recommendation) error
	ListRecommendations(ctx context.Context, companyID, requestID string) ([]models.Recommendation, error)
	UpdateRecommendation(ctx context.Context, companyID, recommendationID string, mutate func(*models.Recommendation) error) (models.Recommendation, error)

	// Companies with at least one unacknowledged anomaly at or above the given severities.
	CompaniesWithOpenAnomalies(ctx context.Context, severities []models.Severity) ([]string, error)

	Close() error
}
