package storage

import (
	"context"
	"procurement/models"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryStore implements Store in process memory. It is used by tests and local runs
// without a database; every method takes the same lock, so reads always see one
// consistent state.
type MemoryStore struct {
	mu sync.RWMutex

	sequences       map[string]int64
	categories      map[string]models.Category
	vendors         map[string]models.Vendor
	items           map[string]models.Item
	rfqs            map[string]models.RFQ
	quotes          map[string]models.Quote
	anomalies       map[string]models.Anomaly
	recommendations map[string]models.Recommendation
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sequences:       make(map[string]int64),
		categories:      make(map[string]models.Category),
		vendors:         make(map[string]models.Vendor),
		items:           make(map[string]models.Item),
		rfqs:            make(map[string]models.RFQ),
		quotes:          make(map[string]models.Quote),
		anomalies:       make(map[string]models.Anomaly),
		recommendations: make(map[string]models.Recommendation),
	}
}

func (s *MemoryStore) NextSequence(ctx context.Context, companyID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[companyID]++
	return s.sequences[companyID], nil
}

// Catalog

func (s *MemoryStore) CreateCategory(ctx context.Context, category models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[category.ID] = category
	return nil
}

func (s *MemoryStore) ListCategories(ctx context.Context, companyID string) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Category
	for _, c := range s.categories {
		if c.CompanyID == companyID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *MemoryStore) CreateVendor(ctx context.Context, vendor models.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[vendor.ID] = copyVendor(vendor)
	return nil
}

func (s *MemoryStore) GetVendor(ctx context.Context, companyID, vendorID string) (models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vendors[vendorID]
	if !ok || v.CompanyID != companyID {
		return models.Vendor{}, ErrNotFound
	}
	return copyVendor(v), nil
}

func (s *MemoryStore) ListVendors(ctx context.Context, companyID string) ([]models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveVendors(companyID), nil
}

func (s *MemoryStore) TombstoneVendor(ctx context.Context, companyID, vendorID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vendors[vendorID]
	if !ok || v.CompanyID != companyID {
		return ErrNotFound
	}
	if !v.IsDeleted {
		v.IsDeleted = true
		v.DeletedAt = &at
		s.vendors[vendorID] = v
	}
	return nil
}

func (s *MemoryStore) CreateItem(ctx context.Context, item models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) GetItem(ctx context.Context, companyID, itemID string) (models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[itemID]
	if !ok || it.CompanyID != companyID {
		return models.Item{}, ErrNotFound
	}
	return it, nil
}

func (s *MemoryStore) ListItems(ctx context.Context, companyID string) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Item
	for _, it := range s.items {
		if it.CompanyID == companyID && !it.IsDeleted {
			result = append(result, it)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *MemoryStore) TombstoneItem(ctx context.Context, companyID, itemID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok || it.CompanyID != companyID {
		return ErrNotFound
	}
	if !it.IsDeleted {
		it.IsDeleted = true
		it.DeletedAt = &at
		s.items[itemID] = it
	}
	return nil
}

func (s *MemoryStore) CreateRFQ(ctx context.Context, rfq models.RFQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rfqs[rfq.ID] = rfq
	return nil
}

func (s *MemoryStore) GetRFQ(ctx context.Context, companyID, rfqID string) (models.RFQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rfqs[rfqID]
	if !ok || r.CompanyID != companyID {
		return models.RFQ{}, ErrNotFound
	}
	return r, nil
}

// Quotes

func (s *MemoryStore) CreateQuote(ctx context.Context, quote models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quotes {
		if q.CompanyID == quote.CompanyID && q.QuoteNumber == quote.QuoteNumber {
			return ErrContention
		}
	}
	s.quotes[quote.ID] = quote
	return nil
}

func (s *MemoryStore) GetQuote(ctx context.Context, companyID, quoteID string) (models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[quoteID]
	if !ok || q.CompanyID != companyID {
		return models.Quote{}, ErrNotFound
	}
	return q, nil
}

func (s *MemoryStore) ListQuotesByRFQ(ctx context.Context, companyID, rfqID string) ([]models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Quote
	for _, q := range s.quotes {
		if q.CompanyID == companyID && q.RFQID == rfqID {
			result = append(result, q)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *MemoryStore) UpdateQuote(ctx context.Context, companyID, quoteID string, mutate func(*models.Quote) error) (models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[quoteID]
	if !ok || q.CompanyID != companyID {
		return models.Quote{}, ErrNotFound
	}
	if err := mutate(&q); err != nil {
		return models.Quote{}, err
	}
	s.quotes[quoteID] = q
	return q, nil
}

func (s *MemoryStore) ApprovedPriceStats(ctx context.Context, companyID, itemID string) (decimal.Decimal, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	count := 0
	for _, q := range s.quotes {
		if q.CompanyID != companyID || q.Status != models.QuoteStatusApproved {
			continue
		}
		if r, ok := s.rfqs[q.RFQID]; ok && r.ItemID == itemID {
			sum = sum.Add(q.BasePrice)
			count++
		}
	}
	if count == 0 {
		return decimal.Zero, 0, nil
	}
	return sum.Div(decimal.NewFromInt(int64(count))), count, nil
}

// Anomalies

func (s *MemoryStore) CreateAnomaly(ctx context.Context, anomaly models.Anomaly) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// One anomaly per quote, matching the unique index on quote_id.
	for _, a := range s.anomalies {
		if a.QuoteID == anomaly.QuoteID {
			return ErrContention
		}
	}
	s.anomalies[anomaly.ID] = anomaly
	return nil
}

func (s *MemoryStore) ListAnomalies(ctx context.Context, companyID string, filter models.AnomalyFilter) ([]models.Anomaly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Anomaly
	for _, a := range s.anomalies {
		if a.CompanyID != companyID {
			continue
		}
		if filter.QuoteID != "" && a.QuoteID != filter.QuoteID {
			continue
		}
		if filter.ItemID != "" && a.ItemID != filter.ItemID {
			continue
		}
		if filter.Acknowledged != nil && a.Acknowledged != *filter.Acknowledged {
			continue
		}
		if len(filter.Severities) > 0 && !containsSeverity(filter.Severities, a.Severity) {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *MemoryStore) UpdateAnomaly(ctx context.Context, companyID, anomalyID string, mutate func(*models.Anomaly) error) (models.Anomaly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.anomalies[anomalyID]
	if !ok || a.CompanyID != companyID {
		return models.Anomaly{}, ErrNotFound
	}
	if err := mutate(&a); err != nil {
		return models.Anomaly{}, err
	}
	s.anomalies[anomalyID] = a
	return a, nil
}

func (s *MemoryStore) CompaniesWithOpenAnomalies(ctx context.Context, severities []models.Severity) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var result []string
	for _, a := range s.anomalies {
		if a.Acknowledged || !containsSeverity(severities, a.Severity) || seen[a.CompanyID] {
			continue
		}
		seen[a.CompanyID] = true
		result = append(result, a.CompanyID)
	}
	sort.Strings(result)
	return result, nil
}

// Recommendations

func (s *MemoryStore) RecommendationSnapshot(ctx context.Context, companyID string, itemIDs []string) (models.RecommendationSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.RecommendationSnapshot{History: make(map[string]models.VendorHistory)}
	wanted := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
		if it, ok := s.items[id]; ok && it.CompanyID == companyID {
			snap.Items = append(snap.Items, it)
		}
	}
	snap.Vendors = s.liveVendors(companyID)

	type acc struct {
		count, deliveries int
		landed, days      decimal.Decimal
	}
	sums := make(map[string]*acc)
	for _, q := range s.quotes {
		if q.CompanyID != companyID {
			continue
		}
		r, ok := s.rfqs[q.RFQID]
		if !ok || !wanted[r.ItemID] {
			continue
		}
		a := sums[q.VendorID]
		if a == nil {
			a = &acc{}
			sums[q.VendorID] = a
		}
		a.count++
		a.landed = a.landed.Add(q.LandedCost)
		if q.DeliveryDays != nil {
			a.deliveries++
			a.days = a.days.Add(decimal.NewFromInt(int64(*q.DeliveryDays)))
		}
	}
	for vendorID, a := range sums {
		h := models.VendorHistory{
			VendorID:        vendorID,
			QuoteCount:      a.count,
			AvgLandedCost:   a.landed.Div(decimal.NewFromInt(int64(a.count))),
			DeliverySamples: a.deliveries,
		}
		if a.deliveries > 0 {
			h.AvgDeliveryDays = a.days.Div(decimal.NewFromInt(int64(a.deliveries)))
		}
		snap.History[vendorID] = h
	}
	return snap, nil
}

func (s *MemoryStore) CreateRecommendations(ctx context.Context, recs []models.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		s.recommendations[r.ID] = copyRecommendation(r)
	}
	return nil
}

func (s *MemoryStore) ListRecommendations(ctx context.Context, companyID, requestID string) ([]models.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Recommendation
	for _, r := range s.recommendations {
		if r.CompanyID == companyID && r.RequestID == requestID {
			result = append(result, copyRecommendation(r))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Rank < result[j].Rank })
	return result, nil
}

func (s *MemoryStore) UpdateRecommendation(ctx context.Context, companyID, recommendationID string, mutate func(*models.Recommendation) error) (models.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recommendations[recommendationID]
	if !ok || r.CompanyID != companyID {
		return models.Recommendation{}, ErrNotFound
	}
	r = copyRecommendation(r)
	if err := mutate(&r); err != nil {
		return models.Recommendation{}, err
	}
	s.recommendations[recommendationID] = r
	return copyRecommendation(r), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) liveVendors(companyID string) []models.Vendor {
	var result []models.Vendor
	for _, v := range s.vendors {
		if v.CompanyID == companyID && !v.IsDeleted {
			result = append(result, copyVendor(v))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func copyVendor(v models.Vendor) models.Vendor {
	v.CategoryIDs = append(make([]string, 0, len(v.CategoryIDs)), v.CategoryIDs...)
	return v
}

func copyRecommendation(r models.Recommendation) models.Recommendation {
	r.ItemIDs = append(make([]string, 0, len(r.ItemIDs)), r.ItemIDs...)
	r.Reasons = append(make([]string, 0, len(r.Reasons)), r.Reasons...)
	return r
}

func containsSeverity(list []models.Severity, s models.Severity) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
