package services

import (
	"context"
	"fmt"
	"math"
	"procurement/config"
	"procurement/models"
	"procurement/repository"
	"procurement/storage"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const neutralFactor = 0.5

// FactorScores are the four normalized ranking factors of one vendor.
type FactorScores struct {
	Coverage float64 `json:"coverage"`
	Price    float64 `json:"price"`
	Delivery float64 `json:"delivery"`
	Trust    float64 `json:"trust"`
}

// RankedVendor is one scored candidate before it is persisted.
type RankedVendor struct {
	Vendor    models.Vendor
	Factors   FactorScores
	Relevance decimal.Decimal
	Reasons   []string
	Rank      int
}

// RecommendationRanker scores vendors for a set of items and stores the ranked batch.
type RecommendationRanker struct {
	store  storage.Store
	policy config.ScoringPolicy
	now    func() time.Time
}

func NewRecommendationRanker(store storage.Store, policy config.ScoringPolicy) *RecommendationRanker {
	return &RecommendationRanker{store: store, policy: policy, now: time.Now}
}

// Recommend ranks every vendor able to supply at least one requested category and
// persists the batch under a new request id. No candidates yields an empty list.
func (r *RecommendationRanker) Recommend(ctx context.Context, tenant models.TenantContext, itemIDs []string, urgency models.Urgency) ([]models.Recommendation, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	itemIDs = dedupe(itemIDs)
	if len(itemIDs) == 0 {
		return nil, validationErr("item_ids", "at least one item is required")
	}
	if !urgency.Valid() {
		return nil, validationErr("urgency", "must be one of low, medium, high, got %q", urgency)
	}
	weights, ok := r.policy.Weights[string(urgency)]
	if !ok {
		return nil, validationErr("urgency", "no weights configured for %q", urgency)
	}

	start := time.Now()
	defer func() { rankingDuration.Observe(time.Since(start).Seconds()) }()

	snap, err := r.store.RecommendationSnapshot(ctx, tenant.CompanyID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("recommendation snapshot: %w", err)
	}
	live := make(map[string]models.Item, len(snap.Items))
	for _, it := range snap.Items {
		if !it.IsDeleted {
			live[it.ID] = it
		}
	}
	items := make([]models.Item, 0, len(itemIDs))
	for _, id := range itemIDs {
		it, ok := live[id]
		if !ok {
			return nil, &NotFoundError{Entity: "item", ID: id}
		}
		items = append(items, it)
	}

	ranked := RankVendors(items, snap.Vendors, snap.History, weights, r.policy.Reasons)
	rankingCandidates.Observe(float64(len(ranked)))

	requestID := repository.NewID()
	createdAt := r.now().UTC()
	recs := make([]models.Recommendation, 0, len(ranked))
	for _, rv := range ranked {
		recs = append(recs, models.Recommendation{
			ID:             repository.NewID(),
			CompanyID:      tenant.CompanyID,
			RequestID:      requestID,
			ItemIDs:        itemIDs,
			Urgency:        urgency,
			VendorID:       rv.Vendor.ID,
			RelevanceScore: rv.Relevance,
			VendorScore:    rv.Vendor.VendorScore,
			Reasons:        rv.Reasons,
			Rank:           rv.Rank,
			CreatedAt:      createdAt,
		})
	}
	if err := r.store.CreateRecommendations(ctx, recs); err != nil {
		return nil, fmt.Errorf("create recommendations: %w", err)
	}
	return recs, nil
}

// Select flags one recommendation as chosen. Other records of the batch keep their flag.
func (r *RecommendationRanker) Select(ctx context.Context, tenant models.TenantContext, recommendationID string) (models.Recommendation, error) {
	if err := requireTenant(tenant); err != nil {
		return models.Recommendation{}, err
	}
	rec, err := r.store.UpdateRecommendation(ctx, tenant.CompanyID, recommendationID, func(rec *models.Recommendation) error {
		rec.WasSelected = true
		return nil
	})
	if err != nil {
		return models.Recommendation{}, notFoundOr(err, "recommendation", recommendationID)
	}
	return rec, nil
}

// List returns a stored batch in rank order.
func (r *RecommendationRanker) List(ctx context.Context, tenant models.TenantContext, requestID string) ([]models.Recommendation, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	recs, err := r.store.ListRecommendations(ctx, tenant.CompanyID, requestID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	if len(recs) == 0 {
		return nil, &NotFoundError{Entity: "recommendation request", ID: requestID}
	}
	return recs, nil
}

// RankVendors scores and orders candidates. Ranks are 1..N; relevance never increases
// with rank.
func RankVendors(items []models.Item, vendors []models.Vendor, history map[string]models.VendorHistory, weights config.FactorWeights, thresholds config.ReasonThresholds) []RankedVendor {
	requested := make(map[string]bool)
	for _, it := range items {
		if it.CategoryID != "" {
			requested[it.CategoryID] = true
		}
	}
	if len(requested) == 0 {
		return []RankedVendor{}
	}

	type candidate struct {
		vendor  models.Vendor
		matched int
		hist    models.VendorHistory
		hasCost bool
		hasDays bool
	}
	var candidates []candidate
	for _, v := range vendors {
		if v.IsDeleted {
			continue
		}
		matched := 0
		seen := make(map[string]bool, len(v.CategoryIDs))
		for _, c := range v.CategoryIDs {
			if requested[c] && !seen[c] {
				seen[c] = true
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		h := history[v.ID]
		candidates = append(candidates, candidate{
			vendor:  v,
			matched: matched,
			hist:    h,
			hasCost: h.QuoteCount > 0 && h.AvgLandedCost.IsPositive(),
			hasDays: h.DeliverySamples > 0 && !h.AvgDeliveryDays.IsNegative(),
		})
	}

	// Cohort minimums for the inverse-normalized factors.
	var minCost, minDays decimal.Decimal
	costSeen, daysSeen := false, false
	for _, c := range candidates {
		if c.hasCost && (!costSeen || c.hist.AvgLandedCost.LessThan(minCost)) {
			minCost, costSeen = c.hist.AvgLandedCost, true
		}
		if c.hasDays && (!daysSeen || c.hist.AvgDeliveryDays.LessThan(minDays)) {
			minDays, daysSeen = c.hist.AvgDeliveryDays, true
		}
	}

	one := decimal.NewFromInt(1)
	ranked := make([]RankedVendor, 0, len(candidates))
	for _, c := range candidates {
		f := FactorScores{
			Coverage: float64(c.matched) / float64(len(requested)),
			Price:    neutralFactor,
			Delivery: neutralFactor,
			Trust:    neutralFactor,
		}
		if c.hasCost {
			f.Price = ratio(minCost, c.hist.AvgLandedCost)
		}
		if c.hasDays {
			f.Delivery = ratio(minDays.Add(one), c.hist.AvgDeliveryDays.Add(one))
		}
		if c.vendor.VendorScore != nil {
			f.Trust = clamp01(c.vendor.VendorScore.InexactFloat64() / 100)
		}

		total := weights.Coverage*f.Coverage +
			weights.Price*f.Price +
			weights.Delivery*f.Delivery +
			weights.Trust*f.Trust

		ranked = append(ranked, RankedVendor{
			Vendor:    c.vendor,
			Factors:   f,
			Relevance: decimal.NewFromFloat(clamp01(total)).RoundBank(4),
			Reasons:   buildReasons(f, weights, thresholds, c.matched, len(requested)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if c := a.Relevance.Cmp(b.Relevance); c != 0 {
			return c > 0
		}
		switch {
		case a.Vendor.VendorScore != nil && b.Vendor.VendorScore == nil:
			return true
		case a.Vendor.VendorScore == nil && b.Vendor.VendorScore != nil:
			return false
		case a.Vendor.VendorScore != nil && b.Vendor.VendorScore != nil:
			if c := a.Vendor.VendorScore.Cmp(*b.Vendor.VendorScore); c != 0 {
				return c > 0
			}
		}
		if !a.Vendor.CreatedAt.Equal(b.Vendor.CreatedAt) {
			return a.Vendor.CreatedAt.Before(b.Vendor.CreatedAt)
		}
		return a.Vendor.ID < b.Vendor.ID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// buildReasons lists the notable factors, largest weighted contribution first.
func buildReasons(f FactorScores, w config.FactorWeights, t config.ReasonThresholds, matched, requested int) []string {
	type reason struct {
		text         string
		contribution float64
	}
	var notable []reason
	if f.Coverage >= t.Coverage {
		notable = append(notable, reason{fmt.Sprintf("Matches %d/%d requested categories", matched, requested), w.Coverage * f.Coverage})
	}
	if f.Price >= t.Price {
		notable = append(notable, reason{"Competitive historical pricing", w.Price * f.Price})
	}
	if f.Delivery >= t.Delivery {
		notable = append(notable, reason{"Fast delivery history", w.Delivery * f.Delivery})
	}
	if f.Trust >= t.Trust {
		notable = append(notable, reason{"Top-rated vendor", w.Trust * f.Trust})
	}
	sort.SliceStable(notable, func(i, j int) bool { return notable[i].contribution > notable[j].contribution })

	reasons := make([]string, 0, len(notable))
	for _, n := range notable {
		reasons = append(reasons, n.text)
	}
	return reasons
}

// ratio returns num/den clamped to [0,1]; den must be positive.
func ratio(num, den decimal.Decimal) float64 {
	if !den.IsPositive() {
		return 0
	}
	return clamp01(num.DivRound(den, 8).InexactFloat64())
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
