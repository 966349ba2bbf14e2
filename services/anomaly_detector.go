package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"procurement/config"
	"procurement/models"
	"procurement/repository"
	"procurement/storage"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultAnomalyListLimit = 100

// ExplainRequest is what the text generator is told about an anomaly.
type ExplainRequest struct {
	ItemID        string
	ItemName      string
	ExpectedPrice decimal.Decimal
	ActualPrice   decimal.Decimal
	Deviation     decimal.Decimal
	Severity      models.Severity
}

// Explainer produces a short human-readable explanation for a flagged price.
type Explainer interface {
	Explain(ctx context.Context, req ExplainRequest) (string, error)
}

// BaselineProvider returns the expected price for an item. ok is false when the item has
// no usable baseline yet.
type BaselineProvider interface {
	Baseline(ctx context.Context, companyID, itemID string) (price decimal.Decimal, ok bool, err error)
}

// StoreBaselineProvider uses the item's reference price, falling back to the mean base
// price of approved quotes once enough of them exist.
type StoreBaselineProvider struct {
	store      storage.Store
	minSamples int
}

func NewStoreBaselineProvider(store storage.Store, minSamples int) *StoreBaselineProvider {
	if minSamples < 1 {
		minSamples = 1
	}
	return &StoreBaselineProvider{store: store, minSamples: minSamples}
}

func (p *StoreBaselineProvider) Baseline(ctx context.Context, companyID, itemID string) (decimal.Decimal, bool, error) {
	item, err := p.store.GetItem(ctx, companyID, itemID)
	if err != nil {
		return decimal.Zero, false, notFoundOr(err, "item", itemID)
	}
	if item.ReferencePrice != nil && item.ReferencePrice.IsPositive() {
		return *item.ReferencePrice, true, nil
	}

	mean, count, err := p.store.ApprovedPriceStats(ctx, companyID, itemID)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("approved price stats: %w", err)
	}
	if count < p.minSamples || !mean.IsPositive() {
		return decimal.Zero, false, nil
	}
	return mean.RoundBank(2), true, nil
}

// AnomalyInput identifies the quote/item pair being evaluated and its two prices.
type AnomalyInput struct {
	QuoteID       string
	ItemID        string
	ItemName      string
	ActualPrice   decimal.Decimal
	ExpectedPrice decimal.Decimal
}

// AnomalyDetector classifies quoted prices against a baseline and persists the result.
type AnomalyDetector struct {
	store          storage.Store
	explainer      Explainer
	high           decimal.Decimal
	extremelyHigh  decimal.Decimal
	explainTimeout time.Duration
	now            func() time.Time
}

// NewAnomalyDetector creates a detector. explainer may be nil.
func NewAnomalyDetector(store storage.Store, explainer Explainer, thresholds config.AnomalyThresholds, explainTimeout time.Duration) *AnomalyDetector {
	if explainTimeout <= 0 {
		explainTimeout = 5 * time.Second
	}
	return &AnomalyDetector{
		store:          store,
		explainer:      explainer,
		high:           decimal.NewFromFloat(thresholds.High),
		extremelyHigh:  decimal.NewFromFloat(thresholds.ExtremelyHigh),
		explainTimeout: explainTimeout,
		now:            time.Now,
	}
}

// Assess classifies the exact deviation and returns it rounded to four places. Prices
// below the baseline are always NORMAL.
func (d *AnomalyDetector) Assess(actual, expected decimal.Decimal) (decimal.Decimal, models.Severity, error) {
	if !expected.IsPositive() {
		return decimal.Zero, "", validationErr("expected_price", "must be greater than 0, got %s", expected)
	}
	if !actual.IsPositive() {
		return decimal.Zero, "", validationErr("actual_price", "must be greater than 0, got %s", actual)
	}

	exact := actual.Sub(expected).DivRound(expected, 16)
	deviation := exact.RoundBank(4)
	switch {
	case exact.IsNegative():
		return deviation, models.SeverityNormal, nil
	case exact.GreaterThanOrEqual(d.extremelyHigh):
		return deviation, models.SeverityExtremelyHigh, nil
	case exact.GreaterThanOrEqual(d.high):
		return deviation, models.SeverityHigh, nil
	default:
		return deviation, models.SeverityNormal, nil
	}
}

// Evaluate classifies one quote's price, asks the explainer for flagged prices and
// stores the anomaly record. Explainer failures leave ai_explanation null.
func (d *AnomalyDetector) Evaluate(ctx context.Context, tenant models.TenantContext, in AnomalyInput) (models.Anomaly, error) {
	if err := requireTenant(tenant); err != nil {
		return models.Anomaly{}, err
	}
	if in.QuoteID == "" {
		return models.Anomaly{}, validationErr("quote_id", "is required")
	}
	if in.ItemID == "" {
		return models.Anomaly{}, validationErr("item_id", "is required")
	}

	deviation, severity, err := d.Assess(in.ActualPrice, in.ExpectedPrice)
	if err != nil {
		return models.Anomaly{}, err
	}

	anomaly := models.Anomaly{
		ID:            repository.NewID(),
		CompanyID:     tenant.CompanyID,
		QuoteID:       in.QuoteID,
		ItemID:        in.ItemID,
		ExpectedPrice: in.ExpectedPrice,
		ActualPrice:   in.ActualPrice,
		Deviation:     deviation,
		Severity:      severity,
		CreatedAt:     d.now().UTC(),
	}
	if severity != models.SeverityNormal {
		anomaly.AIExplanation = d.explain(ctx, ExplainRequest{
			ItemID:        in.ItemID,
			ItemName:      in.ItemName,
			ExpectedPrice: in.ExpectedPrice,
			ActualPrice:   in.ActualPrice,
			Deviation:     deviation,
			Severity:      severity,
		})
	}

	if err := d.store.CreateAnomaly(ctx, anomaly); err != nil {
		return models.Anomaly{}, fmt.Errorf("create anomaly: %w", err)
	}
	anomaliesDetected.WithLabelValues(string(severity)).Inc()
	return anomaly, nil
}

func (d *AnomalyDetector) explain(ctx context.Context, req ExplainRequest) *string {
	if d.explainer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, d.explainTimeout)
	defer cancel()

	text, err := d.explainer.Explain(ctx, req)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			reason = "timeout"
		}
		explainerFailures.WithLabelValues(reason).Inc()
		log.Printf("anomaly explanation for item %s skipped (%s): %v", req.ItemID, reason, err)
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}

// Acknowledge marks an anomaly as seen. Acknowledging twice is not an error and keeps
// the first acknowledged_at.
func (d *AnomalyDetector) Acknowledge(ctx context.Context, tenant models.TenantContext, anomalyID string) (models.Anomaly, error) {
	if err := requireTenant(tenant); err != nil {
		return models.Anomaly{}, err
	}
	anomaly, err := d.store.UpdateAnomaly(ctx, tenant.CompanyID, anomalyID, func(a *models.Anomaly) error {
		if a.Acknowledged {
			return nil
		}
		at := d.now().UTC()
		a.Acknowledged = true
		a.AcknowledgedAt = &at
		return nil
	})
	if err != nil {
		return models.Anomaly{}, notFoundOr(err, "anomaly", anomalyID)
	}
	return anomaly, nil
}

// List returns the tenant's anomalies newest first.
func (d *AnomalyDetector) List(ctx context.Context, tenant models.TenantContext, filter models.AnomalyFilter) ([]models.Anomaly, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	for _, s := range filter.Severities {
		if !s.Valid() {
			return nil, validationErr("severity", "unknown severity %q", s)
		}
	}
	if filter.Limit < 0 {
		return nil, validationErr("limit", "must not be negative")
	}
	if filter.Limit == 0 {
		filter.Limit = defaultAnomalyListLimit
	}
	anomalies, err := d.store.ListAnomalies(ctx, tenant.CompanyID, filter)
	if err != nil {
		return nil, fmt.Errorf("list anomalies: %w", err)
	}
	if anomalies == nil {
		anomalies = []models.Anomaly{}
	}
	return anomalies, nil
}
