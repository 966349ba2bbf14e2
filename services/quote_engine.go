package services

import (
	"context"
	"fmt"
	"log"
	"procurement/config"
	"procurement/models"
	"procurement/repository"
	"procurement/storage"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const notifyTimeout = 30 * time.Second

// AnomalyNotifier is told about EXTREMELY_HIGH anomalies after they are stored.
type AnomalyNotifier interface {
	NotifyAnomaly(ctx context.Context, alert AnomalyAlert) error
}

// AnomalyAlert bundles an anomaly with the quote and item it was raised for.
type AnomalyAlert struct {
	Tenant  models.TenantContext
	Quote   models.Quote
	Item    models.Item
	Anomaly models.Anomaly
}

// EngineOptions configures a QuoteEngine. Zero values fall back to defaults.
type EngineOptions struct {
	QuoteNumberPrefix  string
	MaxAttempts        int
	MinBaselineSamples int
	Policy             config.ScoringPolicy
	Explainer          Explainer
	ExplainTimeout     time.Duration
	Baseline           BaselineProvider
	Notifier           AnomalyNotifier
}

// QuoteEngine composes landed cost, numbering, anomaly detection, ranking and the
// quote lifecycle into the operations the HTTP layer exposes.
type QuoteEngine struct {
	store     storage.Store
	numbers   *QuoteNumberGenerator
	baseline  BaselineProvider
	detector  *AnomalyDetector
	ranker    *RecommendationRanker
	lifecycle *QuoteLifecycle
	notifier  AnomalyNotifier
	retry     retryPolicy
	now       func() time.Time

	pending sync.WaitGroup
}

func NewQuoteEngine(store storage.Store, opts EngineOptions) *QuoteEngine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.MinBaselineSamples <= 0 {
		opts.MinBaselineSamples = 3
	}
	if opts.Policy.Weights == nil {
		opts.Policy = config.DefaultScoringPolicy()
	}
	baseline := opts.Baseline
	if baseline == nil {
		baseline = NewStoreBaselineProvider(store, opts.MinBaselineSamples)
	}
	return &QuoteEngine{
		store:     store,
		numbers:   NewQuoteNumberGenerator(store, opts.QuoteNumberPrefix, opts.MaxAttempts),
		baseline:  baseline,
		detector:  NewAnomalyDetector(store, opts.Explainer, opts.Policy.Anomaly, opts.ExplainTimeout),
		ranker:    NewRecommendationRanker(store, opts.Policy),
		lifecycle: NewQuoteLifecycle(store),
		notifier:  opts.Notifier,
		retry:     defaultRetryPolicy(opts.MaxAttempts),
		now:       time.Now,
	}
}

// SubmitQuote prices, numbers and stores a quote, then evaluates it against the item's
// baseline. The anomaly is nil when the item has no baseline yet.
func (e *QuoteEngine) SubmitQuote(ctx context.Context, tenant models.TenantContext, req models.SubmitQuoteRequest) (models.SubmitQuoteResponse, error) {
	if err := requireTenant(tenant); err != nil {
		return models.SubmitQuoteResponse{}, err
	}
	if req.RFQID == "" {
		return models.SubmitQuoteResponse{}, validationErr("rfq_id", "is required")
	}
	if req.VendorID == "" {
		return models.SubmitQuoteResponse{}, validationErr("vendor_id", "is required")
	}
	if req.DeliveryDays != nil && *req.DeliveryDays < 0 {
		return models.SubmitQuoteResponse{}, validationErr("delivery_days", "must not be negative, got %d", *req.DeliveryDays)
	}
	transport := decimal.Zero
	if req.TransportCost != nil {
		transport = *req.TransportCost
	}
	cost, err := ComputeLandedCost(req.BasePrice, req.GSTPercent, transport)
	if err != nil {
		return models.SubmitQuoteResponse{}, err
	}

	rfq, err := e.store.GetRFQ(ctx, tenant.CompanyID, req.RFQID)
	if err != nil {
		return models.SubmitQuoteResponse{}, notFoundOr(err, "rfq", req.RFQID)
	}
	vendor, err := e.store.GetVendor(ctx, tenant.CompanyID, req.VendorID)
	if err != nil {
		return models.SubmitQuoteResponse{}, notFoundOr(err, "vendor", req.VendorID)
	}
	if vendor.IsDeleted {
		return models.SubmitQuoteResponse{}, &NotFoundError{Entity: "vendor", ID: req.VendorID}
	}
	item, err := e.store.GetItem(ctx, tenant.CompanyID, rfq.ItemID)
	if err != nil {
		return models.SubmitQuoteResponse{}, notFoundOr(err, "item", rfq.ItemID)
	}

	quote := models.Quote{
		ID:            repository.NewID(),
		CompanyID:     tenant.CompanyID,
		RFQID:         rfq.ID,
		VendorID:      vendor.ID,
		BasePrice:     cost.BasePrice,
		GSTPercent:    cost.GSTPercent,
		GSTAmount:     cost.GSTAmount,
		TransportCost: cost.TransportCost,
		LandedCost:    cost.LandedCost,
		DeliveryDays:  req.DeliveryDays,
		Terms:         req.Terms,
		Notes:         req.Notes,
		Status:        models.QuoteStatusSubmitted,
		CreatedAt:     e.now().UTC(),
	}
	// A unique violation on insert means another writer took the number; draw a new one.
	err = retryOnContention(ctx, "submit_quote", e.retry, func() error {
		number, err := e.numbers.Next(ctx, tenant.CompanyID)
		if err != nil {
			return err
		}
		quote.QuoteNumber = number
		return e.store.CreateQuote(ctx, quote)
	})
	if err != nil {
		return models.SubmitQuoteResponse{}, fmt.Errorf("create quote: %w", err)
	}
	quotesSubmitted.Inc()
	log.Printf("quote %s submitted for rfq %s by vendor %s (landed %s)", quote.QuoteNumber, rfq.ID, vendor.ID, quote.LandedCost)

	resp := models.SubmitQuoteResponse{Quote: quote}

	expected, ok, err := e.baseline.Baseline(ctx, tenant.CompanyID, item.ID)
	if err != nil {
		return resp, fmt.Errorf("quote %s stored, baseline lookup failed: %w", quote.QuoteNumber, err)
	}
	if !ok {
		anomalyBaselineMissing.Inc()
		return resp, nil
	}

	anomaly, err := e.detector.Evaluate(ctx, tenant, AnomalyInput{
		QuoteID:       quote.ID,
		ItemID:        item.ID,
		ItemName:      item.Name,
		ActualPrice:   quote.BasePrice,
		ExpectedPrice: expected,
	})
	if err != nil {
		return resp, fmt.Errorf("quote %s stored, anomaly evaluation failed: %w", quote.QuoteNumber, err)
	}
	resp.Anomaly = &anomaly

	if anomaly.Severity == models.SeverityExtremelyHigh {
		e.notify(AnomalyAlert{Tenant: tenant, Quote: quote, Item: item, Anomaly: anomaly})
	}
	return resp, nil
}

// notify hands the alert to the notifier in the background. Failures are only logged.
func (e *QuoteEngine) notify(alert AnomalyAlert) {
	if e.notifier == nil {
		return
	}
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := e.notifier.NotifyAnomaly(ctx, alert); err != nil {
			log.Printf("anomaly %s alert failed: %v", alert.Anomaly.ID, err)
		}
	}()
}

// Wait blocks until background alerts have finished.
func (e *QuoteEngine) Wait() {
	e.pending.Wait()
}

func (e *QuoteEngine) GetQuote(ctx context.Context, tenant models.TenantContext, quoteID string) (models.Quote, error) {
	if err := requireTenant(tenant); err != nil {
		return models.Quote{}, err
	}
	quote, err := e.store.GetQuote(ctx, tenant.CompanyID, quoteID)
	if err != nil {
		return models.Quote{}, notFoundOr(err, "quote", quoteID)
	}
	return quote, nil
}

// ListRFQQuotes returns an RFQ's quotes cheapest landed cost first.
func (e *QuoteEngine) ListRFQQuotes(ctx context.Context, tenant models.TenantContext, rfqID string) (models.RFQ, []models.Quote, error) {
	if err := requireTenant(tenant); err != nil {
		return models.RFQ{}, nil, err
	}
	rfq, err := e.store.GetRFQ(ctx, tenant.CompanyID, rfqID)
	if err != nil {
		return models.RFQ{}, nil, notFoundOr(err, "rfq", rfqID)
	}
	quotes, err := e.store.ListQuotesByRFQ(ctx, tenant.CompanyID, rfqID)
	if err != nil {
		return models.RFQ{}, nil, fmt.Errorf("list quotes: %w", err)
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}
	SortQuotesForComparison(quotes)
	return rfq, quotes, nil
}

func (e *QuoteEngine) ApproveQuote(ctx context.Context, tenant models.TenantContext, quoteID string) (models.Quote, error) {
	return e.lifecycle.Approve(ctx, tenant, quoteID)
}

func (e *QuoteEngine) ListAnomalies(ctx context.Context, tenant models.TenantContext, filter models.AnomalyFilter) ([]models.Anomaly, error) {
	return e.detector.List(ctx, tenant, filter)
}

func (e *QuoteEngine) AcknowledgeAnomaly(ctx context.Context, tenant models.TenantContext, anomalyID string) (models.Anomaly, error) {
	return e.detector.Acknowledge(ctx, tenant, anomalyID)
}

func (e *QuoteEngine) GetRecommendations(ctx context.Context, tenant models.TenantContext, req models.RecommendationRequest) ([]models.Recommendation, error) {
	return e.ranker.Recommend(ctx, tenant, req.ItemIDs, req.Urgency)
}

func (e *QuoteEngine) ListRecommendations(ctx context.Context, tenant models.TenantContext, requestID string) ([]models.Recommendation, error) {
	return e.ranker.List(ctx, tenant, requestID)
}

func (e *QuoteEngine) SelectRecommendation(ctx context.Context, tenant models.TenantContext, recommendationID string) (models.Recommendation, error) {
	return e.ranker.Select(ctx, tenant, recommendationID)
}
