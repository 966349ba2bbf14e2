package services

import (
	"context"
	"errors"
	"procurement/config"
	"procurement/models"
	"procurement/storage"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tenantA = models.TenantContext{CompanyID: "company-a", UserID: "user-1"}

type stubExplainer struct {
	mu    sync.Mutex
	text  string
	err   error
	block bool
	calls int
}

func (s *stubExplainer) Explain(ctx context.Context, req ExplainRequest) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.text, s.err
}

func newTestDetector(store storage.Store, explainer Explainer) *AnomalyDetector {
	det := NewAnomalyDetector(store, explainer, config.DefaultScoringPolicy().Anomaly, 50*time.Millisecond)
	det.now = fixedClock
	return det
}

func TestAnomalyDetectorAssess(t *testing.T) {
	det := newTestDetector(storage.NewMemoryStore(), nil)
	tests := []struct {
		actual, expected string
		wantDeviation    string
		wantSeverity     models.Severity
	}{
		{actual: "115", expected: "100", wantDeviation: "0.15", wantSeverity: models.SeverityHigh},
		{actual: "139.9", expected: "100", wantDeviation: "0.399", wantSeverity: models.SeverityHigh},
		{actual: "140", expected: "100", wantDeviation: "0.4", wantSeverity: models.SeverityExtremelyHigh},
		{actual: "90", expected: "100", wantDeviation: "-0.1", wantSeverity: models.SeverityNormal},
		{actual: "1", expected: "100", wantDeviation: "-0.99", wantSeverity: models.SeverityNormal},
		{actual: "114.99", expected: "100", wantDeviation: "0.1499", wantSeverity: models.SeverityNormal},
		{actual: "100", expected: "100", wantDeviation: "0", wantSeverity: models.SeverityNormal},
		{actual: "300", expected: "100", wantDeviation: "2", wantSeverity: models.SeverityExtremelyHigh},
		{actual: "34.5", expected: "30", wantDeviation: "0.15", wantSeverity: models.SeverityHigh},
		{actual: "139999.99", expected: "100000", wantDeviation: "0.4", wantSeverity: models.SeverityHigh},
		{actual: "114999.99", expected: "100000", wantDeviation: "0.15", wantSeverity: models.SeverityNormal},
	}

	for _, tt := range tests {
		t.Run(tt.actual+"/"+tt.expected, func(t *testing.T) {
			dev, sev, err := det.Assess(d(tt.actual), d(tt.expected))
			require.NoError(t, err)
			assert.True(t, dev.Equal(d(tt.wantDeviation)), "deviation %s", dev)
			assert.Equal(t, tt.wantSeverity, sev)
		})
	}
}

func TestAnomalyDetectorAssessRejectsNonPositivePrices(t *testing.T) {
	det := newTestDetector(storage.NewMemoryStore(), nil)

	_, _, err := det.Assess(d("100"), d("0"))
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = det.Assess(d("0"), d("100"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAnomalyDetectorCustomThresholds(t *testing.T) {
	det := NewAnomalyDetector(storage.NewMemoryStore(), nil, config.AnomalyThresholds{High: 0.05, ExtremelyHigh: 0.10}, time.Second)

	_, sev, err := det.Assess(d("106"), d("100"))
	require.NoError(t, err)
	assert.Equal(t, models.SeverityHigh, sev)

	_, sev, err = det.Assess(d("110"), d("100"))
	require.NoError(t, err)
	assert.Equal(t, models.SeverityExtremelyHigh, sev)
}

func TestAnomalyDetectorEvaluatePersists(t *testing.T) {
	store := storage.NewMemoryStore()
	explainer := &stubExplainer{text: "  Price is 40% above the approved average.  "}
	det := newTestDetector(store, explainer)

	anomaly, err := det.Evaluate(context.Background(), tenantA, AnomalyInput{
		QuoteID: "quote-1", ItemID: "item-1", ActualPrice: d("140"), ExpectedPrice: d("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityExtremelyHigh, anomaly.Severity)
	require.NotNil(t, anomaly.AIExplanation)
	assert.Equal(t, "Price is 40% above the approved average.", *anomaly.AIExplanation)
	assert.False(t, anomaly.Acknowledged)
	assert.Equal(t, fixedClock(), anomaly.CreatedAt)

	stored, err := store.ListAnomalies(context.Background(), tenantA.CompanyID, models.AnomalyFilter{QuoteID: "quote-1"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, anomaly.ID, stored[0].ID)
}

func TestAnomalyDetectorExplainerDegradesToNull(t *testing.T) {
	tests := []struct {
		name      string
		explainer Explainer
	}{
		{name: "no explainer", explainer: nil},
		{name: "explainer error", explainer: &stubExplainer{err: errors.New("upstream 503")}},
		{name: "explainer timeout", explainer: &stubExplainer{block: true}},
		{name: "empty text", explainer: &stubExplainer{text: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := newTestDetector(storage.NewMemoryStore(), tt.explainer)
			start := time.Now()
			anomaly, err := det.Evaluate(context.Background(), tenantA, AnomalyInput{
				QuoteID: "quote-1", ItemID: "item-1", ActualPrice: d("150"), ExpectedPrice: d("100"),
			})
			require.NoError(t, err)
			assert.Nil(t, anomaly.AIExplanation)
			assert.Less(t, time.Since(start), 2*time.Second)
		})
	}
}

func TestAnomalyDetectorSkipsExplainerForNormal(t *testing.T) {
	explainer := &stubExplainer{text: "should not be used"}
	det := newTestDetector(storage.NewMemoryStore(), explainer)

	anomaly, err := det.Evaluate(context.Background(), tenantA, AnomalyInput{
		QuoteID: "quote-1", ItemID: "item-1", ActualPrice: d("90"), ExpectedPrice: d("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityNormal, anomaly.Severity)
	assert.Nil(t, anomaly.AIExplanation)
	assert.Zero(t, explainer.calls)
}

func TestAnomalyDetectorAcknowledgeIsIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	det := newTestDetector(store, nil)
	anomaly, err := det.Evaluate(context.Background(), tenantA, AnomalyInput{
		QuoteID: "quote-1", ItemID: "item-1", ActualPrice: d("120"), ExpectedPrice: d("100"),
	})
	require.NoError(t, err)

	first, err := det.Acknowledge(context.Background(), tenantA, anomaly.ID)
	require.NoError(t, err)
	assert.True(t, first.Acknowledged)
	require.NotNil(t, first.AcknowledgedAt)

	det.now = func() time.Time { return fixedClock().Add(time.Hour) }
	second, err := det.Acknowledge(context.Background(), tenantA, anomaly.ID)
	require.NoError(t, err)
	assert.True(t, second.Acknowledged)
	assert.Equal(t, *first.AcknowledgedAt, *second.AcknowledgedAt)
}

func TestAnomalyDetectorAcknowledgeNotFound(t *testing.T) {
	store := storage.NewMemoryStore()
	det := newTestDetector(store, nil)
	anomaly, err := det.Evaluate(context.Background(), tenantA, AnomalyInput{
		QuoteID: "quote-1", ItemID: "item-1", ActualPrice: d("120"), ExpectedPrice: d("100"),
	})
	require.NoError(t, err)

	_, err = det.Acknowledge(context.Background(), tenantA, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	other := models.TenantContext{CompanyID: "company-b"}
	_, err = det.Acknowledge(context.Background(), other, anomaly.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnomalyDetectorList(t *testing.T) {
	store := storage.NewMemoryStore()
	det := newTestDetector(store, nil)
	base := fixedClock()
	prices := []string{"90", "120", "150", "125"}
	for i, price := range prices {
		det.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		_, err := det.Evaluate(context.Background(), tenantA, AnomalyInput{
			QuoteID: "quote-" + price, ItemID: "item-1", ActualPrice: d(price), ExpectedPrice: d("100"),
		})
		require.NoError(t, err)
	}

	all, err := det.List(context.Background(), tenantA, models.AnomalyFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "quote-125", all[0].QuoteID)
	assert.Equal(t, "quote-90", all[3].QuoteID)

	high, err := det.List(context.Background(), tenantA, models.AnomalyFilter{Severities: []models.Severity{models.SeverityHigh}})
	require.NoError(t, err)
	assert.Len(t, high, 2)

	limited, err := det.List(context.Background(), tenantA, models.AnomalyFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = det.List(context.Background(), tenantA, models.AnomalyFilter{Severities: []models.Severity{"LOW"}})
	assert.ErrorIs(t, err, ErrValidation)

	none, err := det.List(context.Background(), models.TenantContext{CompanyID: "company-b"}, models.AnomalyFilter{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStoreBaselineProvider(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	ref := decimal.RequireFromString("250")
	require.NoError(t, store.CreateItem(ctx, models.Item{ID: "item-ref", CompanyID: tenantA.CompanyID, ReferencePrice: &ref}))
	require.NoError(t, store.CreateItem(ctx, models.Item{ID: "item-hist", CompanyID: tenantA.CompanyID}))
	require.NoError(t, store.CreateRFQ(ctx, models.RFQ{ID: "rfq-1", CompanyID: tenantA.CompanyID, ItemID: "item-hist"}))

	provider := NewStoreBaselineProvider(store, 3)

	price, ok, err := provider.Baseline(ctx, tenantA.CompanyID, "item-ref")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, price.Equal(ref))

	addApproved := func(id, base string) {
		require.NoError(t, store.CreateQuote(ctx, models.Quote{
			ID: id, CompanyID: tenantA.CompanyID, QuoteNumber: id, RFQID: "rfq-1",
			BasePrice: d(base), Status: models.QuoteStatusApproved, IsApproved: true,
		}))
	}
	addApproved("q1", "100")
	addApproved("q2", "110")

	_, ok, err = provider.Baseline(ctx, tenantA.CompanyID, "item-hist")
	require.NoError(t, err)
	assert.False(t, ok, "two samples are not enough")

	addApproved("q3", "120")
	require.NoError(t, store.CreateQuote(ctx, models.Quote{
		ID: "q4", CompanyID: tenantA.CompanyID, QuoteNumber: "q4", RFQID: "rfq-1",
		BasePrice: d("999"), Status: models.QuoteStatusSubmitted,
	}))

	price, ok, err = provider.Baseline(ctx, tenantA.CompanyID, "item-hist")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, price.Equal(d("110")), "baseline %s", price)

	_, _, err = provider.Baseline(ctx, tenantA.CompanyID, "item-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
