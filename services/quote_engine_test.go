package services

import (
	"context"
	"errors"
	"fmt"
	"procurement/models"
	"procurement/storage"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []AnomalyAlert
	err    error
}

func (n *recordingNotifier) NotifyAnomaly(ctx context.Context, alert AnomalyAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return n.err
}

type engineFixture struct {
	store   *storage.MemoryStore
	engine  *QuoteEngine
	catalog *CatalogService
	item    models.Item
	rfq     models.RFQ
	vendor  models.Vendor
}

func newEngineFixture(t *testing.T, reference *decimal.Decimal, opts EngineOptions) engineFixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	catalog := NewCatalogService(store)

	category, err := catalog.CreateCategory(ctx, tenantA, models.CreateCategoryRequest{Name: "Cement"})
	require.NoError(t, err)
	item, err := catalog.CreateItem(ctx, tenantA, models.CreateItemRequest{Name: "OPC 53", CategoryID: category.ID, Unit: "bag", ReferencePrice: reference})
	require.NoError(t, err)
	rfq, err := catalog.CreateRFQ(ctx, tenantA, models.CreateRFQRequest{ItemID: item.ID, Title: "Tower B", Quantity: d("500")})
	require.NoError(t, err)
	vendor, err := catalog.CreateVendor(ctx, tenantA, models.CreateVendorRequest{Name: "ABC Suppliers", VendorScore: score("88"), CategoryIDs: []string{category.ID}})
	require.NoError(t, err)

	engine := NewQuoteEngine(store, opts)
	engine.numbers.now = fixedClock
	return engineFixture{store: store, engine: engine, catalog: catalog, item: item, rfq: rfq, vendor: vendor}
}

func (f engineFixture) submit(t *testing.T, base string) models.SubmitQuoteResponse {
	t.Helper()
	resp, err := f.engine.SubmitQuote(context.Background(), tenantA, models.SubmitQuoteRequest{
		RFQID: f.rfq.ID, VendorID: f.vendor.ID, BasePrice: d(base), GSTPercent: d("18"),
	})
	require.NoError(t, err)
	return resp
}

func TestQuoteEngineSubmitQuote(t *testing.T) {
	f := newEngineFixture(t, nil, EngineOptions{})
	transport := d("2000")
	days := 14

	resp, err := f.engine.SubmitQuote(context.Background(), tenantA, models.SubmitQuoteRequest{
		RFQID:         f.rfq.ID,
		VendorID:      f.vendor.ID,
		BasePrice:     d("50000"),
		GSTPercent:    d("18"),
		TransportCost: &transport,
		DeliveryDays:  &days,
		Terms:         "30 days credit",
	})
	require.NoError(t, err)

	q := resp.Quote
	assert.Equal(t, "QT-20261017-000001", q.QuoteNumber)
	assert.True(t, q.GSTAmount.Equal(d("9000")))
	assert.True(t, q.LandedCost.Equal(d("61000")))
	assert.Equal(t, models.QuoteStatusSubmitted, q.Status)
	assert.False(t, q.IsApproved)
	assert.Nil(t, q.ApprovedAt)
	assert.Nil(t, resp.Anomaly, "no baseline yet")

	stored, err := f.engine.GetQuote(context.Background(), tenantA, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.QuoteNumber, stored.QuoteNumber)
}

func TestQuoteEngineSubmitQuoteEvaluatesAgainstReference(t *testing.T) {
	notifier := &recordingNotifier{}
	f := newEngineFixture(t, score("100"), EngineOptions{Notifier: notifier})

	tests := []struct {
		base string
		want models.Severity
	}{
		{base: "115", want: models.SeverityHigh},
		{base: "139.9", want: models.SeverityHigh},
		{base: "140", want: models.SeverityExtremelyHigh},
		{base: "90", want: models.SeverityNormal},
	}
	for _, tt := range tests {
		resp := f.submit(t, tt.base)
		require.NotNil(t, resp.Anomaly, tt.base)
		assert.Equal(t, tt.want, resp.Anomaly.Severity, tt.base)
		assert.Equal(t, resp.Quote.ID, resp.Anomaly.QuoteID)
		assert.Equal(t, f.item.ID, resp.Anomaly.ItemID)
		assert.True(t, resp.Anomaly.ActualPrice.Equal(d(tt.base)), "actual price is the pre-tax base price")
	}

	f.engine.Wait()
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, models.SeverityExtremelyHigh, notifier.alerts[0].Anomaly.Severity)
	assert.Equal(t, f.item.Name, notifier.alerts[0].Item.Name)
}

func TestQuoteEngineNotifierFailureDoesNotFailSubmission(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	f := newEngineFixture(t, score("100"), EngineOptions{Notifier: notifier})

	resp := f.submit(t, "500")
	f.engine.Wait()
	require.NotNil(t, resp.Anomaly)
	assert.Equal(t, models.SeverityExtremelyHigh, resp.Anomaly.Severity)
	assert.Len(t, notifier.alerts, 1)
}

func TestQuoteEngineBaselineFromApprovedHistory(t *testing.T) {
	f := newEngineFixture(t, nil, EngineOptions{MinBaselineSamples: 3})
	ctx := context.Background()

	for _, base := range []string{"100", "100", "100"} {
		resp := f.submit(t, base)
		assert.Nil(t, resp.Anomaly)
		_, err := f.engine.ApproveQuote(ctx, tenantA, resp.Quote.ID)
		require.NoError(t, err)
	}

	resp := f.submit(t, "140")
	require.NotNil(t, resp.Anomaly)
	assert.True(t, resp.Anomaly.ExpectedPrice.Equal(d("100")))
	assert.Equal(t, models.SeverityExtremelyHigh, resp.Anomaly.Severity)

	listed, err := f.engine.ListAnomalies(ctx, tenantA, models.AnomalyFilter{QuoteID: resp.Quote.ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	acked, err := f.engine.AcknowledgeAnomaly(ctx, tenantA, listed[0].ID)
	require.NoError(t, err)
	assert.True(t, acked.Acknowledged)
	acked, err = f.engine.AcknowledgeAnomaly(ctx, tenantA, listed[0].ID)
	require.NoError(t, err)
	assert.True(t, acked.Acknowledged)
}

func TestQuoteEngineSubmitQuoteErrors(t *testing.T) {
	f := newEngineFixture(t, nil, EngineOptions{})
	ctx := context.Background()
	require.NoError(t, f.catalog.DeleteVendor(ctx, tenantA, f.vendor.ID))
	live, err := f.catalog.CreateVendor(ctx, tenantA, models.CreateVendorRequest{Name: "Live"})
	require.NoError(t, err)
	negative := -1

	tests := []struct {
		name   string
		tenant models.TenantContext
		req    models.SubmitQuoteRequest
		want   error
	}{
		{name: "missing tenant", tenant: models.TenantContext{}, req: models.SubmitQuoteRequest{RFQID: f.rfq.ID, VendorID: live.ID, BasePrice: d("1")}, want: ErrValidation},
		{name: "missing rfq id", tenant: tenantA, req: models.SubmitQuoteRequest{VendorID: live.ID, BasePrice: d("1")}, want: ErrValidation},
		{name: "zero base price", tenant: tenantA, req: models.SubmitQuoteRequest{RFQID: f.rfq.ID, VendorID: live.ID}, want: ErrValidation},
		{name: "gst over 100", tenant: tenantA, req: models.SubmitQuoteRequest{RFQID: f.rfq.ID, VendorID: live.ID, BasePrice: d("1"), GSTPercent: d("101")}, want: ErrValidation},
		{name: "negative delivery days", tenant: tenantA, req: models.SubmitQuoteRequest{RFQID: f.rfq.ID, VendorID: live.ID, BasePrice: d("1"), DeliveryDays: &negative}, want: ErrValidation},
		{name: "unknown rfq", tenant: tenantA, req: models.SubmitQuoteRequest{RFQID: "nope", VendorID: live.ID, BasePrice: d("1")}, want: ErrNotFound},
		{name: "unknown vendor", tenant: tenantA, req: models.SubmitQuoteRequest{RFQID: f.rfq.ID, VendorID: "nope", BasePrice: d("1")}, want: ErrNotFound},
		{name: "tombstoned vendor", tenant: tenantA, req: models.SubmitQuoteRequest{RFQID: f.rfq.ID, VendorID: f.vendor.ID, BasePrice: d("1")}, want: ErrNotFound},
		{name: "other tenant rfq", tenant: models.TenantContext{CompanyID: "company-b"}, req: models.SubmitQuoteRequest{RFQID: f.rfq.ID, VendorID: live.ID, BasePrice: d("1")}, want: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.SubmitQuote(ctx, tt.tenant, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestQuoteEngineConcurrentSubmissionsGetDistinctNumbers(t *testing.T) {
	f := newEngineFixture(t, nil, EngineOptions{})

	const n = 50
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.engine.SubmitQuote(context.Background(), tenantA, models.SubmitQuoteRequest{
				RFQID: f.rfq.ID, VendorID: f.vendor.ID, BasePrice: d(fmt.Sprintf("%d", 100+i)), GSTPercent: d("18"),
			})
			if assert.NoError(t, err) {
				numbers <- resp.Quote.QuoteNumber
			}
		}(i)
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		assert.False(t, seen[num], "duplicate %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestQuoteEngineListRFQQuotesComparisonOrder(t *testing.T) {
	f := newEngineFixture(t, nil, EngineOptions{})
	for _, base := range []string{"300", "100", "200"} {
		f.submit(t, base)
	}

	rfq, quotes, err := f.engine.ListRFQQuotes(context.Background(), tenantA, f.rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, f.rfq.ID, rfq.ID)
	require.Len(t, quotes, 3)
	assert.True(t, quotes[0].BasePrice.Equal(d("100")))
	assert.True(t, quotes[2].BasePrice.Equal(d("300")))

	_, _, err = f.engine.ListRFQQuotes(context.Background(), tenantA, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuoteEngineApproveTwice(t *testing.T) {
	f := newEngineFixture(t, nil, EngineOptions{})
	resp := f.submit(t, "100")

	approved, err := f.engine.ApproveQuote(context.Background(), tenantA, resp.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = f.engine.ApproveQuote(context.Background(), tenantA, resp.Quote.ID)
	assert.ErrorIs(t, err, ErrState)
}
