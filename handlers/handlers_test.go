package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"procurement/models"
	"procurement/services"
	"procurement/storage"
	"procurement/utils"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := storage.NewMemoryStore()
	router := NewRouter(RouterDeps{
		Engine:    services.NewQuoteEngine(store, services.EngineOptions{}),
		Catalog:   services.NewCatalogService(store),
		JWTSecret: testSecret,
	})
	return &testServer{router: router, token: tokenFor(t, "company-a")}
}

func tokenFor(t *testing.T, companyID string) string {
	t.Helper()
	token, err := utils.GenerateJWT(testSecret, companyID, "user-1", time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type catalogFixture struct {
	category models.Category
	vendor   models.Vendor
	item     models.Item
	rfq      models.RFQ
}

func (s *testServer) seedCatalog(t *testing.T) catalogFixture {
	t.Helper()
	var f catalogFixture

	w := s.do(http.MethodPost, "/api/categories", s.token, gin.H{"name": "Steel"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &f.category)

	w = s.do(http.MethodPost, "/api/vendors", s.token, gin.H{
		"name": "ABC Suppliers", "vendor_score": 90, "category_ids": []string{f.category.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &f.vendor)

	w = s.do(http.MethodPost, "/api/items", s.token, gin.H{
		"name": "TMT Bar", "category_id": f.category.ID, "unit": "tonne", "reference_price": 52000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &f.item)

	w = s.do(http.MethodPost, "/api/rfqs", s.token, gin.H{"item_id": f.item.ID, "title": "Tower B steel", "quantity": 12})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &f.rfq)

	return f
}

func (s *testServer) submit(t *testing.T, f catalogFixture, base string) models.SubmitQuoteResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/api/quotes", s.token, gin.H{
		"rfq_id": f.rfq.ID, "vendor_id": f.vendor.ID,
		"base_price": json.Number(base), "gst_percent": 18, "delivery_days": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp models.SubmitQuoteResponse
	decode(t, w, &resp)
	return resp
}

func TestRequireTenant(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/vendors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/vendors", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	foreign, err := utils.GenerateJWT("other-secret", "company-a", "user-1", time.Hour)
	require.NoError(t, err)
	w = s.do(http.MethodGet, "/api/vendors", foreign, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/vendors", s.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestSubmitAndApproveQuote(t *testing.T) {
	s := newTestServer(t)
	f := s.seedCatalog(t)

	resp := s.submit(t, f, "74880")
	assert.True(t, resp.Quote.GSTAmount.Equal(decimal.RequireFromString("13478.4")))
	assert.True(t, resp.Quote.LandedCost.Equal(decimal.RequireFromString("88358.4")))
	assert.Equal(t, models.QuoteStatusSubmitted, resp.Quote.Status)
	require.NotNil(t, resp.Anomaly)
	assert.Equal(t, models.SeverityExtremelyHigh, resp.Anomaly.Severity)
	assert.True(t, resp.Anomaly.Deviation.Equal(decimal.RequireFromString("0.44")))

	w := s.do(http.MethodGet, "/api/quotes/"+resp.Quote.ID, s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"landed_cost":88358.4`)

	w = s.do(http.MethodPost, "/api/quotes/"+resp.Quote.ID+"/approve", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var approved models.Quote
	decode(t, w, &approved)
	assert.Equal(t, models.QuoteStatusApproved, approved.Status)
	assert.True(t, approved.IsApproved)
	assert.NotNil(t, approved.ApprovedAt)

	w = s.do(http.MethodPost, "/api/quotes/"+resp.Quote.ID+"/approve", s.token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitQuoteErrors(t *testing.T) {
	s := newTestServer(t)
	f := s.seedCatalog(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"malformed json", "{", http.StatusBadRequest},
		{"missing vendor", gin.H{"rfq_id": f.rfq.ID, "base_price": 100, "gst_percent": 18}, http.StatusBadRequest},
		{"zero base price", gin.H{"rfq_id": f.rfq.ID, "vendor_id": f.vendor.ID, "base_price": 0, "gst_percent": 18}, http.StatusBadRequest},
		{"gst over 100", gin.H{"rfq_id": f.rfq.ID, "vendor_id": f.vendor.ID, "base_price": 100, "gst_percent": 101}, http.StatusBadRequest},
		{"unknown rfq", gin.H{"rfq_id": "nope", "vendor_id": f.vendor.ID, "base_price": 100, "gst_percent": 18}, http.StatusNotFound},
		{"unknown vendor", gin.H{"rfq_id": f.rfq.ID, "vendor_id": "nope", "base_price": 100, "gst_percent": 18}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/quotes", s.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var body map[string]string
			decode(t, w, &body)
			assert.NotEmpty(t, body["error"])
			assert.NotEmpty(t, body["details"])
		})
	}
}

func TestTenantIsolation(t *testing.T) {
	s := newTestServer(t)
	f := s.seedCatalog(t)
	resp := s.submit(t, f, "50000")

	other := tokenFor(t, "company-b")
	w := s.do(http.MethodGet, "/api/quotes/"+resp.Quote.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/anomalies", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestRFQQuoteComparison(t *testing.T) {
	s := newTestServer(t)
	f := s.seedCatalog(t)
	expensive := s.submit(t, f, "60000")
	cheap := s.submit(t, f, "51000")

	w := s.do(http.MethodGet, "/api/rfqs/"+f.rfq.ID+"/quotes", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Quotes []models.Quote `json:"quotes"`
		Count  int           `json:"count"`
	}
	decode(t, w, &body)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, cheap.Quote.ID, body.Quotes[0].ID)
	assert.Equal(t, expensive.Quote.ID, body.Quotes[1].ID)

	w = s.do(http.MethodGet, "/api/rfqs/missing/quotes", s.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportRFQQuotes(t *testing.T) {
	s := newTestServer(t)
	f := s.seedCatalog(t)
	expensive := s.submit(t, f, "60000")
	cheap := s.submit(t, f, "51000")

	w := s.do(http.MethodGet, "/api/rfqs/"+f.rfq.ID+"/quotes/export", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	header, err := book.GetCellValue("Comparison", "B4")
	require.NoError(t, err)
	assert.Equal(t, "Quote Number", header)
	first, err := book.GetCellValue("Comparison", "B5")
	require.NoError(t, err)
	assert.Equal(t, cheap.Quote.QuoteNumber, first)
	vendor, err := book.GetCellValue("Comparison", "C6")
	require.NoError(t, err)
	assert.Equal(t, "ABC Suppliers", vendor)
	second, err := book.GetCellValue("Comparison", "B6")
	require.NoError(t, err)
	assert.Equal(t, expensive.Quote.QuoteNumber, second)

	w = s.do(http.MethodGet, "/api/rfqs/"+f.rfq.ID+"/quotes/export?format=csv", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	records, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, quoteExportHeaders, records[0])
	assert.Equal(t, cheap.Quote.QuoteNumber, records[1][1])
	assert.Equal(t, "60180.00", records[1][7])

	w = s.do(http.MethodGet, "/api/rfqs/"+f.rfq.ID+"/quotes/export?format=pdf", s.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportKeepsTombstonedVendorName(t *testing.T) {
	s := newTestServer(t)
	f := s.seedCatalog(t)
	s.submit(t, f, "51000")

	w := s.do(http.MethodDelete, "/api/vendors/"+f.vendor.ID, s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/rfqs/"+f.rfq.ID+"/quotes/export?format=csv", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	records, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, f.vendor.Name, records[1][2])
}

func TestAnomalyEndpoints(t *testing.T) {
	s := newTestServer(t)
	f := s.seedCatalog(t)
	s.submit(t, f, "52000")
	high := s.submit(t, f, "62400")
	s.submit(t, f, "80000")

	w := s.do(http.MethodGet, "/api/anomalies?severity=high,extremely_high", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var anomalies []models.Anomaly
	decode(t, w, &anomalies)
	require.Len(t, anomalies, 2)

	w = s.do(http.MethodGet, "/api/anomalies?quote_id="+high.Quote.ID, s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &anomalies)
	require.Len(t, anomalies, 1)
	assert.Equal(t, models.SeverityHigh, anomalies[0].Severity)

	w = s.do(http.MethodPost, "/api/anomalies/"+anomalies[0].ID+"/acknowledge", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var acked models.Anomaly
	decode(t, w, &acked)
	assert.True(t, acked.Acknowledged)
	require.NotNil(t, acked.AcknowledgedAt)

	w = s.do(http.MethodGet, "/api/anomalies?acknowledged=false", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &anomalies)
	assert.Len(t, anomalies, 2)

	for _, bad := range []string{"acknowledged=maybe", "limit=ten", "limit=-1", "severity=LOW"} {
		w = s.do(http.MethodGet, "/api/anomalies?"+bad, s.token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}

	w = s.do(http.MethodPost, "/api/anomalies/missing/acknowledge", s.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecommendationEndpoints(t *testing.T) {
	s := newTestServer(t)
	f := s.seedCatalog(t)

	w := s.do(http.MethodPost, "/api/vendors", s.token, gin.H{"name": "Unscored Traders", "category_ids": []string{f.category.ID}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/recommendations", s.token, gin.H{"item_ids": []string{f.item.ID}, "urgency": "high"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var recs []models.Recommendation
	decode(t, w, &recs)
	require.Len(t, recs, 2)
	assert.Equal(t, f.vendor.ID, recs[0].VendorID)
	assert.Equal(t, 1, recs[0].Rank)
	assert.Equal(t, 2, recs[1].Rank)
	assert.Equal(t, recs[0].RequestID, recs[1].RequestID)

	w = s.do(http.MethodGet, "/api/recommendations/requests/"+recs[0].RequestID, s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Recommendation
	decode(t, w, &listed)
	require.Len(t, listed, 2)
	assert.Equal(t, recs[0].ID, listed[0].ID)

	w = s.do(http.MethodPost, "/api/recommendations/"+recs[1].ID+"/select", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var selected models.Recommendation
	decode(t, w, &selected)
	assert.True(t, selected.WasSelected)

	w = s.do(http.MethodPost, "/api/recommendations", s.token, gin.H{"item_ids": []string{f.item.ID}, "urgency": "asap"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/recommendations", s.token, gin.H{"item_ids": []string{}, "urgency": "low"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/recommendations", s.token, gin.H{"item_ids": []string{"missing"}, "urgency": "low"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodGet, "/api/recommendations/requests/missing", s.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)
	f := s.seedCatalog(t)

	w := s.do(http.MethodGet, "/api/categories", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categories []models.Category
	decode(t, w, &categories)
	assert.Len(t, categories, 1)

	w = s.do(http.MethodGet, "/api/vendors/"+f.vendor.ID, s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var vendor models.Vendor
	decode(t, w, &vendor)
	assert.Equal(t, []string{f.category.ID}, vendor.CategoryIDs)

	w = s.do(http.MethodPost, "/api/vendors", s.token, gin.H{"name": "Bad Score", "vendor_score": 101})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/items", s.token, gin.H{"name": "Orphan", "category_id": "missing"})
	assert.NotEqual(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodDelete, "/api/vendors/"+f.vendor.ID, s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/vendors", s.token, nil)
	assert.JSONEq(t, "[]", w.Body.String())
	w = s.do(http.MethodPost, "/api/quotes", s.token, gin.H{
		"rfq_id": f.rfq.ID, "vendor_id": f.vendor.ID, "base_price": 100, "gst_percent": 18,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/items/"+f.item.ID, s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/items/"+f.item.ID, s.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/items/missing", s.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPost, "/api/rfqs", s.token, gin.H{"item_id": f.item.ID, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/rfqs/"+f.rfq.ID, s.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpsEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		Paths map[string]map[string]interface{} `json:"paths"`
	}
	decode(t, w, &doc)
	assert.Contains(t, doc.Paths, "/api/quotes")
	assert.Contains(t, doc.Paths["/api/quotes/{id}/approve"], "post")

	down := NewRouter(RouterDeps{
		Engine:  services.NewQuoteEngine(storage.NewMemoryStore(), services.EngineOptions{}),
		Catalog: services.NewCatalogService(storage.NewMemoryStore()),
		Health:  func(ctx context.Context) error { return errors.New("connection refused") },
	})
	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&services.ValidationError{Field: "base_price", Message: "must be greater than 0"}, http.StatusBadRequest},
		{&services.NotFoundError{Entity: "quote", ID: "q1"}, http.StatusNotFound},
		{&services.ConflictError{Op: "submit_quote", Attempts: 5}, http.StatusConflict},
		{&services.StateError{Entity: "quote", ID: "q1", From: "APPROVED", To: "APPROVED"}, http.StatusConflict},
		{fmt.Errorf("create quote: %w", &services.ConflictError{Op: "next_sequence", Attempts: 3}), http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}
