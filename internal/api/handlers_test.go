package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finder/internal/cache"
	"finder/internal/catalog"
	"finder/internal/config"
	"finder/internal/domain"
	"finder/internal/fetch"
	"finder/internal/monitoring"
	"finder/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testMetrics = monitoring.NewMetrics()

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{
		ServerPort:    "0",
		RemoteEnabled: false,
		CacheTTL:      60,
		QueryBudgetMS: 1000,
		VerifyWorkers: 1,
		VerifyCap:     4,
	}
	items := []domain.Product{
		{Name: "Lavender Soap", Price: 5.99, Category: "soap", Description: "Calming lavender bar.", Rating: 4.2},
		{Name: "Citrus Candle", Price: 12.50, Category: "candle", Rating: 4.8},
	}
	store := cache.NewMemory()
	fetcher := fetch.New(time.Second, 100, 100, logger)
	p := pipeline.New(cfg, fetcher, store, catalog.NewMatcher(items, logger), testMetrics, logger)
	return NewServer(cfg, p, nil, store, testMetrics, logger)
}

func doRequest(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestSearchHandler(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, "/api/search?q=lavender+soap")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res domain.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "local", res.Source)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Lavender Soap", res.Products[0].Name)
}

func TestSearchHandlerFilters(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, "/api/search?q=soap+candle&category=candle&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Citrus Candle", res.Products[0].Name)
}

func TestSearchHandlerBadRequest(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		target string
	}{
		{"missing term", "/api/search"},
		{"bad max_price", "/api/search?q=soap&max_price=cheap"},
		{"negative max_price", "/api/search?q=soap&max_price=-2"},
		{"bad limit", "/api/search?q=soap&limit=many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHistoryHandlerDisabled(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, "/api/history")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCheckHandler(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status["cache"])
	assert.NotContains(t, status, "postgres")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
