package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/nectar-erp/nectar-erp/internal/jobs"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsExposesJobCounters(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())

	require.NoError(t, jobs.Track("stale_order_scan").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, jobs.Track("low_stock_scan").End(boom), boom)

	body := scrape(t, metrics)
	assert.Contains(t, body, `nectar_jobs_total{job="stale_order_scan",status="success"} 1`)
	assert.Contains(t, body, `nectar_jobs_failures_total{job="low_stock_scan"} 1`)
}

func TestMetricsMiddlewareLabelsByRoutePattern(t *testing.T) {
	metrics := NewMetrics()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders/42", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `http_requests_total{code="418",route="/orders/{id}"} 1`)
	assert.Contains(t, body, `http_request_duration_seconds_bucket{route="/orders/{id}"`)
}

func TestNilMetricsHandlerRespondsUnavailable(t *testing.T) {
	var metrics *Metrics

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
