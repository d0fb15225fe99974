package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRefresh("synthetic", true)
	m.ObserveRefresh("synthetic", true)
	m.ObserveRefresh("yahoo", false)
	m.ObserveRequest("chart", 200)
	m.SetCachedBars("HSI", 500)
	m.ObserveCompute(3 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SeriesRefreshTotal.WithLabelValues("synthetic", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SeriesRefreshTotal.WithLabelValues("yahoo", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("chart", "200")))
	assert.Equal(t, 500.0, testutil.ToFloat64(m.CachedBars.WithLabelValues("HSI")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.IndicatorComputeDur))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(nil)
	m.SetCachedBars("SPX500", 42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `chartd_cached_bars{symbol="SPX500"} 42`))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRefresh("x", true)
		m.ObserveRequest("x", 500)
		m.SetCachedBars("x", 1)
		m.ObserveCompute(time.Second)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
