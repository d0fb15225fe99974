// Package metrics holds the Prometheus collectors of the chart service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the chart service.
type Metrics struct {
	IndicatorComputeDur prometheus.Histogram
	SeriesRefreshTotal  *prometheus.CounterVec // labels: source, result
	HTTPRequestsTotal   *prometheus.CounterVec // labels: route, code
	CachedBars          *prometheus.GaugeVec   // labels: symbol

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// uses a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartd_indicator_compute_duration_seconds",
			Help:    "Indicator engine latency per chart request",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		SeriesRefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartd_series_refresh_total",
			Help: "Series refresh attempts by data source and result",
		}, []string{"source", "result"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartd_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		CachedBars: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chartd_cached_bars",
			Help: "Daily bars held in the series cache",
		}, []string{"symbol"}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.IndicatorComputeDur,
		m.SeriesRefreshTotal,
		m.HTTPRequestsTotal,
		m.CachedBars,
	)
	return m
}

// ObserveCompute records one indicator computation.
func (m *Metrics) ObserveCompute(d time.Duration) {
	if m == nil {
		return
	}
	m.IndicatorComputeDur.Observe(d.Seconds())
}

// ObserveRefresh counts a series refresh.
func (m *Metrics) ObserveRefresh(source string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.SeriesRefreshTotal.WithLabelValues(source, result).Inc()
}

// ObserveRequest counts a served HTTP request.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// SetCachedBars updates the cache size gauge.
func (m *Metrics) SetCachedBars(symbol string, n int) {
	if m == nil {
		return
	}
	m.CachedBars.WithLabelValues(symbol).Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
