// Package metrics holds the Prometheus collectors shared by the service and the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the indicator service.
type Metrics struct {
	registry *prometheus.Registry

	ComputeDuration prometheus.Histogram
	BarsTotal       prometheus.Counter
	BarsRejected    prometheus.Counter
	BarsSkipped     prometheus.Counter
	HTTPRequests    *prometheus.CounterVec // labels: route, code
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "indicators_compute_duration_seconds",
			Help:    "Indicator engine compute latency per series",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		BarsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicators_bars_total",
			Help: "Total bars passed to the indicator engine",
		}),
		BarsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicators_bars_rejected_total",
			Help: "Malformed bars that failed a series under the reject policy",
		}),
		BarsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicators_bars_skipped_total",
			Help: "Malformed bars dropped under the skip policy",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicators_http_requests_total",
			Help: "HTTP requests served (by route and status code)",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		m.ComputeDuration,
		m.BarsTotal,
		m.BarsRejected,
		m.BarsSkipped,
		m.HTTPRequests,
	)

	return m
}

// Registry returns the private registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCompute records one engine run over bars.
func (m *Metrics) ObserveCompute(duration time.Duration, bars int) {
	m.ComputeDuration.Observe(duration.Seconds())
	m.BarsTotal.Add(float64(bars))
}

// RecordRejected counts bars that made a series fail validation.
func (m *Metrics) RecordRejected(bars int) {
	m.BarsRejected.Add(float64(bars))
}

// RecordSkipped counts bars dropped by validation.
func (m *Metrics) RecordSkipped(bars int) {
	m.BarsSkipped.Add(float64(bars))
}

// RecordHTTPRequest counts one served request.
func (m *Metrics) RecordHTTPRequest(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
