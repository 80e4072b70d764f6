// Package metrics exposes quote and HTTP counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"lessonquote-service/internal/application"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lessonquote"

type Metrics struct {
	registry *prometheus.Registry

	quoteLookups   *prometheus.CounterVec
	quoteDiscarded prometheus.Counter
	pricingFailed  prometheus.Counter
	ratesRefreshes *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

var _ application.MetricsRecorder = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		quoteLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_lookups_total",
			Help:      "Quote cache lookups by result.",
		}, []string{"result"}),
		quoteDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_stale_discarded_total",
			Help:      "Pricing responses dropped because the selection changed.",
		}),
		pricingFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_failures_total",
			Help:      "Quotes shown as unavailable after a pricing failure.",
		}),
		ratesRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rates_refresh_total",
			Help:      "Rate refresh attempts by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.quoteLookups, m.quoteDiscarded, m.pricingFailed, m.ratesRefreshes,
		m.httpRequests, m.httpDuration,
	)
	return m
}

func (m *Metrics) QuoteLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.quoteLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) QuoteDiscarded() { m.quoteDiscarded.Inc() }
func (m *Metrics) PricingFailed()  { m.pricingFailed.Inc() }

func (m *Metrics) RatesRefreshed(ok bool) {
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	m.ratesRefreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
