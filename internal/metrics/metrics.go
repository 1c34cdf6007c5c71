// Package metrics owns the Prometheus registry exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes recorded by BillFetches.
const (
	OutcomeLoaded = "loaded"
	OutcomeError  = "error"
	OutcomeStale  = "stale"
)

// Registry groups every collector the server and worker record into.
type Registry struct {
	reg *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	RateLimited  prometheus.Counter
	Suspicious   prometheus.Counter
	BillFetches  *prometheus.CounterVec
	BillsCreated prometheus.Counter
	SyncOutcomes *prometheus.CounterVec
	CacheEntries *prometheus.GaugeVec
}

// New builds a registry with the process and Go runtime collectors attached.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billed_http_requests_total",
			Help: "HTTP requests served, by method, route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billed_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billed_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		Suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billed_suspicious_requests_total",
			Help: "Requests flagged by the security detector.",
		}),
		BillFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billed_bills_fetch_total",
			Help: "Bills list fetches, by outcome.",
		}, []string{"outcome"}),
		BillsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billed_bills_created_total",
			Help: "Bills created through the new bill form.",
		}),
		SyncOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billed_sync_total",
			Help: "Bills pushed to the back office, by result.",
		}, []string{"result"}),
		CacheEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "billed_cache_entries",
			Help: "Entries held by each in-process cache.",
		}, []string{"cache"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.HTTPRequests,
		r.HTTPDuration,
		r.RateLimited,
		r.Suspicious,
		r.BillFetches,
		r.BillsCreated,
		r.SyncOutcomes,
		r.CacheEntries,
	)
	return r
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveRequest records one served request.
func (r *Registry) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	r.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetCacheSizes publishes the entry count of each named cache.
func (r *Registry) SetCacheSizes(sizes map[string]int) {
	for name, n := range sizes {
		r.CacheEntries.WithLabelValues(name).Set(float64(n))
	}
}
