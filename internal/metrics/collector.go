// Package metrics exposes the gateway's Prometheus instruments: per-route
// request counts, instance cache hit/miss counts, Orthanc call latencies and
// the number of series/instances skipped during study aggregation.
//
// All Collector methods are safe on a nil receiver so components can be built
// without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace is used when NewCollector receives an empty namespace.
const DefaultNamespace = "orthanc_gateway"

// Collector owns a dedicated registry so tests can build isolated instances.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal  *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	originDuration *prometheus.HistogramVec
	skippedTotal   *prometheus.CounterVec
}

// NewCollector creates and registers all gateway metrics. A nil registry gets
// a fresh prometheus.Registry.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of gateway requests by route and response status",
			},
			[]string{"route", "status"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Instance file cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		originDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "origin_request_duration_seconds",
				Help:      "Latency of Orthanc calls by call class and outcome",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"call", "outcome"},
		),
		skippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregation_skipped_total",
				Help:      "Series or instances skipped during study aggregation because Orthanc failed",
			},
			[]string{"level"},
		),
	}

	registry.MustRegister(c.requestsTotal, c.cacheLookups, c.originDuration, c.skippedTotal)
	return c
}

// ObserveRequest counts one finished gateway request.
func (c *Collector) ObserveRequest(route string, status int) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// RecordCacheLookup counts an instance cache lookup.
func (c *Collector) RecordCacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveOrigin records the latency of one Orthanc call.
func (c *Collector) ObserveOrigin(call, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.originDuration.WithLabelValues(call, outcome).Observe(elapsed.Seconds())
}

// RecordSkipped adds n skipped resources at the given level ("series" or "instance").
func (c *Collector) RecordSkipped(level string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.skippedTotal.WithLabelValues(level).Add(float64(n))
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns an HTTP handler serving the registry in exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
