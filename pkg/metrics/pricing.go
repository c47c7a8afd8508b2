package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records reconciliation outcomes and commerce backend latency.
type PricingMetrics struct {
	reconciles      *prometheus.CounterVec
	staleResponses  *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	backendFailures *prometheus.CounterVec
	catalogCache    *prometheus.CounterVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	reconciles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_reconcile_total",
		Help: "Cart price reconciliations by scope and pricing source.",
	}, []string{"scope", "source"})
	stale := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_reconcile_stale_total",
		Help: "Backend pricing responses discarded because a newer request superseded them.",
	}, []string{"scope"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_commerce_request_duration_seconds",
		Help:    "Duration of commerce backend calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_commerce_request_failures_total",
		Help: "Failed commerce backend calls after retries.",
	}, []string{"operation"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_cache_total",
		Help: "Subcategory catalog cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(reconciles, stale, duration, failures, cache)
	return &PricingMetrics{
		reconciles:      reconciles,
		staleResponses:  stale,
		backendDuration: duration,
		backendFailures: failures,
		catalogCache:    cache,
	}
}

// IncReconcile counts a reconciliation resolved from the given source.
func (m *PricingMetrics) IncReconcile(scope, source string) {
	if m == nil || m.reconciles == nil {
		return
	}
	m.reconciles.WithLabelValues(normalizeLabel(scope), normalizeLabel(source)).Inc()
}

// IncStale counts a superseded backend response.
func (m *PricingMetrics) IncStale(scope string) {
	if m == nil || m.staleResponses == nil {
		return
	}
	m.staleResponses.WithLabelValues(normalizeLabel(scope)).Inc()
}

// ObserveBackend records the duration of a commerce call and whether it failed.
func (m *PricingMetrics) ObserveBackend(operation string, duration time.Duration, err error) {
	if m == nil || m.backendDuration == nil {
		return
	}
	op := normalizeLabel(operation)
	m.backendDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		m.backendFailures.WithLabelValues(op).Inc()
	}
}

// IncCatalogCache counts a catalog cache hit or miss.
func (m *PricingMetrics) IncCatalogCache(hit bool) {
	if m == nil || m.catalogCache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.catalogCache.WithLabelValues(result).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
