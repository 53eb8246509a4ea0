package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StorefrontMetrics records counters for the catalog cache and order engine.
type StorefrontMetrics struct {
	registry       *prometheus.Registry
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheErrors    prometheus.Counter
	ordersPlaced   prometheus.Counter
	ordersRejected *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on a fresh registry.
func NewStorefrontMetrics() *StorefrontMetrics {
	registry := prometheus.NewRegistry()
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Catalog listings served from the cache.",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Catalog listings served from the database.",
	})
	cacheErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_errors_total",
		Help: "Cache operations that failed and fell back to the database.",
	})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed successfully.",
	})
	ordersRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Orders rejected before or during the commit transaction.",
	}, []string{"reason"})
	registry.MustRegister(cacheHits, cacheMisses, cacheErrors, ordersPlaced, ordersRejected)
	return &StorefrontMetrics{
		registry:       registry,
		cacheHits:      cacheHits,
		cacheMisses:    cacheMisses,
		cacheErrors:    cacheErrors,
		ordersPlaced:   ordersPlaced,
		ordersRejected: ordersRejected,
	}
}

// Handler serves the registered metrics in the Prometheus text format.
func (m *StorefrontMetrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncCacheHit counts a catalog listing served from the cache.
func (m *StorefrontMetrics) IncCacheHit() {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.Inc()
}

// IncCacheMiss counts a catalog listing served from the database.
func (m *StorefrontMetrics) IncCacheMiss() {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.Inc()
}

// IncCacheError counts a failed cache operation.
func (m *StorefrontMetrics) IncCacheError() {
	if m == nil || m.cacheErrors == nil {
		return
	}
	m.cacheErrors.Inc()
}

// IncOrderPlaced counts a committed order.
func (m *StorefrontMetrics) IncOrderPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// IncOrderRejected counts a rejected order by reason.
func (m *StorefrontMetrics) IncOrderRejected(reason string) {
	if m == nil || m.ordersRejected == nil {
		return
	}
	m.ordersRejected.WithLabelValues(reason).Inc()
}
