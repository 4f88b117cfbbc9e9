// Package metrics provides the Prometheus registry reference for obtainable.
// All metrics are defined in their respective packages (obtainable, store)
// to maintain modularity and avoid circular dependencies.
//
// This package documents the metric catalogue and serves it over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by obtainable.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Catalogue lists every metric name registered by obtainable packages.
var Catalogue = []string{
	"obtainable_cache_hits_total",
	"obtainable_cache_misses_total",
	"obtainable_computations_total",
	"obtainable_computation_duration_seconds",
	"obtainable_flushes_total",
	"obtainable_cast_fallbacks_total",
	"obtainable_registry_resolutions_total",
	"obtainable_store_errors_total",
	"obtainable_store_flushed_keys_total",
	"obtainable_warmup_requests_total",
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Obtain Metrics (pkg/obtainable):
//   - obtainable_cache_hits_total{owner} (Counter): Obtain calls served from the store
//   - obtainable_cache_misses_total{owner} (Counter): Obtain calls that computed
//   - obtainable_computations_total{owner, result} (Counter): Computations by result (ok, error)
//   - obtainable_computation_duration_seconds{owner} (Histogram): Computation latency
//   - obtainable_cast_fallbacks_total{cast} (Counter): Casts that returned the raw value
//
// Invalidation Metrics (pkg/obtainable):
//   - obtainable_flushes_total{scope} (Counter): Flushes by scope (variant, key, owner, global)
//
// Registry Metrics (pkg/obtainable):
//   - obtainable_registry_resolutions_total{result} (Counter): Resolutions (memo, found, not_found)
//
// Store Metrics (pkg/store):
//   - obtainable_store_errors_total{operation} (Counter): Store errors (get, put, delete, flush, keys)
//   - obtainable_store_flushed_keys_total (Counter): Entries removed by tag flushes
//
// Warm-up Metrics (pkg/warmup):
//   - obtainable_warmup_requests_total{result} (Counter): Warm-up requests (ok, error)
//
// Example Prometheus Queries:
//
//   # Hit Rate per owner type
//   sum by (owner) (rate(obtainable_cache_hits_total[5m])) /
//   (sum by (owner) (rate(obtainable_cache_hits_total[5m])) +
//    sum by (owner) (rate(obtainable_cache_misses_total[5m])))
//
//   # Computation Error Rate
//   rate(obtainable_computations_total{result="error"}[5m])
//
//   # P95 Computation Latency
//   histogram_quantile(0.95, rate(obtainable_computation_duration_seconds_bucket[5m]))
//
//   # Purges (should be rare)
//   increase(obtainable_flushes_total{scope="global"}[1h])
