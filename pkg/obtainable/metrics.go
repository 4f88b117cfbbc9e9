package obtainable

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by owner prefix
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obtainable_cache_hits_total",
			Help: "Total number of obtain calls served from the store",
		},
		[]string{"owner"},
	)

	// CacheMisses tracks cache misses by owner prefix
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obtainable_cache_misses_total",
			Help: "Total number of obtain calls that had to compute",
		},
		[]string{"owner"},
	)

	// Computations tracks computation runs by owner and result ("ok", "error")
	Computations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obtainable_computations_total",
			Help: "Total number of computations executed",
		},
		[]string{"owner", "result"},
	)

	// ComputationDuration tracks how long computations take
	ComputationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "obtainable_computation_duration_seconds",
			Help:    "Computation duration in seconds by owner",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"owner"},
	)

	// Flushes tracks invalidations by scope ("variant", "key", "owner", "global")
	Flushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obtainable_flushes_total",
			Help: "Total number of flush operations by scope",
		},
		[]string{"scope"},
	)

	// castFallbacks tracks casts that failed and returned the raw value
	castFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obtainable_cast_fallbacks_total",
			Help: "Total number of casts that fell back to the raw value",
		},
		[]string{"cast"},
	)

	// resolutions tracks owner-type resolutions ("memo", "found", "not_found")
	resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obtainable_registry_resolutions_total",
			Help: "Total number of owner-type resolutions by result",
		},
		[]string{"result"},
	)
)
