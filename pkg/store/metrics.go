package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreErrors tracks store operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obtainable_store_errors_total",
			Help: "Total number of store operation errors",
		},
		[]string{"operation"}, // "get", "put", "delete", "flush", "keys"
	)

	// FlushedKeys tracks entries removed through tag flushes
	FlushedKeys = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "obtainable_store_flushed_keys_total",
			Help: "Total number of entries removed by tag flushes",
		},
	)
)
