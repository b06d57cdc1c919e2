package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsTotal counts engine calls by outcome
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csvclean_operations_total",
		Help: "Total cleaning and aggregation calls by outcome",
	}, []string{"kind", "method", "outcome", "error_type"})

	// operationDuration tracks engine call latency
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "csvclean_operation_duration_seconds",
		Help:    "Cleaning and aggregation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"kind"})

	// inputBytes tracks request CSV sizes
	inputBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "csvclean_input_bytes",
		Help:    "Size of CSV input in bytes",
		Buckets: prometheus.ExponentialBuckets(256, 4, 10), // 256B to ~64MB
	})

	// limiterRejections counts calls refused because every slot was busy
	limiterRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "csvclean_limiter_rejections_total",
		Help: "Total calls rejected by the concurrency limiter",
	})

	// limiterWait tracks how long calls queue for admission
	limiterWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "csvclean_limiter_wait_seconds",
		Help:    "Time spent waiting for a processing slot in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
	})

	// limiterActive is the number of calls holding a slot
	limiterActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "csvclean_limiter_active",
		Help: "Engine calls currently running",
	})
)
