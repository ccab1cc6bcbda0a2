package catalogingester

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion pipeline.
var (
	catalogsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogd_catalogs_processed_total",
		Help: "Catalog submissions processed, labeled by outcome status.",
	}, []string{"status"})

	processingFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogd_processing_failures_total",
		Help: "Rejected catalog submissions, labeled by error kind.",
	}, []string{"kind"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalogd_pipeline_duration_seconds",
		Help:    "Time to parse, store, and publish one catalog submission.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	catalogResources = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalogd_catalog_resources",
		Help:    "Resource count per accepted catalog.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
)
