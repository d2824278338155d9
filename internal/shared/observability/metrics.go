package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	InspectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pycodeadvisor_inspection_seconds",
		Help:    "Time spent parsing and inspecting a Python file.",
		Buckets: prometheus.DefBuckets,
	})

	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pycodeadvisor_files_scanned_total",
		Help: "Total number of Python files inspected.",
	})

	FaultsFoundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pycodeadvisor_faults_found_total",
		Help: "Total number of faults detected, by kind.",
	}, []string{"kind"})

	InferenceCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pycodeadvisor_inference_calls_total",
		Help: "Total number of backend inference calls, by outcome.",
	}, []string{"outcome"})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pycodeadvisor_inference_seconds",
		Help:    "Latency of one backend inference call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pycodeadvisor_cache_lookups_total",
		Help: "Total number of recommendation cache lookups, by result.",
	}, []string{"result"})

	BudgetDeniedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pycodeadvisor_budget_denied_total",
		Help: "Total number of inference calls skipped because the rate budget was exhausted.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pycodeadvisor_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pycodeadvisor_pipeline_seconds",
		Help:    "End-to-end duration of one analysis run.",
		Buckets: prometheus.DefBuckets,
	})
)
