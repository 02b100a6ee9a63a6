package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	sparkAnalytics = "spark_analytics"

	// Ingestion metrics
	eventsIngestedTotal = "events_ingested_total"

	// Processing metrics
	jobsProcessedTotal    = "jobs_processed_total"
	jobProcessingDuration = "job_processing_duration_seconds"

	// Cache metrics
	cacheRequestsTotal = "cache_requests_total"

	// Labels
	ingestResultLabel    = "result"
	eventKindLabel       = "event"
	processingStateLabel = "state"
	cacheNameLabel       = "cache"
	cacheOutcomeLabel    = "outcome"
)

var eventsIngestedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: sparkAnalytics,
		Name:      eventsIngestedTotal,
		Help:      "number of ingested events partitioned by event kind and ingest result",
	},
	[]string{eventKindLabel, ingestResultLabel},
)

var jobsProcessedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: sparkAnalytics,
		Name:      jobsProcessedTotal,
		Help:      "number of jobs run through analytics processing partitioned by outcome",
	},
	[]string{processingStateLabel},
)

var jobProcessingDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: sparkAnalytics,
		Name:      jobProcessingDuration,
		Help:      "time spent deriving and persisting analytics for one job",
		Buckets:   prometheus.DefBuckets,
	},
)

var cacheRequestsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: sparkAnalytics,
		Name:      cacheRequestsTotal,
		Help:      "cache lookups partitioned by cache name and hit/miss outcome",
	},
	[]string{cacheNameLabel, cacheOutcomeLabel},
)

func IncreaseEventsIngestedMetric(kind, result string) {
	eventsIngestedTotalMetric.With(prometheus.Labels{
		eventKindLabel:    kind,
		ingestResultLabel: result,
	}).Inc()
}

func IncreaseJobsProcessedMetric(state string) {
	jobsProcessedTotalMetric.With(prometheus.Labels{processingStateLabel: state}).Inc()
}

func ObserveJobProcessingDuration(seconds float64) {
	jobProcessingDurationMetric.Observe(seconds)
}

func IncreaseCacheRequestsMetric(cache, outcome string) {
	cacheRequestsTotalMetric.With(prometheus.Labels{
		cacheNameLabel:    cache,
		cacheOutcomeLabel: outcome,
	}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(eventsIngestedTotalMetric)
	prometheus.MustRegister(jobsProcessedTotalMetric)
	prometheus.MustRegister(jobProcessingDurationMetric)
	prometheus.MustRegister(cacheRequestsTotalMetric)
}

// PrometheusMetricsHandler exposes the default registry over HTTP.
type PrometheusMetricsHandler struct{}

func NewPrometheusMetricsHandler() *PrometheusMetricsHandler {
	return &PrometheusMetricsHandler{}
}

func (h *PrometheusMetricsHandler) Handler() http.Handler {
	return promhttp.Handler()
}
