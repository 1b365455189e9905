package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	uploadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tablechat_uploads_total",
			Help: "Total number of CSV files accepted into a session.",
		},
	)
	uploadFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tablechat_upload_failures_total",
			Help: "Total number of CSV files rejected during upload.",
		},
	)
	datasetsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tablechat_datasets_loaded",
			Help: "Current count of datasets held across all sessions.",
		},
	)
	intentsResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablechat_intents_resolved_total",
			Help: "Total number of resolved intents by kind.",
		},
		[]string{"kind"},
	)
	intentDowngradesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tablechat_intent_downgrades_total",
			Help: "Total number of model responses downgraded to the fallback answer.",
		},
	)
	capabilityLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tablechat_capability_latency_seconds",
			Help:    "Language model completion latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
	queryFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tablechat_query_failures_total",
			Help: "Total number of filter expressions rejected at execution.",
		},
	)
	chartFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tablechat_chart_failures_total",
			Help: "Total number of chart requests rejected at resolution.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		uploadsTotal,
		uploadFailuresTotal,
		datasetsLoaded,
		intentsResolvedTotal,
		intentDowngradesTotal,
		capabilityLatencySeconds,
		queryFailuresTotal,
		chartFailuresTotal,
	)
}

func ObserveUpload(accepted, failed int) {
	if accepted > 0 {
		uploadsTotal.Add(float64(accepted))
	}
	if failed > 0 {
		uploadFailuresTotal.Add(float64(failed))
	}
}

func SetDatasetsLoaded(count int) {
	if count < 0 {
		count = 0
	}
	datasetsLoaded.Set(float64(count))
}

func ObserveIntent(kind string, downgraded bool, elapsed time.Duration) {
	intentsResolvedTotal.WithLabelValues(kind).Inc()
	if downgraded {
		intentDowngradesTotal.Inc()
	}
	capabilityLatencySeconds.Observe(elapsed.Seconds())
}

func IncrementQueryFailure() {
	queryFailuresTotal.Inc()
}

func IncrementChartFailure() {
	chartFailuresTotal.Inc()
}
