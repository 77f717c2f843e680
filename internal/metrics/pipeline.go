package metrics

import "github.com/prometheus/client_golang/prometheus"

// Record pipeline Prometheus metrics.
var (
	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "haseef",
			Name:      "pipeline_duration_seconds",
			Help:      "Filter pipeline duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"kind", "op"}, // op: query / summary / export / alerts
	)

	PipelineResultRecords = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "haseef",
			Name:      "pipeline_result_records",
			Help:      "Records left after filtering",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		},
		[]string{"kind"},
	)

	SuggestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haseef",
			Name:      "suggestions_total",
			Help:      "Autocomplete requests by outcome",
		},
		[]string{"kind", "result"}, // "hit" / "empty"
	)

	CorrectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haseef",
			Name:      "corrections_total",
			Help:      "Did-you-mean lookups by outcome",
		},
		[]string{"kind", "result"}, // "suggested" / "none"
	)

	BatchRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "haseef",
			Name:      "batch_records",
			Help:      "Records in the current batch",
		},
		[]string{"kind"},
	)

	BatchLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haseef",
			Name:      "batch_loads_total",
			Help:      "Snapshot loads by source",
		},
		[]string{"kind", "source"}, // "store" / "seed" / "upload"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(PipelineResultRecords)
	prometheus.MustRegister(SuggestionsTotal)
	prometheus.MustRegister(CorrectionsTotal)
	prometheus.MustRegister(BatchRecords)
	prometheus.MustRegister(BatchLoadsTotal)
	pipelineMetricsRegistered = true
}
