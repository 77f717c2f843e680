package metrics

import "github.com/prometheus/client_golang/prometheus"

// Assistant Prometheus metrics.
var (
	AssistantRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haseef",
			Name:      "assistant_requests_total",
			Help:      "Total number of assistant chat requests",
		},
		[]string{"provider", "model", "status"},
	)

	AssistantRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "haseef",
			Name:      "assistant_request_duration_seconds",
			Help:      "Assistant chat request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"provider", "model"},
	)

	AssistantTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haseef",
			Name:      "assistant_tokens_total",
			Help:      "Total assistant tokens consumed",
		},
		[]string{"provider", "model", "type"}, // prompt / completion / total
	)

	AssistantErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haseef",
			Name:      "assistant_errors_total",
			Help:      "Total assistant errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	AssistantCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haseef",
			Name:      "assistant_cache_total",
			Help:      "Assistant response cache lookups",
		},
		[]string{"result"}, // hit / miss
	)

	AssistantBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "haseef",
			Name:      "assistant_budget_tokens_remaining",
			Help:      "Assistant tokens left in the current budget window (-1 = unlimited)",
		},
		[]string{"period"}, // daily / monthly
	)
)

var assistantMetricsRegistered bool

// RegisterAssistantMetrics registers Prometheus assistant metrics. Must be called once from main.
func RegisterAssistantMetrics() {
	if assistantMetricsRegistered {
		return
	}
	prometheus.MustRegister(AssistantRequestsTotal)
	prometheus.MustRegister(AssistantRequestDuration)
	prometheus.MustRegister(AssistantTokensTotal)
	prometheus.MustRegister(AssistantErrorsTotal)
	prometheus.MustRegister(AssistantCacheTotal)
	prometheus.MustRegister(AssistantBudgetTokensRemaining)
	assistantMetricsRegistered = true
}
