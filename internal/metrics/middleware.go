package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/laya1n/Haseef-sub000/internal/domain/record"
)

// HTTP metrics. The kind label is set on /records/{kind} routes only.
var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "haseef",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "kind", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haseef",
			Name:      "http_requests_total",
			Help:      "HTTP requests served",
		},
		[]string{"method", "path", "kind", "status"},
	)

	httpRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "haseef",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		},
	)

	httpResponseBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "haseef",
			Name:      "http_response_bytes_total",
			Help:      "Bytes written in HTTP responses (exports dominate)",
		},
		[]string{"method", "path", "kind"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal, httpRequestsInFlight, httpResponseBytes)
}

// Middleware records request duration, count and response size per route pattern.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var pattern, kind string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				pattern = rctx.RoutePattern()
				kind = kindLabel(rctx.URLParam("kind"))
			}
			path := normalizePath(pattern)

			httpRequestDuration.WithLabelValues(r.Method, path, kind, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, path, kind, strconv.Itoa(status)).Inc()
			httpResponseBytes.WithLabelValues(r.Method, path, kind).Add(float64(ww.BytesWritten()))
		})
	}
}

// normalizePath falls back to "unknown" for requests no route matched.
func normalizePath(pattern string) string {
	if pattern == "" {
		return "unknown"
	}
	return pattern
}

// kindLabel keeps label cardinality bounded: anything but a known kind is "other".
func kindLabel(v string) string {
	switch {
	case v == "":
		return ""
	case record.Kind(v).IsValid():
		return v
	default:
		return "other"
	}
}
