package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kohakuhub/kohakuhub/pkg/metrics"
)

// httpMetrics collects per-route request counters and latencies.
type httpMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	responseBytes    *prometheus.CounterVec
}

// NewHTTPMiddleware returns a chi middleware recording request metrics
// labeled by route pattern, so path parameters do not explode metric
// cardinality.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewHTTPMiddleware() func(http.Handler) http.Handler {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	m := &httpMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kohakuhub_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "kohakuhub_http_request_duration_seconds",
				Help: "Duration of HTTP requests by method and route",
				Buckets: []float64{
					0.005, // 5ms - cached reads
					0.025,
					0.1,
					0.25,
					1, // 1s
					5,
					30, // 30s - commit processing
					120,
					600, // 10m - large pack streams
				},
			},
			[]string{"method", "route"},
		),
		requestsInFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "kohakuhub_http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
		responseBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kohakuhub_http_response_bytes_total",
				Help: "Total bytes written in HTTP responses by route",
			},
			[]string{"route"},
		),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.requestsInFlight.Inc()
			defer m.requestsInFlight.Dec()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			code := strconv.Itoa(ww.Status())
			m.requestsTotal.WithLabelValues(r.Method, route, code).Inc()
			m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			if ww.BytesWritten() > 0 {
				m.responseBytes.WithLabelValues(route).Add(float64(ww.BytesWritten()))
			}
		})
	}
}
