package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kohakuhub/kohakuhub/pkg/fallback"
	"github.com/kohakuhub/kohakuhub/pkg/metrics"
)

// fallbackMetrics is the Prometheus implementation of fallback.Metrics.
type fallbackMetrics struct {
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	cacheTotal    *prometheus.CounterVec
}

// NewFallbackMetrics creates a Prometheus-backed collector for upstream
// fallback probes and the source resolution cache.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewFallbackMetrics() fallback.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &fallbackMetrics{
		probesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kohakuhub_fallback_probes_total",
				Help: "Total number of upstream fallback probes by source and status",
			},
			[]string{"source", "status"}, // status: "hit", "miss"
		),
		probeDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "kohakuhub_fallback_probe_duration_seconds",
				Help: "Duration of upstream fallback probes",
				Buckets: []float64{
					0.05, // 50ms - nearby mirrors
					0.1,
					0.25,
					0.5,
					1, // 1s
					2.5,
					5, // 5s - slow upstreams
					10,
				},
			},
			[]string{"source"},
		),
		cacheTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kohakuhub_fallback_cache_total",
				Help: "Total number of source resolution cache lookups by status",
			},
			[]string{"status"}, // "hit", "miss"
		),
	}
}

func (m *fallbackMetrics) ObserveProbe(source string, hit bool, seconds float64) {
	if m == nil {
		return
	}

	status := "miss"
	if hit {
		status = "hit"
	}
	m.probesTotal.WithLabelValues(source, status).Inc()
	m.probeDuration.WithLabelValues(source).Observe(seconds)
}

func (m *fallbackMetrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}

	status := "miss"
	if hit {
		status = "hit"
	}
	m.cacheTotal.WithLabelValues(status).Inc()
}
