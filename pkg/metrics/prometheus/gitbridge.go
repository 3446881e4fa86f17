package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kohakuhub/kohakuhub/pkg/gitbridge"
	"github.com/kohakuhub/kohakuhub/pkg/metrics"
)

// gitbridgeMetrics is the Prometheus implementation of gitbridge.Metrics.
type gitbridgeMetrics struct {
	packBuildDuration prometheus.Histogram
	packBytes         prometheus.Histogram
	packCacheTotal    *prometheus.CounterVec
}

// NewGitBridgeMetrics creates a Prometheus-backed collector for git pack
// synthesis and pack cache behavior.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewGitBridgeMetrics() gitbridge.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &gitbridgeMetrics{
		packBuildDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "kohakuhub_git_pack_build_duration_seconds",
				Help: "Duration of git pack synthesis from backend state",
				Buckets: []float64{
					0.05, // 50ms - tiny repos
					0.1,
					0.5,
					1, // 1s
					5,
					10, // 10s - large trees
					30,
					60,
				},
			},
		),
		packBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "kohakuhub_git_pack_bytes",
				Help: "Distribution of synthesized pack sizes",
				Buckets: []float64{
					4096,      // 4KB - pointer-only repos
					65536,     // 64KB
					1048576,   // 1MB
					10485760,  // 10MB
					52428800,  // 50MB
					104857600, // 100MB
				},
			},
		),
		packCacheTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kohakuhub_git_pack_cache_total",
				Help: "Total number of pack cache lookups by status",
			},
			[]string{"status"}, // "hit", "miss"
		),
	}
}

func (m *gitbridgeMetrics) ObservePackBuild(seconds float64, packBytes int64) {
	if m == nil {
		return
	}

	m.packBuildDuration.Observe(seconds)
	if packBytes > 0 {
		m.packBytes.Observe(float64(packBytes))
	}
}

func (m *gitbridgeMetrics) ObservePackCache(hit bool) {
	if m == nil {
		return
	}

	status := "miss"
	if hit {
		status = "hit"
	}
	m.packCacheTotal.WithLabelValues(status).Inc()
}
