package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kohakuhub/kohakuhub/pkg/lfs"
	"github.com/kohakuhub/kohakuhub/pkg/metrics"
)

// lfsMetrics is the Prometheus implementation of lfs.Metrics.
type lfsMetrics struct {
	batchRequests  *prometheus.CounterVec
	batchObjects   *prometheus.CounterVec
	batchSize      *prometheus.HistogramVec
	verifyTotal    *prometheus.CounterVec
	gcObjectsTotal prometheus.Counter
	gcBytesTotal   prometheus.Counter
}

// NewLFSMetrics creates a Prometheus-backed collector for LFS transfer
// operations.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewLFSMetrics() lfs.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &lfsMetrics{
		batchRequests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kohakuhub_lfs_batch_requests_total",
				Help: "Total number of LFS batch requests by operation",
			},
			[]string{"operation"},
		),
		batchObjects: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kohakuhub_lfs_batch_objects_total",
				Help: "Total number of objects in LFS batch requests by operation and outcome",
			},
			[]string{"operation", "outcome"}, // outcome: "transfer", "dedup"
		),
		batchSize: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "kohakuhub_lfs_batch_objects",
				Help: "Distribution of object counts per LFS batch request",
				Buckets: []float64{
					1,   // single file
					5,   // small commit
					10,  // typical model upload
					50,  // large upload
					100, // batch API limit territory
					500,
				},
			},
			[]string{"operation"},
		),
		verifyTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kohakuhub_lfs_verify_total",
				Help: "Total number of LFS verify calls by status",
			},
			[]string{"status"},
		),
		gcObjectsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "kohakuhub_lfs_gc_objects_total",
				Help: "Total number of LFS objects reclaimed by garbage collection",
			},
		),
		gcBytesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "kohakuhub_lfs_gc_bytes_total",
				Help: "Total bytes reclaimed by LFS garbage collection",
			},
		),
	}
}

func (m *lfsMetrics) ObserveBatch(operation string, objects, dedup int) {
	if m == nil {
		return
	}

	m.batchRequests.WithLabelValues(operation).Inc()
	m.batchSize.WithLabelValues(operation).Observe(float64(objects))
	m.batchObjects.WithLabelValues(operation, "transfer").Add(float64(objects - dedup))
	m.batchObjects.WithLabelValues(operation, "dedup").Add(float64(dedup))
}

func (m *lfsMetrics) ObserveVerify(ok bool) {
	if m == nil {
		return
	}

	status := "ok"
	if !ok {
		status = "failed"
	}
	m.verifyTotal.WithLabelValues(status).Inc()
}

func (m *lfsMetrics) AddGCReclaimed(objects int, bytes int64) {
	if m == nil {
		return
	}

	m.gcObjectsTotal.Add(float64(objects))
	m.gcBytesTotal.Add(float64(bytes))
}
