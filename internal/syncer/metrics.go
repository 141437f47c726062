package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by a Syncer.
type Metrics struct {
	Operations        *prometheus.CounterVec   // mediaoffload_object_operations_total{operation,status}
	OperationDuration *prometheus.HistogramVec // mediaoffload_object_operation_duration_seconds{operation}
	BytesUploaded     prometheus.Counter       // mediaoffload_bytes_uploaded_total
	LocalRemovals     prometheus.Counter       // mediaoffload_local_files_removed_total
	ReclaimedDirs     prometheus.Counter       // mediaoffload_directories_reclaimed_total
}

// NewMetrics registers the collectors with registry, or with the default
// registerer when registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	f := promauto.With(registry)

	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mediaoffload_object_operations_total",
			Help: "Object store operations by operation and status",
		}, []string{"operation", "status"}),

		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mediaoffload_object_operation_duration_seconds",
			Help:    "Object store call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		BytesUploaded: f.NewCounter(prometheus.CounterOpts{
			Name: "mediaoffload_bytes_uploaded_total",
			Help: "Bytes uploaded to the object store",
		}),

		LocalRemovals: f.NewCounter(prometheus.CounterOpts{
			Name: "mediaoffload_local_files_removed_total",
			Help: "Local media files removed after offload or delete",
		}),

		ReclaimedDirs: f.NewCounter(prometheus.CounterOpts{
			Name: "mediaoffload_directories_reclaimed_total",
			Help: "Empty media directories removed",
		}),
	}
}

func (m *Metrics) observe(op string, status Status, seconds float64) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, string(status)).Inc()
	if status == StatusOK || status == StatusFailed {
		m.OperationDuration.WithLabelValues(op).Observe(seconds)
	}
}

func (m *Metrics) uploaded(n int64) {
	if m != nil {
		m.BytesUploaded.Add(float64(n))
	}
}

func (m *Metrics) removed(local bool, dirs int) {
	if m == nil {
		return
	}
	if local {
		m.LocalRemovals.Inc()
	}
	m.ReclaimedDirs.Add(float64(dirs))
}
