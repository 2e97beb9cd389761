// Package metrics provides Prometheus collectors for recognition and ledger activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the attendance engine. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Faces classified per frame, by result ("matched" or "unknown")
	FacesProcessed *prometheus.CounterVec

	// Ledger outcomes ("created" or "already_present")
	AttendanceOutcome *prometheus.CounterVec

	// Registry mutations by operation and result
	RegistryMutation *prometheus.CounterVec

	// Storage errors by operation
	StorageErrors *prometheus.CounterVec

	// Registered identities in the current snapshot
	Identities prometheus.Gauge

	// Duration of a full ProcessFrameDetections call
	FrameLatency prometheus.Histogram
}

// New creates a Metrics instance registered against reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FacesProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_faces_processed_total",
			Help: "Faces classified by the matcher",
		}, []string{"result"}),

		AttendanceOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_ledger_outcomes_total",
			Help: "Ledger record outcomes",
		}, []string{"outcome"}),

		RegistryMutation: f.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_registry_mutations_total",
			Help: "Registry add and remove operations by result",
		}, []string{"op", "result"}),

		StorageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_storage_errors_total",
			Help: "Storage failures by operation",
		}, []string{"op"}),

		Identities: f.NewGauge(prometheus.GaugeOpts{
			Name: "attendance_identities",
			Help: "Identities in the registry snapshot",
		}),

		FrameLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendance_frame_duration_seconds",
			Help:    "Duration of processing one frame of detections",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementFace records one classified face.
func (m *Metrics) IncrementFace(matched bool) {
	if m == nil {
		return
	}
	result := "unknown"
	if matched {
		result = "matched"
	}
	m.FacesProcessed.WithLabelValues(result).Inc()
}

// IncrementOutcome records a ledger outcome.
func (m *Metrics) IncrementOutcome(created bool) {
	if m == nil {
		return
	}
	outcome := "already_present"
	if created {
		outcome = "created"
	}
	m.AttendanceOutcome.WithLabelValues(outcome).Inc()
}

// IncrementMutation records a registry mutation.
func (m *Metrics) IncrementMutation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RegistryMutation.WithLabelValues(op, result).Inc()
}

// IncrementStorageError records a failed storage call.
func (m *Metrics) IncrementStorageError(op string) {
	if m != nil {
		m.StorageErrors.WithLabelValues(op).Inc()
	}
}

// SetIdentities updates the identity gauge.
func (m *Metrics) SetIdentities(n int) {
	if m != nil {
		m.Identities.Set(float64(n))
	}
}

// ObserveFrameLatency records the duration of one frame.
func (m *Metrics) ObserveFrameLatency(d time.Duration) {
	if m != nil {
		m.FrameLatency.Observe(d.Seconds())
	}
}
