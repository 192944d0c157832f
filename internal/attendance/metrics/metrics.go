// Package metrics holds the Prometheus instrumentation for the scan engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all scan engine metrics. A nil *Metrics is valid and records
// nothing, so tests can skip instrumentation.
type Metrics struct {
	ScansResolved   *prometheus.CounterVec
	ScansCommitted  *prometheus.CounterVec
	WriteConflicts  prometheus.Counter
	ResolveDuration prometheus.Histogram
	CommitDuration  prometheus.Histogram
}

// New creates and registers all scan engine metrics.
func New() *Metrics {
	return &Metrics{
		ScansResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scangate_scans_resolved_total",
			Help: "Scans classified, labelled by resolution outcome",
		}, []string{"outcome"}),
		ScansCommitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scangate_scans_committed_total",
			Help: "Attendance writes committed, labelled by entry kind",
		}, []string{"kind"}),
		WriteConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scangate_write_conflicts_total",
			Help: "Writes that lost the cross-device race and fell back",
		}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scangate_resolve_duration_seconds",
			Help:    "Latency of scan resolution including directory and record lookups",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		CommitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scangate_commit_duration_seconds",
			Help:    "Latency of attendance record commits",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveResolve records one resolution with its outcome and duration.
func (m *Metrics) ObserveResolve(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScansResolved.WithLabelValues(outcome).Inc()
	m.ResolveDuration.Observe(d.Seconds())
}

// ObserveCommit records one committed write.
func (m *Metrics) ObserveCommit(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScansCommitted.WithLabelValues(kind).Inc()
	m.CommitDuration.Observe(d.Seconds())
}

// IncWriteConflict counts a lost insert race.
func (m *Metrics) IncWriteConflict() {
	if m == nil {
		return
	}
	m.WriteConflicts.Inc()
}
