package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the timekeeping engine. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Punches by type and outcome (recorded, acknowledged, rejected)
	Punches *prometheus.CounterVec

	// Exceptions created and deleted by type
	ExceptionsCreated *prometheus.CounterVec
	ExceptionsDeleted *prometheus.CounterVec

	// Recompute passes and their latency
	RecomputeDuration prometheus.Histogram

	// Sweep runs by job and outcome, and entities acted on
	SweepRuns     *prometheus.CounterVec
	SweepActions  *prometheus.CounterVec
	SweepDuration *prometheus.HistogramVec
}

// New registers the timekeeping metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Punches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "timekeeping_punches_total",
			Help: "Punches received by type and outcome",
		}, []string{"type", "outcome"}),

		ExceptionsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "timekeeping_exceptions_created_total",
			Help: "Time exceptions created by type",
		}, []string{"type"}),

		ExceptionsDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "timekeeping_exceptions_deleted_total",
			Help: "Ephemeral time exceptions deleted by type",
		}, []string{"type"}),

		RecomputeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "timekeeping_recompute_duration_seconds",
			Help:    "Duration of a recompute pass",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		SweepRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "timekeeping_sweep_runs_total",
			Help: "Maintenance sweep runs by job and outcome",
		}, []string{"job", "outcome"}), // outcome: "ok", "error", "skipped"

		SweepActions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "timekeeping_sweep_actions_total",
			Help: "Entities escalated or notified by maintenance sweeps",
		}, []string{"job"}),

		SweepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timekeeping_sweep_duration_seconds",
			Help:    "Duration of maintenance sweeps",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"job"}),
	}
}

func (m *Metrics) IncPunch(punchType, outcome string) {
	if m != nil {
		m.Punches.WithLabelValues(punchType, outcome).Inc()
	}
}

func (m *Metrics) IncExceptionCreated(exceptionType string) {
	if m != nil {
		m.ExceptionsCreated.WithLabelValues(exceptionType).Inc()
	}
}

func (m *Metrics) IncExceptionDeleted(exceptionType string) {
	if m != nil {
		m.ExceptionsDeleted.WithLabelValues(exceptionType).Inc()
	}
}

func (m *Metrics) ObserveRecompute(d time.Duration) {
	if m != nil {
		m.RecomputeDuration.Observe(d.Seconds())
	}
}

// ObserveSweep records one sweep run.
func (m *Metrics) ObserveSweep(job, outcome string, actions int, d time.Duration) {
	if m != nil {
		m.SweepRuns.WithLabelValues(job, outcome).Inc()
		m.SweepActions.WithLabelValues(job).Add(float64(actions))
		m.SweepDuration.WithLabelValues(job).Observe(d.Seconds())
	}
}
