package optimization

import (
	"time"

	"github.com/aristath/frontier/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records optimizer activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	solves           *prometheus.CounterVec
	solveDuration    *prometheus.HistogramVec
	frontierFailures prometheus.Counter
	sessions         *prometheus.CounterVec
}

// NewMetrics creates the optimizer collectors and registers them with reg
// when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontier",
			Subsystem: "optimizer",
			Name:      "solves_total",
			Help:      "Constrained solves by portfolio and final status.",
		}, []string{"portfolio", "status"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "frontier",
			Subsystem: "optimizer",
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock time of a single constrained solve.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"portfolio"}),
		frontierFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "frontier",
			Subsystem: "optimizer",
			Name:      "frontier_point_failures_total",
			Help:      "Frontier targets that did not converge.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontier",
			Subsystem: "optimizer",
			Name:      "sessions_total",
			Help:      "Optimization sessions by mode and outcome.",
		}, []string{"mode", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.solves, m.solveDuration, m.frontierFailures, m.sessions)
	}
	return m
}

func (m *Metrics) observeSolve(portfolio string, status domain.SolverStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.solves.WithLabelValues(portfolio, string(status)).Inc()
	m.solveDuration.WithLabelValues(portfolio).Observe(d.Seconds())
}

func (m *Metrics) frontierFailure() {
	if m == nil {
		return
	}
	m.frontierFailures.Inc()
}

func (m *Metrics) session(mode Mode, outcome string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(string(mode), outcome).Inc()
}
