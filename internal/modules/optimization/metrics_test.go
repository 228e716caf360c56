package optimization

import (
	"testing"
	"time"

	"github.com/aristath/frontier/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeSolve(LabelMinVariance, domain.StatusConverged, time.Millisecond)
		m.frontierFailure()
		m.session(ModeMaxSharpe, "completed")
	})
}

func TestMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeSolve(LabelFrontier, domain.StatusInfeasible, 2*time.Millisecond)
	m.frontierFailure()
	m.frontierFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.solves.WithLabelValues(LabelFrontier, "infeasible")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.frontierFailures))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "frontier_optimizer_solves_total")
	assert.Contains(t, names, "frontier_optimizer_solve_duration_seconds")
	assert.Contains(t, names, "frontier_optimizer_frontier_point_failures_total")

	assert.Panics(t, func() { NewMetrics(reg) }, "duplicate registration")
}
