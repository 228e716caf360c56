package optimization

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/aristath/frontier/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectSimplex(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"already feasible", []float64{0.2, 0.3, 0.5}, []float64{0.2, 0.3, 0.5}},
		{"uniform shift", []float64{1, 1, 1}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}},
		{"clips negatives", []float64{2, 0, -1}, []float64{1, 0, 0}},
		{"partial support", []float64{0.8, 0.6, -0.5}, []float64{0.6, 0.4, 0}},
		{"single", []float64{-3}, []float64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := append([]float64(nil), tt.in...)
			projectSimplex(v)
			assert.InDeltaSlice(t, tt.want, v, 1e-12)
		})
	}
}

// quadratic minimizes Σ(w_i - c_i)², whose simplex-constrained optimum is the
// projection of c.
func quadratic(c []float64) problem {
	return problem{
		value: func(w []float64) (float64, error) {
			var f float64
			for i := range w {
				f += (w[i] - c[i]) * (w[i] - c[i])
			}
			return f, nil
		},
		grad: func(dst, w []float64) {
			for i := range w {
				dst[i] = 2 * (w[i] - c[i])
			}
		},
	}
}

func TestMinimize_Quadratic(t *testing.T) {
	out := minimize(context.Background(), quadratic([]float64{0.9, 0.7, -0.4, 0.1}), []float64{0.25, 0.25, 0.25, 0.25}, DefaultSettings())

	require.Equal(t, domain.StatusConverged, out.status, "%v", out.err)
	assert.InDeltaSlice(t, []float64{0.6, 0.4, 0, 0}, out.x, 1e-7)
}

func TestMinimize_LinearEquality(t *testing.T) {
	p := quadratic([]float64{1, 0, 0})
	p.eq = &linearEquality{a: []float64{1, 2, 3}, b: 2}

	out := minimize(context.Background(), p, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, DefaultSettings())

	require.Equal(t, domain.StatusConverged, out.status, "%v", out.err)
	assert.InDelta(t, 1.0, sum(out.x), 1e-9)
	assert.InDelta(t, 2.0, out.x[0]+2*out.x[1]+3*out.x[2], 1e-6)
	// On {Σw=1, w1+2w2+3w3=2} the points are (t, 1-2t, t); closest to e1 is t=0.5.
	assert.InDeltaSlice(t, []float64{0.5, 0, 0.5}, out.x, 1e-4)
}

func TestMinimize_InfeasibleTarget(t *testing.T) {
	p := quadratic([]float64{1, 0, 0})
	p.eq = &linearEquality{a: []float64{0.1, 0.2, 0.3}, b: 0.5}

	out := minimize(context.Background(), p, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, DefaultSettings())

	assert.Equal(t, domain.StatusInfeasible, out.status)
	assert.Equal(t, 0, out.iterations)
	require.Error(t, out.err)
	assert.Contains(t, out.err.Error(), "achievable range")
}

func TestMinimize_IterationLimit(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxIterations = 1

	out := minimize(context.Background(), quadratic([]float64{0.9, 0.7, -0.4, 0.1}), []float64{0.25, 0.25, 0.25, 0.25}, settings)

	assert.Equal(t, domain.StatusIterationLimit, out.status)
	assert.Equal(t, 1, out.iterations)
	requireOnSimplex(t, out.x)
}

func TestMinimize_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := minimize(ctx, quadratic([]float64{0.9, 0.1}), []float64{0.5, 0.5}, DefaultSettings())

	assert.Equal(t, domain.StatusCanceled, out.status)
	assert.ErrorIs(t, out.err, context.Canceled)
}

func TestMinimize_Timeout(t *testing.T) {
	settings := DefaultSettings()
	settings.Timeout = time.Nanosecond

	out := minimize(context.Background(), quadratic([]float64{0.9, 0.1}), []float64{0.5, 0.5}, settings)

	assert.Equal(t, domain.StatusTimeout, out.status)
}

func TestMinimize_EvaluationError(t *testing.T) {
	p := problem{
		value: func(w []float64) (float64, error) { return 0, domain.ErrDegenerateInput },
		grad:  func(dst, w []float64) {},
	}

	out := minimize(context.Background(), p, []float64{0.5, 0.5}, DefaultSettings())

	assert.Equal(t, domain.StatusEvaluation, out.status)
	assert.ErrorIs(t, out.err, domain.ErrDegenerateInput)
}

func TestMinimize_StallAwayFromStationaryPoint(t *testing.T) {
	// The gradient claims descent toward w2 but the value rises in every
	// direction, so the line search can only shrink to a zero step.
	p := problem{
		value: func(w []float64) (float64, error) {
			return 1 + 1e3*(math.Abs(w[0]-0.5)+math.Abs(w[1]-0.5)), nil
		},
		grad: func(dst, w []float64) {
			dst[0], dst[1] = 1, -1
		},
	}

	out := minimize(context.Background(), p, []float64{0.5, 0.5}, DefaultSettings())

	assert.Equal(t, domain.StatusStalled, out.status)
	require.Error(t, out.err)
	assert.Contains(t, out.err.Error(), "projected gradient")
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, out.x, 1e-12)
}

func TestStalled_AcceptsNearStationaryPoint(t *testing.T) {
	x := []float64{0.6, 0.4, 0}
	g := []float64{0.2, 0.2 + 1e-9, 0.9}

	out := stalled(x, g, make([]float64, 3), 7, DefaultSettings(), "step vanished")

	assert.Equal(t, domain.StatusConverged, out.status)
	assert.NoError(t, out.err)
	assert.Equal(t, 7, out.iterations)
}
