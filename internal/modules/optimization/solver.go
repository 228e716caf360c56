package optimization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/frontier/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// Settings bound every constrained solve.
type Settings struct {
	MaxIterations      int           `json:"max_iterations"`       // projected-gradient steps per subproblem
	MaxOuterIterations int           `json:"max_outer_iterations"` // multiplier updates for the return constraint
	Tolerance          float64       `json:"tolerance"`            // projected-gradient stationarity, relative to the gradient scale
	Timeout            time.Duration `json:"timeout"`              // wall-clock budget per solve; zero disables it
}

// DefaultSettings returns the budget used when none is configured.
func DefaultSettings() Settings {
	return Settings{
		MaxIterations:      5000,
		MaxOuterIterations: 40,
		Tolerance:          1e-9,
		Timeout:            10 * time.Second,
	}
}

const (
	// constraintTolerance is the accepted |a·w - b| for the return constraint.
	constraintTolerance = 1e-7
	armijoSlope         = 1e-4
	minStepLength       = 1e-10
	maxStepLength       = 1e10
	minBacktrack        = 1e-20
	// stallTolerance is the relative projected-gradient norm a run that can no
	// longer make progress must still meet to count as converged.
	stallTolerance      = 1e-6
	penaltyStart        = 10.0
	penaltyGrowth       = 10.0
	penaltyMax          = 1e12
)

// linearEquality is the constraint a·w = b.
type linearEquality struct {
	a []float64
	b float64
}

func (e *linearEquality) residual(w []float64) float64 {
	return floats.Dot(e.a, w) - e.b
}

// problem is a smooth objective over the probability simplex
// {w : w_i >= 0, Σw_i = 1}, optionally restricted to a linear equality.
// grad is only evaluated at points where value succeeded.
type problem struct {
	value func(w []float64) (float64, error)
	grad  func(dst, w []float64)
	eq    *linearEquality
}

type solveOutcome struct {
	x          []float64
	iterations int
	status     domain.SolverStatus
	err        error
}

// minimize solves p from x0. The simplex is handled exactly by Euclidean
// projection inside a spectral projected-gradient method; the equality, when
// present, by an augmented Lagrangian whose subproblems are solved the same way.
func minimize(ctx context.Context, p problem, x0 []float64, s Settings) solveOutcome {
	var deadline time.Time
	if s.Timeout > 0 {
		deadline = time.Now().Add(s.Timeout)
	}

	x := append([]float64(nil), x0...)
	projectSimplex(x)

	if p.eq == nil {
		return spg(ctx, deadline, p.value, p.grad, x, s)
	}

	eq := p.eq
	lo, hi := floats.Min(eq.a), floats.Max(eq.a)
	if eq.b < lo-constraintTolerance || eq.b > hi+constraintTolerance {
		return solveOutcome{
			x:      x,
			status: domain.StatusInfeasible,
			err:    fmt.Errorf("target outside achievable range [%.4f, %.4f]", lo, hi),
		}
	}

	multiplier, penalty := 0.0, penaltyStart
	prevViolation := math.Inf(1)
	total := 0
	last := solveOutcome{x: x, status: domain.StatusIterationLimit}

	for outer := 0; outer < s.MaxOuterIterations; outer++ {
		lambda, rho := multiplier, penalty
		value := func(w []float64) (float64, error) {
			f, err := p.value(w)
			if err != nil {
				return 0, err
			}
			c := eq.residual(w)
			return f + lambda*c + 0.5*rho*c*c, nil
		}
		grad := func(dst, w []float64) {
			p.grad(dst, w)
			floats.AddScaled(dst, lambda+rho*eq.residual(w), eq.a)
		}

		last = spg(ctx, deadline, value, grad, x, s)
		total += last.iterations
		last.iterations = total
		switch last.status {
		case domain.StatusTimeout, domain.StatusCanceled, domain.StatusEvaluation:
			return last
		}
		x = last.x

		violation := math.Abs(eq.residual(x))
		if violation <= constraintTolerance && last.status == domain.StatusConverged {
			return last
		}

		multiplier += penalty * eq.residual(x)
		if violation > 0.25*prevViolation {
			if penalty >= penaltyMax {
				return solveOutcome{
					x:          x,
					iterations: total,
					status:     domain.StatusInfeasible,
					err:        fmt.Errorf("return constraint still violated by %.3g", violation),
				}
			}
			penalty = math.Min(penalty*penaltyGrowth, penaltyMax)
		}
		prevViolation = violation
	}

	if last.status == domain.StatusConverged {
		last.status = domain.StatusIterationLimit
		last.err = fmt.Errorf("return constraint still violated by %.3g", math.Abs(eq.residual(x)))
	}
	return last
}

// spg is the spectral projected-gradient method with Barzilai-Borwein steps
// and Armijo backtracking along d = P(x - αg) - x.
func spg(
	ctx context.Context,
	deadline time.Time,
	value func([]float64) (float64, error),
	grad func(dst, w []float64),
	x0 []float64,
	s Settings,
) solveOutcome {
	n := len(x0)
	x := append([]float64(nil), x0...)
	g := make([]float64, n)
	gNew := make([]float64, n)
	trial := make([]float64, n)
	d := make([]float64, n)

	fx, err := evaluate(value, x)
	if err != nil {
		return solveOutcome{x: x, status: domain.StatusEvaluation, err: err}
	}
	grad(g, x)

	alpha := 1.0
	for k := 0; k < s.MaxIterations; k++ {
		if err := ctx.Err(); err != nil {
			return solveOutcome{x: x, iterations: k, status: domain.StatusCanceled, err: err}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return solveOutcome{x: x, iterations: k, status: domain.StatusTimeout, err: errors.New("time budget exhausted")}
		}

		scale := math.Max(1, floats.Norm(g, math.Inf(1)))
		if projectedGradientNorm(x, g, trial) <= s.Tolerance*scale {
			return solveOutcome{x: x, iterations: k, status: domain.StatusConverged}
		}

		for i := range trial {
			trial[i] = x[i] - alpha*g[i]
		}
		projectSimplex(trial)
		floats.SubTo(d, trial, x)

		slope := floats.Dot(g, d)
		if slope >= 0 {
			return stalled(x, g, trial, k, s, "no descent direction")
		}

		step := 1.0
		var fTrial float64
		for {
			for i := range trial {
				trial[i] = x[i] + step*d[i]
			}
			fTrial, err = evaluate(value, trial)
			if err != nil {
				return solveOutcome{x: x, iterations: k, status: domain.StatusEvaluation, err: err}
			}
			if fTrial <= fx+armijoSlope*step*slope {
				break
			}
			step *= 0.5
			if step < minBacktrack {
				return stalled(x, g, trial, k, s, "line search exhausted")
			}
		}
		grad(gNew, trial)

		var sy, ss, moved float64
		for i := range x {
			si := trial[i] - x[i]
			yi := gNew[i] - g[i]
			sy += si * yi
			ss += si * si
			moved = math.Max(moved, math.Abs(si))
		}
		if sy > 0 {
			alpha = math.Min(maxStepLength, math.Max(minStepLength, ss/sy))
		} else {
			alpha = maxStepLength
		}

		x, trial = trial, x
		g, gNew = gNew, g
		fx = fTrial

		if moved <= 1e-15 {
			return stalled(x, g, trial, k+1, s, "step vanished")
		}
	}

	return solveOutcome{
		x:          x,
		iterations: s.MaxIterations,
		status:     domain.StatusIterationLimit,
		err:        fmt.Errorf("no convergence within %d iterations", s.MaxIterations),
	}
}

// stalled ends a run that cannot move any further. It converged only if x is
// close to stationary; otherwise the run reports StatusStalled.
func stalled(x, g, buf []float64, iterations int, s Settings, reason string) solveOutcome {
	scale := math.Max(1, floats.Norm(g, math.Inf(1)))
	norm := projectedGradientNorm(x, g, buf)
	if norm <= math.Max(s.Tolerance, stallTolerance)*scale {
		return solveOutcome{x: x, iterations: iterations, status: domain.StatusConverged}
	}
	return solveOutcome{
		x:          x,
		iterations: iterations,
		status:     domain.StatusStalled,
		err:        fmt.Errorf("%s with projected gradient %.3g", reason, norm),
	}
}

func evaluate(value func([]float64) (float64, error), w []float64) (float64, error) {
	f, err := value(w)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("objective is not finite")
	}
	return f, nil
}

// projectedGradientNorm returns ||P(x - g) - x||∞, zero exactly at stationary points.
func projectedGradientNorm(x, g, buf []float64) float64 {
	floats.SubTo(buf, x, g)
	projectSimplex(buf)
	var norm float64
	for i := range buf {
		norm = math.Max(norm, math.Abs(buf[i]-x[i]))
	}
	return norm
}

// projectSimplex replaces v with its Euclidean projection onto the probability
// simplex (Duchi et al., 2008).
func projectSimplex(v []float64) {
	u := append([]float64(nil), v...)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))

	var cumsum, theta float64
	for i, ui := range u {
		cumsum += ui
		t := (cumsum - 1) / float64(i+1)
		if ui-t > 0 {
			theta = t
		}
	}
	for i := range v {
		v[i] = math.Max(v[i]-theta, 0)
	}
}
