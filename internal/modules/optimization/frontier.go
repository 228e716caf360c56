package optimization

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/frontier/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultFrontierPoints is the number of target returns on a frontier.
const DefaultFrontierPoints = 50

// FrontierPoint is the minimum volatility achieving one target return.
// Weights are rounded to WeightDecimals; Volatility is from the full-precision
// solution.
type FrontierPoint struct {
	TargetReturn float64   `json:"target_return"`
	Volatility   float64   `json:"volatility"`
	Weights      []float64 `json:"weights"`
}

// FrontierFailure records a target return whose solve did not converge.
type FrontierFailure struct {
	TargetReturn float64             `json:"target_return"`
	Status       domain.SolverStatus `json:"status"`
	Reason       string              `json:"reason"`
	Err          error               `json:"-"`
}

// Frontier holds the converged points in ascending target order and the
// targets that failed. A failed point never aborts the build.
type Frontier struct {
	Points   []FrontierPoint   `json:"points"`
	Failures []FrontierFailure `json:"failures"`
}

// Linspace returns num evenly spaced values from lower to upper inclusive.
func Linspace(lower, upper float64, num int) []float64 {
	if num < 1 {
		return nil
	}
	out := make([]float64, num)
	if num == 1 {
		out[0] = lower
		return out
	}
	step := (upper - lower) / float64(num-1)
	for i := range out {
		out[i] = lower + float64(i)*step
	}
	out[num-1] = upper
	return out
}

// BuildEfficientFrontier solves MinimizeVarianceForTarget for numPoints
// targets spaced evenly between lower and upper, given in either order. Points
// are solved in parallel and assembled in ascending target order. Each target
// is passed to its solve explicitly. Only cancellation of ctx aborts the build.
func (s *Session) BuildEfficientFrontier(ctx context.Context, lower, upper float64, numPoints int) (*Frontier, error) {
	if numPoints < 1 {
		return nil, fmt.Errorf("%w: frontier needs at least one point, got %d", domain.ErrConfiguration, numPoints)
	}
	if lower > upper {
		lower, upper = upper, lower
	}

	targets := Linspace(lower, upper, numPoints)
	solutions := make([]*Solution, len(targets))
	errs := make([]error, len(targets))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, target := range targets {
		g.Go(func() error {
			solutions[i], errs[i] = s.minimizeForTarget(ctx, LabelFrontier, target)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("frontier build interrupted: %w", err)
	}

	frontier := &Frontier{
		Points:   make([]FrontierPoint, 0, len(targets)),
		Failures: []FrontierFailure{},
	}
	for i, target := range targets {
		if errs[i] != nil {
			failure := FrontierFailure{
				TargetReturn: target,
				Status:       domain.StatusEvaluation,
				Reason:       errs[i].Error(),
				Err:          errs[i],
			}
			var solverErr *domain.SolverError
			if errors.As(errs[i], &solverErr) {
				failure.Status = solverErr.Status
			}
			frontier.Failures = append(frontier.Failures, failure)
			s.metrics.frontierFailure()
			s.log.Warn().
				Float64("target_return", target).
				Str("status", string(failure.Status)).
				Msg("Frontier point failed")
			continue
		}
		frontier.Points = append(frontier.Points, FrontierPoint{
			TargetReturn: target,
			Volatility:   solutions[i].Stats.Volatility,
			Weights:      RoundWeights(solutions[i].Weights, WeightDecimals),
		})
	}

	return frontier, nil
}
