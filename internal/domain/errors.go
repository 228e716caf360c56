package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the optimizer. Match them with errors.Is.
var (
	// ErrConfiguration marks bad caller input detected before the engine runs
	// (too few or duplicate symbols, empty or inverted date range).
	ErrConfiguration = errors.New("configuration error")
	// ErrData marks an empty, misaligned or malformed price table or return matrix.
	ErrData = errors.New("data error")
	// ErrDegenerateInput marks a zero-volatility portfolio whose Sharpe ratio is undefined.
	ErrDegenerateInput = errors.New("degenerate input")
	// ErrSolver marks a constrained minimization that did not converge.
	ErrSolver = errors.New("solver error")
)

// SolverStatus describes why a solve stopped.
type SolverStatus string

const (
	StatusConverged      SolverStatus = "converged"
	StatusIterationLimit SolverStatus = "iteration_limit"
	StatusTimeout        SolverStatus = "timeout"
	StatusInfeasible     SolverStatus = "infeasible"
	StatusEvaluation     SolverStatus = "evaluation_failed"
	StatusCanceled       SolverStatus = "canceled"
	StatusStalled        SolverStatus = "stalled"
)

// SolverError reports a failed minimization, attributed to the portfolio being solved
// and, for frontier and target solves, the target return.
type SolverError struct {
	Portfolio  string
	Target     *float64
	Status     SolverStatus
	Iterations int
	Err        error
}

func (e *SolverError) Error() string {
	msg := fmt.Sprintf("solver failed for %s", e.Portfolio)
	if e.Target != nil {
		msg += fmt.Sprintf(" (target return %.4f)", *e.Target)
	}
	msg += fmt.Sprintf(": %s after %d iterations", e.Status, e.Iterations)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrSolver and the underlying cause.
func (e *SolverError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSolver}
	}
	return []error{ErrSolver, e.Err}
}

// TargetReturn reports the target return; ok is false for untargeted solves.
func (e *SolverError) TargetReturn() (float64, bool) {
	if e.Target == nil {
		return 0, false
	}
	return *e.Target, true
}
