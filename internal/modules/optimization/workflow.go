package optimization

import (
	"context"
	"fmt"
	"math"

	"github.com/aristath/frontier/internal/domain"
)

// Mode selects the workflow of a run.
type Mode string

const (
	// ModeMaxSharpe solves min-variance and max-Sharpe, frontier up to the max-Sharpe return.
	ModeMaxSharpe Mode = "max_sharpe"
	// ModeTargetReturn solves min-variance and the target portfolio, frontier up to the target.
	ModeTargetReturn Mode = "target_return"
)

// WeightDecimals is the rounding applied to presented weights.
const WeightDecimals = 4

// Request describes one optimization run over a session.
type Request struct {
	Mode           Mode
	TargetReturn   *float64
	FrontierPoints int
	// ClipFrontier starts the frontier at the min-variance return instead of 0.
	ClipFrontier bool
	Samples      int
	Seed         *uint64
}

// Validate checks mode, target and counts.
func (r Request) Validate() error {
	switch r.Mode {
	case ModeMaxSharpe:
		if r.TargetReturn != nil {
			return fmt.Errorf("%w: target return is only used in %s mode", domain.ErrConfiguration, ModeTargetReturn)
		}
	case ModeTargetReturn:
		if r.TargetReturn == nil {
			return fmt.Errorf("%w: %s mode needs a target return", domain.ErrConfiguration, ModeTargetReturn)
		}
		if math.IsNaN(*r.TargetReturn) || math.IsInf(*r.TargetReturn, 0) {
			return fmt.Errorf("%w: target return must be finite", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", domain.ErrConfiguration, r.Mode)
	}
	if r.FrontierPoints < 0 {
		return fmt.Errorf("%w: frontier points must not be negative", domain.ErrConfiguration)
	}
	if r.Samples < 0 {
		return fmt.Errorf("%w: samples must not be negative", domain.ErrConfiguration)
	}
	return nil
}

// Portfolio is a presented optimizer result. Weights are rounded to
// WeightDecimals; Stats come from the full-precision solution.
type Portfolio struct {
	Label      string             `json:"label"`
	Weights    []float64          `json:"weights"`
	Allocation map[string]float64 `json:"allocation"`
	Stats      PortfolioStats     `json:"stats"`
	Iterations int                `json:"iterations"`
}

// Result is the outcome of Run. Exactly one of MaxSharpe and Target is set.
type Result struct {
	Mode         Mode          `json:"mode"`
	Symbols      []string      `json:"symbols"`
	Observations int           `json:"observations"`
	MinVariance  *Portfolio    `json:"min_variance"`
	MaxSharpe    *Portfolio    `json:"max_sharpe,omitempty"`
	Target       *Portfolio    `json:"target,omitempty"`
	Frontier     *Frontier     `json:"frontier"`
	Samples      []SamplePoint `json:"samples"`
}

// Headline returns the mode's second portfolio.
func (r *Result) Headline() *Portfolio {
	if r.Mode == ModeTargetReturn {
		return r.Target
	}
	return r.MaxSharpe
}

// Run executes the workflow selected by req.Mode. A failed min-variance,
// max-Sharpe or target solve aborts the run; failed frontier points are
// recorded in the result.
func (s *Session) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	points := req.FrontierPoints
	if points == 0 {
		points = DefaultFrontierPoints
	}

	minVar, err := s.MinimizeVariance(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Mode:         req.Mode,
		Symbols:      s.series.Symbols(),
		Observations: s.series.Observations(),
		MinVariance:  s.present(LabelMinVariance, minVar),
	}

	var upper float64
	switch req.Mode {
	case ModeMaxSharpe:
		maxSharpe, err := s.MaximizeSharpe(ctx)
		if err != nil {
			return nil, err
		}
		result.MaxSharpe = s.present(LabelMaxSharpe, maxSharpe)
		upper = maxSharpe.Stats.ExpectedReturn
	case ModeTargetReturn:
		target, err := s.MinimizeVarianceForTarget(ctx, *req.TargetReturn)
		if err != nil {
			return nil, err
		}
		result.Target = s.present(LabelTargetReturn, target)
		upper = *req.TargetReturn
	}

	lower := frontierLowerBound(req.ClipFrontier, minVar.Stats.ExpectedReturn, upper)
	result.Frontier, err = s.BuildEfficientFrontier(ctx, lower, upper, points)
	if err != nil {
		return nil, err
	}

	if req.Samples > 0 {
		sampler := NewSampler(s.series, nil)
		if req.Seed != nil {
			sampler = NewSeededSampler(s.series, *req.Seed)
		}
		result.Samples, err = sampler.Sample(ctx, req.Samples)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// frontierLowerBound is 0, or the min-variance return when clipping and that
// return lies below upper. Targets under the min-variance return are dominated.
func frontierLowerBound(clip bool, minVarReturn, upper float64) float64 {
	if clip && minVarReturn < upper {
		return minVarReturn
	}
	return 0
}

func (s *Session) present(label string, sol *Solution) *Portfolio {
	symbols := s.series.symbols
	p := &Portfolio{
		Label:      label,
		Weights:    RoundWeights(sol.Weights, WeightDecimals),
		Allocation: make(map[string]float64, len(symbols)),
		Stats:      sol.Stats,
		Iterations: sol.Iterations,
	}
	for i, symbol := range symbols {
		p.Allocation[symbol] = p.Weights[i]
	}
	return p
}

// RoundWeights rounds each weight to the given number of decimals.
func RoundWeights(weights []float64, decimals int) []float64 {
	scale := math.Pow(10, float64(decimals))
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = math.Round(w*scale) / scale
	}
	return out
}
