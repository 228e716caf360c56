package optimization

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/aristath/frontier/internal/domain"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
)

// Portfolio labels used in logs, metrics and solver errors.
const (
	LabelMinVariance  = "min_variance"
	LabelMaxSharpe    = "max_sharpe"
	LabelTargetReturn = "target_return"
	LabelFrontier     = "frontier"
)

// Solution is an optimizer output: a full-precision weight vector on the
// simplex and its statistics.
type Solution struct {
	Weights    []float64
	Stats      PortfolioStats
	Iterations int
}

// Session owns one ReturnSeries for the duration of an optimization run.
// Every operation reads the series only, so a session may be used from
// several goroutines at once.
type Session struct {
	series   *ReturnSeries
	settings Settings
	workers  int
	metrics  *Metrics
	log      zerolog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithSettings sets the solver budget.
func WithSettings(settings Settings) Option {
	return func(s *Session) { s.settings = settings }
}

// WithWorkers sets how many frontier points are solved in parallel.
func WithWorkers(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMetrics records solve outcomes.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithLogger sets the session logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// NewSession creates a session over series.
func NewSession(series *ReturnSeries, opts ...Option) (*Session, error) {
	if series == nil || series.N() < 1 {
		return nil, fmt.Errorf("%w: session needs at least one asset", domain.ErrData)
	}

	s := &Session{
		series:   series,
		settings: DefaultSettings(),
		workers:  runtime.NumCPU(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Series returns the session's return series.
func (s *Session) Series() *ReturnSeries {
	return s.series
}

// MinimizeVariance returns the global minimum-variance portfolio.
func (s *Session) MinimizeVariance(ctx context.Context) (*Solution, error) {
	return s.solve(ctx, LabelMinVariance, nil, problem{
		value: s.variance,
		grad:  s.varianceGrad,
	})
}

// MaximizeSharpe returns the portfolio with the highest Sharpe ratio, found by
// minimizing its negation.
func (s *Session) MaximizeSharpe(ctx context.Context) (*Solution, error) {
	return s.solve(ctx, LabelMaxSharpe, nil, problem{
		value: s.negSharpe,
		grad:  s.negSharpeGrad,
	})
}

// MinimizeVarianceForTarget returns the minimum-variance portfolio whose
// expected return equals target.
func (s *Session) MinimizeVarianceForTarget(ctx context.Context, target float64) (*Solution, error) {
	return s.minimizeForTarget(ctx, LabelTargetReturn, target)
}

func (s *Session) minimizeForTarget(ctx context.Context, label string, target float64) (*Solution, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, fmt.Errorf("%w: target return must be finite", domain.ErrConfiguration)
	}
	return s.solve(ctx, label, &target, problem{
		value: s.variance,
		grad:  s.varianceGrad,
		eq:    &linearEquality{a: s.series.meanAnnual, b: target},
	})
}

func (s *Session) solve(ctx context.Context, label string, target *float64, p problem) (*Solution, error) {
	start := time.Now()
	out := minimize(ctx, p, s.uniform(), s.settings)
	s.metrics.observeSolve(label, out.status, time.Since(start))

	if out.status != domain.StatusConverged {
		return nil, &domain.SolverError{
			Portfolio:  label,
			Target:     target,
			Status:     out.status,
			Iterations: out.iterations,
			Err:        out.err,
		}
	}

	stats, err := Statistics(out.x, s.series)
	if err != nil {
		return nil, &domain.SolverError{
			Portfolio:  label,
			Target:     target,
			Status:     domain.StatusEvaluation,
			Iterations: out.iterations,
			Err:        err,
		}
	}

	s.log.Debug().
		Str("portfolio", label).
		Int("iterations", out.iterations).
		Float64("return", stats.ExpectedReturn).
		Float64("volatility", stats.Volatility).
		Msg("Solve converged")

	return &Solution{Weights: out.x, Stats: stats, Iterations: out.iterations}, nil
}

// uniform is the fixed 1/N starting point of every solve.
func (s *Session) uniform() []float64 {
	n := s.series.N()
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// variance has the same minimizer as volatility and a smooth gradient at zero.
func (s *Session) variance(w []float64) (float64, error) {
	return portfolioVariance(s.series, w), nil
}

func (s *Session) varianceGrad(dst, w []float64) {
	covTimes(dst, s.series, w)
	floats.Scale(2, dst)
}

func (s *Session) negSharpe(w []float64) (float64, error) {
	v := portfolioVariance(s.series, w)
	if !(v > 0) {
		return 0, fmt.Errorf("%w: zero portfolio volatility", domain.ErrDegenerateInput)
	}
	return -portfolioReturn(s.series, w) / math.Sqrt(v), nil
}

// negSharpeGrad is -μ/σ + R·Σw/σ³.
func (s *Session) negSharpeGrad(dst, w []float64) {
	v := portfolioVariance(s.series, w)
	if !(v > 0) {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	sigma := math.Sqrt(v)
	r := portfolioReturn(s.series, w)

	covTimes(dst, s.series, w)
	floats.Scale(r/(sigma*sigma*sigma), dst)
	floats.AddScaled(dst, -1/sigma, s.series.meanAnnual)
}
