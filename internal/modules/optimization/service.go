package optimization

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PriceLoader supplies the aligned price table for a run.
type PriceLoader interface {
	Load(ctx context.Context, symbols []string, rng universe.DateRange) (*historical.PriceTable, error)
}

// Defaults fill in whatever an OptimizeRequest leaves unset.
type Defaults struct {
	FrontierPoints int      `json:"frontier_points"`
	Samples        int      `json:"samples"`
	ClipFrontier   bool     `json:"clip_frontier"`
	Workers        int      `json:"workers"`
	LookbackDays   int      `json:"lookback_days"`
	Solver         Settings `json:"solver"`
}

// OptimizeRequest is a full run from symbols to results. Nil pointers and a
// zero Range take the service defaults.
type OptimizeRequest struct {
	Symbols        []string
	Range          universe.DateRange
	Mode           Mode
	TargetReturn   *float64
	FrontierPoints *int
	ClipFrontier   *bool
	Samples        *int
	Seed           *uint64
}

// Report is the outcome of Optimize.
type Report struct {
	SessionID string  `json:"session_id"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	ElapsedMS int64   `json:"elapsed_ms"`
	Result    *Result `json:"result"`
}

// Service runs optimization sessions end to end.
type Service struct {
	loader   PriceLoader
	defaults Defaults
	metrics  *Metrics
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates a new optimization service.
func NewService(loader PriceLoader, defaults Defaults, metrics *Metrics, log zerolog.Logger) *Service {
	return &Service{
		loader:   loader,
		defaults: defaults,
		metrics:  metrics,
		now:      time.Now,
		log:      log.With().Str("service", "optimization").Logger(),
	}
}

// Defaults returns the values applied to unset request fields.
func (s *Service) Defaults() Defaults {
	return s.defaults
}

// Optimize validates the universe and date range, loads prices, derives the
// return series and runs the requested workflow in a fresh session.
func (s *Service) Optimize(ctx context.Context, req OptimizeRequest) (*Report, error) {
	started := s.now()
	sessionID := uuid.New().String()
	log := s.log.With().Str("session_id", sessionID).Logger()

	run, rng, err := s.prepare(req)
	if err != nil {
		s.metrics.session(run.Mode, "rejected")
		return nil, err
	}

	log.Info().
		Strs("symbols", req.Symbols).
		Str("range", rng.String()).
		Str("mode", string(run.Mode)).
		Msg("Starting optimization session")

	result, err := s.execute(ctx, req.Symbols, rng, run, log)
	if err != nil {
		s.metrics.session(run.Mode, "failed")
		log.Error().Err(err).Msg("Optimization session failed")
		return nil, err
	}
	s.metrics.session(run.Mode, "completed")

	headline := result.Headline()
	log.Info().
		Int("assets", len(result.Symbols)).
		Int("observations", result.Observations).
		Float64("min_variance_volatility", result.MinVariance.Stats.Volatility).
		Str("headline", headline.Label).
		Float64("headline_return", headline.Stats.ExpectedReturn).
		Float64("headline_sharpe", headline.Stats.Sharpe).
		Int("frontier_points", len(result.Frontier.Points)).
		Int("frontier_failures", len(result.Frontier.Failures)).
		Msg("Optimization session completed")

	return &Report{
		SessionID: sessionID,
		Start:     rng.Start.Format(universe.DateLayout),
		End:       rng.End.Format(universe.DateLayout),
		ElapsedMS: s.now().Sub(started).Milliseconds(),
		Result:    result,
	}, nil
}

func (s *Service) prepare(req OptimizeRequest) (Request, universe.DateRange, error) {
	run := Request{
		Mode:           req.Mode,
		TargetReturn:   req.TargetReturn,
		FrontierPoints: s.defaults.FrontierPoints,
		ClipFrontier:   s.defaults.ClipFrontier,
		Samples:        s.defaults.Samples,
		Seed:           req.Seed,
	}
	if run.Mode == "" {
		run.Mode = ModeMaxSharpe
		if req.TargetReturn != nil {
			run.Mode = ModeTargetReturn
		}
	}
	if req.FrontierPoints != nil {
		run.FrontierPoints = *req.FrontierPoints
	}
	if req.ClipFrontier != nil {
		run.ClipFrontier = *req.ClipFrontier
	}
	if req.Samples != nil {
		run.Samples = *req.Samples
	}

	if err := universe.Validate(req.Symbols); err != nil {
		return run, universe.DateRange{}, err
	}

	now := s.now()
	rng := req.Range
	if rng.Start.IsZero() && rng.End.IsZero() {
		rng = universe.DefaultRange(now, s.defaults.LookbackDays)
	}
	if err := rng.Validate(now); err != nil {
		return run, rng, err
	}

	if err := run.Validate(); err != nil {
		return run, rng, err
	}
	return run, rng, nil
}

func (s *Service) execute(ctx context.Context, symbols []string, rng universe.DateRange, run Request, log zerolog.Logger) (*Result, error) {
	table, err := s.loader.Load(ctx, symbols, rng)
	if err != nil {
		return nil, err
	}

	series, err := NewReturnSeries(table)
	if err != nil {
		return nil, err
	}

	session, err := NewSession(series,
		WithSettings(s.defaults.Solver),
		WithWorkers(s.defaults.Workers),
		WithMetrics(s.metrics),
		WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	result, err := session.Run(ctx, run)
	if err != nil {
		var solverErr *domain.SolverError
		if errors.As(err, &solverErr) {
			log.Warn().
				Str("portfolio", solverErr.Portfolio).
				Str("status", string(solverErr.Status)).
				Int("iterations", solverErr.Iterations).
				Msg("Required solve did not converge")
		}
		return nil, err
	}
	return result, nil
}
