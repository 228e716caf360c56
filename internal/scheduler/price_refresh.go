package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/rs/zerolog"
)

// PriceRefresher re-downloads a symbol's closes into the price cache.
type PriceRefresher interface {
	Refresh(ctx context.Context, symbol string, start, end time.Time) error
}

// PriceRefreshJob warms the price cache for the watchlist over the default
// lookback window, the range used by runs that give no dates.
type PriceRefreshJob struct {
	refresher    PriceRefresher
	symbols      []string
	lookbackDays int
	timeout      time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

// NewPriceRefreshJob creates a new price refresh job.
func NewPriceRefreshJob(refresher PriceRefresher, symbols []string, lookbackDays int, timeout time.Duration, log zerolog.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		refresher:    refresher,
		symbols:      symbols,
		lookbackDays: lookbackDays,
		timeout:      timeout,
		now:          time.Now,
		log:          log.With().Str("job", "price_refresh").Logger(),
	}
}

// Run refreshes every watchlist symbol. A failing symbol does not stop the
// others; all failures are joined into the returned error.
func (j *PriceRefreshJob) Run() error {
	if len(j.symbols) == 0 {
		j.log.Debug().Msg("Watchlist empty, nothing to refresh")
		return nil
	}

	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	rng := universe.DefaultRange(j.now(), j.lookbackDays)
	var errs []error
	refreshed := 0
	for _, symbol := range j.symbols {
		if err := j.refresher.Refresh(ctx, symbol, rng.Start, rng.End); err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to refresh prices")
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		refreshed++
	}

	j.log.Info().
		Int("refreshed", refreshed).
		Int("failed", len(errs)).
		Str("range", rng.String()).
		Msg("Price refresh finished")

	if len(errs) > 0 {
		return fmt.Errorf("price refresh failed for %d of %d symbols: %w", len(errs), len(j.symbols), errors.Join(errs...))
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}
