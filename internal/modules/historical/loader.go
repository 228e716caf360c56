package historical

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Fetcher returns daily adjusted closes for one symbol within [start, end].
type Fetcher interface {
	FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
}

// defaultFetchConcurrency bounds parallel upstream requests per load.
const defaultFetchConcurrency = 4

// Loader builds an aligned PriceTable from a Fetcher.
type Loader struct {
	fetcher     Fetcher
	concurrency int
	log         zerolog.Logger
}

// NewLoader creates a loader fetching at most four symbols at a time.
func NewLoader(fetcher Fetcher, log zerolog.Logger) *Loader {
	return &Loader{
		fetcher:     fetcher,
		concurrency: defaultFetchConcurrency,
		log:         log.With().Str("component", "price_loader").Logger(),
	}
}

// Load fetches every symbol, inner-joins the series and validates the result.
// A failure for any symbol aborts the load with a data error naming it.
func (l *Loader) Load(ctx context.Context, symbols []string, rng universe.DateRange) (*PriceTable, error) {
	series := make([]Series, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, symbol := range symbols {
		g.Go(func() error {
			bars, err := l.fetcher.FetchDailyCloses(gctx, symbol, rng.Start, rng.End)
			if err != nil {
				return fmt.Errorf("%w: failed to fetch prices for %s: %w", domain.ErrData, symbol, err)
			}
			if len(bars) == 0 {
				return fmt.Errorf("%w: no prices for %s in %s", domain.ErrData, symbol, rng)
			}
			series[i] = Series{Symbol: symbol, Bars: bars}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table, err := Join(series...)
	if err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	l.log.Debug().
		Strs("symbols", symbols).
		Str("range", rng.String()).
		Int("rows", table.Len()).
		Msg("Loaded aligned price table")

	return table, nil
}
