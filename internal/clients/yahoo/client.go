// Package yahoo fetches daily price history through the go-yfinance library.
package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// HistoricalPrice represents one daily OHLCV bar
type HistoricalPrice struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// periods are the Yahoo history windows, smallest first, with the days each covers
var periods = []struct {
	name string
	days int
}{
	{"1mo", 31},
	{"3mo", 92},
	{"6mo", 183},
	{"1y", 366},
	{"2y", 731},
	{"5y", 1827},
	{"10y", 3653},
}

const defaultMaxRetries = 3

// Client implements historical.Fetcher using go-yfinance
type Client struct {
	maxRetries int
	history    func(symbol, period string) ([]HistoricalPrice, error)
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
	log        zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	c := &Client{
		maxRetries: defaultMaxRetries,
		sleep:      sleepContext,
		now:        time.Now,
		log:        log.With().Str("client", "yahoo").Logger(),
	}
	c.history = c.GetHistoricalPrices
	return c
}

// GetHistoricalPrices fetches auto-adjusted daily bars for a Yahoo period such as "1y"
func (c *Client) GetHistoricalPrices(symbol, period string) ([]HistoricalPrice, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}

	prices := make([]HistoricalPrice, 0, len(bars))
	for _, bar := range bars {
		prices = append(prices, HistoricalPrice{
			Date:     bar.Date,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: bar.AdjClose,
			Volume:   int64(bar.Volume),
		})
	}

	return prices, nil
}

// FetchDailyCloses implements historical.Fetcher. It downloads the smallest
// Yahoo period reaching back to start and keeps bars within [start, end].
// Transient failures are retried with exponential backoff.
func (c *Client) FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]historical.Bar, error) {
	period := periodFor(c.now(), start)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prices, err := c.history(symbol, period)
		if err == nil {
			return filterRange(prices, start, end), nil
		}
		lastErr = err

		if attempt < c.maxRetries-1 {
			waitTime := time.Duration(1<<uint(attempt)) * time.Second
			c.log.Warn().Err(err).Str("symbol", symbol).Int("attempt", attempt+1).Dur("wait", waitTime).Msg("Retrying")
			if err := c.sleep(ctx, waitTime); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("failed to fetch %s after %d attempts: %w", symbol, c.maxRetries, lastErr)
}

// periodFor picks the smallest period covering start, falling back to "max"
func periodFor(now, start time.Time) string {
	days := int(now.Sub(start).Hours()/24) + 1
	for _, p := range periods {
		if days <= p.days {
			return p.name
		}
	}
	return "max"
}

// filterRange keeps bars dated within [start, end] by calendar day. Adjusted
// close is preferred; the plain close is used when Yahoo omits it.
func filterRange(prices []HistoricalPrice, start, end time.Time) []historical.Bar {
	from := calendarDay(start)
	to := calendarDay(end)

	bars := make([]historical.Bar, 0, len(prices))
	for _, p := range prices {
		day := calendarDay(p.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		closePrice := p.AdjClose
		if closePrice <= 0 {
			closePrice = p.Close
		}
		bars = append(bars, historical.Bar{Date: day, Close: closePrice})
	}
	return bars
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
