package yahoo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestClient(history func(symbol, period string) ([]HistoricalPrice, error)) *Client {
	c := NewClient(zerolog.Nop())
	c.history = history
	c.sleep = func(context.Context, time.Duration) error { return nil }
	c.now = func() time.Time { return day(6, 30) }
	return c
}

func TestClient_ImplementsFetcher(t *testing.T) {
	var _ historical.Fetcher = NewClient(zerolog.Nop())
}

func TestPeriodFor(t *testing.T) {
	now := day(6, 30)
	tests := []struct {
		start time.Time
		want  string
	}{
		{day(6, 15), "1mo"},
		{day(5, 1), "3mo"},
		{day(1, 2), "6mo"},
		{time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), "1y"},
		{time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC), "2y"},
		{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), "5y"},
		{time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), "10y"},
		{time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), "max"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, periodFor(now, tt.start), tt.start.Format("2006-01-02"))
	}
}

func TestFetchDailyCloses_FiltersRangeAndPrefersAdjClose(t *testing.T) {
	var gotPeriod string
	c := newTestClient(func(symbol, period string) ([]HistoricalPrice, error) {
		gotPeriod = period
		return []HistoricalPrice{
			{Date: day(1, 31), Close: 9, AdjClose: 9},
			{Date: time.Date(2024, 2, 1, 14, 30, 0, 0, time.UTC), Close: 10, AdjClose: 9.5},
			{Date: day(2, 2), Close: 11},
			{Date: day(3, 1), Close: 12, AdjClose: 12},
		}, nil
	})

	bars, err := c.FetchDailyCloses(context.Background(), "AAPL", day(2, 1), day(2, 29))
	require.NoError(t, err)

	assert.Equal(t, "6mo", gotPeriod)
	assert.Equal(t, []historical.Bar{
		{Date: day(2, 1), Close: 9.5},
		{Date: day(2, 2), Close: 11},
	}, bars)
}

func TestFetchDailyCloses_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	c := newTestClient(func(symbol, period string) ([]HistoricalPrice, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("429 too many requests")
		}
		return []HistoricalPrice{{Date: day(6, 3), Close: 1, AdjClose: 1}}, nil
	})

	bars, err := c.FetchDailyCloses(context.Background(), "MSFT", day(6, 1), day(6, 28))
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Equal(t, 3, calls)
}

func TestFetchDailyCloses_GivesUp(t *testing.T) {
	calls := 0
	c := newTestClient(func(symbol, period string) ([]HistoricalPrice, error) {
		calls++
		return nil, errors.New("not found")
	})

	_, err := c.FetchDailyCloses(context.Background(), "NOPE", day(6, 1), day(6, 28))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, defaultMaxRetries, calls)
}

func TestFetchDailyCloses_Canceled(t *testing.T) {
	c := newTestClient(func(symbol, period string) ([]HistoricalPrice, error) {
		t.Fatal("history must not be called after cancellation")
		return nil, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchDailyCloses(ctx, "AAPL", day(6, 1), day(6, 28))
	assert.ErrorIs(t, err, context.Canceled)
}
