package optimization

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_SeededIsReproducible(t *testing.T) {
	series := newFixtureSeries(t)

	first, err := NewSeededSampler(series, 42).Sample(context.Background(), 100)
	require.NoError(t, err)
	second, err := NewSeededSampler(series, 42).Sample(context.Background(), 100)
	require.NoError(t, err)
	other, err := NewSeededSampler(series, 43).Sample(context.Background(), 100)
	require.NoError(t, err)

	assert.Len(t, first, 100)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
}

func TestSampler_PointsLieInsideAchievableRange(t *testing.T) {
	series := newFixtureSeries(t)

	points, err := NewSampler(series, rand.New(rand.NewPCG(1, 2))).Sample(context.Background(), 500)
	require.NoError(t, err)

	for _, p := range points {
		assert.GreaterOrEqual(t, p.Return, 0.2016-1e-12)
		assert.LessOrEqual(t, p.Return, 0.3024+1e-12)
		assert.GreaterOrEqual(t, p.Volatility, 0.08-1e-12)
		assert.InDelta(t, p.Return/p.Volatility, p.Sharpe, 1e-12)
	}
}

func TestSampler_Counts(t *testing.T) {
	series := newFixtureSeries(t)

	points, err := NewSampler(series, nil).Sample(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, points)

	_, err = NewSampler(series, nil).Sample(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSampler_DegenerateSampleIsAttributed(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series, err := NewReturnSeries(&historical.PriceTable{
		Symbols: []string{"A", "B"},
		Dates:   []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)},
		Rows:    [][]float64{{10, 20}, {10, 20}, {10, 20}},
	})
	require.NoError(t, err)

	_, err = NewSeededSampler(series, 1).Sample(context.Background(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDegenerateInput)
	assert.Contains(t, err.Error(), "sample 0")
}

func TestSampler_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSampler(newFixtureSeries(t), nil).Sample(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
