package historical

import (
	"math"
	"testing"
	"time"

	"github.com/aristath/frontier/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(m time.Month, dd int) time.Time {
	return time.Date(2024, m, dd, 0, 0, 0, 0, time.UTC)
}

func TestJoin_InnerJoinsAndSorts(t *testing.T) {
	a := Series{Symbol: "AAA", Bars: []Bar{
		{Date: d(1, 4), Close: 12},
		{Date: d(1, 2), Close: 10},
		{Date: d(1, 3), Close: 11},
	}}
	b := Series{Symbol: "BBB", Bars: []Bar{
		{Date: d(1, 2), Close: 20},
		{Date: d(1, 4), Close: 22},
		{Date: d(1, 5), Close: 23},
	}}

	table, err := Join(a, b)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB"}, table.Symbols)
	assert.Equal(t, []time.Time{d(1, 2), d(1, 4)}, table.Dates)
	assert.Equal(t, [][]float64{{10, 20}, {12, 22}}, table.Rows)
	assert.NoError(t, table.Validate())
}

func TestJoin_NormalizesTimeOfDay(t *testing.T) {
	nyc := time.FixedZone("EST", -5*3600)
	a := Series{Symbol: "AAA", Bars: []Bar{
		{Date: time.Date(2024, 1, 2, 9, 30, 0, 0, nyc), Close: 1},
		{Date: time.Date(2024, 1, 3, 9, 30, 0, 0, nyc), Close: 2},
	}}
	b := Series{Symbol: "BBB", Bars: []Bar{
		{Date: d(1, 2), Close: 3},
		{Date: d(1, 3), Close: 4},
	}}

	table, err := Join(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestJoin_NoSeries(t *testing.T) {
	_, err := Join()
	assert.ErrorIs(t, err, domain.ErrData)
}

func TestJoin_NoOverlapFailsValidation(t *testing.T) {
	a := Series{Symbol: "AAA", Bars: []Bar{{Date: d(1, 2), Close: 1}, {Date: d(1, 3), Close: 1}}}
	b := Series{Symbol: "BBB", Bars: []Bar{{Date: d(2, 2), Close: 1}, {Date: d(2, 3), Close: 1}}}

	table, err := Join(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.ErrorIs(t, table.Validate(), domain.ErrData)
}

func TestPriceTable_Validate(t *testing.T) {
	tests := []struct {
		name  string
		table *PriceTable
	}{
		{"nil", nil},
		{"no columns", &PriceTable{Dates: []time.Time{d(1, 2), d(1, 3)}, Rows: [][]float64{{}, {}}}},
		{"single row", &PriceTable{Symbols: []string{"A"}, Dates: []time.Time{d(1, 2)}, Rows: [][]float64{{1}}}},
		{"ragged row", &PriceTable{Symbols: []string{"A", "B"}, Dates: []time.Time{d(1, 2), d(1, 3)}, Rows: [][]float64{{1, 2}, {1}}}},
		{"zero price", &PriceTable{Symbols: []string{"A"}, Dates: []time.Time{d(1, 2), d(1, 3)}, Rows: [][]float64{{1}, {0}}}},
		{"nan price", &PriceTable{Symbols: []string{"A"}, Dates: []time.Time{d(1, 2), d(1, 3)}, Rows: [][]float64{{math.NaN()}, {1}}}},
		{"date mismatch", &PriceTable{Symbols: []string{"A"}, Dates: []time.Time{d(1, 2)}, Rows: [][]float64{{1}, {1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.table.Validate(), domain.ErrData)
		})
	}
}
