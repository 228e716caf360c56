package optimization

import (
	"math"
	"testing"
	"time"

	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/stretchr/testify/require"
)

// Three uncorrelated assets. Daily returns are mean + scale*pattern with
// orthogonal zero-mean ±1 patterns, so the sample covariance is exactly
// diagonal and every optimum has a closed form:
//
//	annual means     μ = [0.252, 0.2016, 0.3024]
//	annual variances σ² = 336·scale² = [0.0336, 0.0084, 0.1344]
//	min variance     w ∝ 1/σ² = [4, 16, 1]/21, return 0.216, volatility 0.08
//	max Sharpe       w ∝ μ/σ² = [10, 32, 3]/45, return 0.21952, Sharpe √(Σμ²/σ²)
var (
	fixtureSymbols  = []string{"AAA", "BBB", "CCC"}
	fixtureMeans    = []float64{0.001, 0.0008, 0.0012}
	fixtureScales   = []float64{0.01, 0.005, 0.02}
	fixturePatterns = [][]float64{
		{1, 1, -1, -1},
		{1, -1, 1, -1},
		{1, -1, -1, 1},
	}

	fixtureMinVarWeights    = []float64{4.0 / 21, 16.0 / 21, 1.0 / 21}
	fixtureMaxSharpeWeights = []float64{10.0 / 45, 32.0 / 45, 3.0 / 45}
	fixtureMaxSharpeRatio   = math.Sqrt(7.4088)

	// Minimum-variance portfolio for a 0.25 target, from the two-fund solution.
	fixtureTarget        = 0.25
	fixtureTargetWeights = []float64{0.497113997, 0.271284271, 0.231601732}
	fixtureTargetVol     = 0.127006455
)

func fixtureReturns() [][]float64 {
	rows := make([][]float64, len(fixturePatterns[0]))
	for t := range rows {
		rows[t] = make([]float64, len(fixtureMeans))
		for i := range fixtureMeans {
			rows[t][i] = fixtureMeans[i] + fixtureScales[i]*fixturePatterns[i][t]
		}
	}
	return rows
}

func newFixtureSeries(t *testing.T) *ReturnSeries {
	t.Helper()
	series, err := NewReturnSeriesFromReturns(fixtureSymbols, fixtureReturns())
	require.NoError(t, err)
	return series
}

// fixturePriceTable compounds the fixture returns from a price of 100.
func fixturePriceTable() *historical.PriceTable {
	returns := fixtureReturns()
	table := &historical.PriceTable{Symbols: append([]string(nil), fixtureSymbols...)}
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	prices := []float64{100, 100, 100}

	table.Dates = append(table.Dates, day)
	table.Rows = append(table.Rows, append([]float64(nil), prices...))
	for _, r := range returns {
		day = day.AddDate(0, 0, 1)
		for i := range prices {
			prices[i] *= math.Exp(r[i])
		}
		table.Dates = append(table.Dates, day)
		table.Rows = append(table.Rows, append([]float64(nil), prices...))
	}
	return table
}

func newFixtureSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	session, err := NewSession(newFixtureSeries(t), opts...)
	require.NoError(t, err)
	return session
}

func sum(w []float64) float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

func requireOnSimplex(t *testing.T, w []float64) {
	t.Helper()
	require.InDelta(t, 1.0, sum(w), 1e-6)
	for i, v := range w {
		require.GreaterOrEqual(t, v, 0.0, "weight %d", i)
		require.LessOrEqual(t, v, 1.0, "weight %d", i)
	}
}
