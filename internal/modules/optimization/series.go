package optimization

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/historical"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily means and covariances.
const TradingDaysPerYear = 252

// ReturnSeries holds aligned daily log returns, one column per asset, together
// with the annualized moments every statistic and objective is built from.
// It is immutable once constructed and safe for concurrent readers.
type ReturnSeries struct {
	symbols    []string
	dates      []time.Time
	returns    *mat.Dense
	meanAnnual []float64
	covAnnual  *mat.SymDense
}

// NewReturnSeries derives log returns from a price table. Row t of the result is
// ln(price[t+1] / price[t]); the first date has no prior close and is dropped.
func NewReturnSeries(table *historical.PriceTable) (*ReturnSeries, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	rows := len(table.Rows) - 1
	n := len(table.Symbols)
	data := make([]float64, 0, rows*n)
	for t := 1; t <= rows; t++ {
		prev, cur := table.Rows[t-1], table.Rows[t]
		for i := 0; i < n; i++ {
			data = append(data, math.Log(cur[i]/prev[i]))
		}
	}

	return newReturnSeries(table.Symbols, table.Dates[1:], mat.NewDense(rows, n, data))
}

// NewReturnSeriesFromReturns builds a series from precomputed daily log returns,
// returns[t][i] being the return of symbols[i] on observation t.
func NewReturnSeriesFromReturns(symbols []string, returns [][]float64) (*ReturnSeries, error) {
	n := len(symbols)
	if n == 0 {
		return nil, fmt.Errorf("%w: return series has no assets", domain.ErrData)
	}
	if len(returns) == 0 {
		return nil, fmt.Errorf("%w: return series has no observations", domain.ErrData)
	}

	data := make([]float64, 0, len(returns)*n)
	for t, row := range returns {
		if len(row) != n {
			return nil, fmt.Errorf("%w: observation %d has %d returns, expected %d", domain.ErrData, t, len(row), n)
		}
		data = append(data, row...)
	}

	return newReturnSeries(symbols, nil, mat.NewDense(len(returns), n, data))
}

func newReturnSeries(symbols []string, dates []time.Time, returns *mat.Dense) (*ReturnSeries, error) {
	rows, n := returns.Dims()
	for t := 0; t < rows; t++ {
		for i := 0; i < n; i++ {
			if v := returns.At(t, i); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite return for %s at observation %d", domain.ErrData, symbols[i], t)
			}
		}
	}

	mean := make([]float64, n)
	for i := 0; i < n; i++ {
		mean[i] = stat.Mean(mat.Col(nil, i, returns), nil) * TradingDaysPerYear
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, returns, nil)
	cov.ScaleSym(TradingDaysPerYear, cov)

	return &ReturnSeries{
		symbols:    append([]string(nil), symbols...),
		dates:      append([]time.Time(nil), dates...),
		returns:    returns,
		meanAnnual: mean,
		covAnnual:  cov,
	}, nil
}

// Symbols returns the asset identifiers in column order.
func (s *ReturnSeries) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// Dates returns the date of each observation. Empty when built from raw returns.
func (s *ReturnSeries) Dates() []time.Time {
	return append([]time.Time(nil), s.dates...)
}

// N is the number of assets.
func (s *ReturnSeries) N() int {
	return len(s.symbols)
}

// Observations is the number of daily returns per asset.
func (s *ReturnSeries) Observations() int {
	rows, _ := s.returns.Dims()
	return rows
}

// MeanAnnual returns each asset's mean daily return times TradingDaysPerYear.
func (s *ReturnSeries) MeanAnnual() []float64 {
	return append([]float64(nil), s.meanAnnual...)
}

// CovarianceAnnual returns a copy of the sample covariance times TradingDaysPerYear.
func (s *ReturnSeries) CovarianceAnnual() *mat.SymDense {
	cov := mat.NewSymDense(s.N(), nil)
	cov.CopySym(s.covAnnual)
	return cov
}

// Returns returns a copy of the (observations x assets) log-return matrix.
func (s *ReturnSeries) Returns() *mat.Dense {
	return mat.DenseCopyOf(s.returns)
}
