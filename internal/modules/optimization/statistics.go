package optimization

import (
	"fmt"
	"math"

	"github.com/aristath/frontier/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PortfolioStats are annualized figures for one weight vector.
// The Sharpe ratio assumes a zero risk-free rate.
type PortfolioStats struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	Sharpe         float64 `json:"sharpe_ratio"`
}

// Statistics computes expected return, volatility and Sharpe ratio of weights
// over the series. A portfolio with zero volatility has no defined Sharpe ratio
// and yields ErrDegenerateInput.
func Statistics(weights []float64, series *ReturnSeries) (PortfolioStats, error) {
	if err := checkWeights(weights, series); err != nil {
		return PortfolioStats{}, err
	}

	ret := portfolioReturn(series, weights)
	variance := portfolioVariance(series, weights)
	if !(variance > 0) || math.IsInf(variance, 0) {
		return PortfolioStats{}, fmt.Errorf("%w: portfolio volatility is %v, sharpe ratio undefined", domain.ErrDegenerateInput, math.Sqrt(math.Abs(variance)))
	}

	vol := math.Sqrt(variance)
	return PortfolioStats{
		ExpectedReturn: ret,
		Volatility:     vol,
		Sharpe:         ret / vol,
	}, nil
}

func checkWeights(weights []float64, series *ReturnSeries) error {
	if series == nil || series.N() == 0 {
		return fmt.Errorf("%w: empty return series", domain.ErrData)
	}
	if len(weights) != series.N() {
		return fmt.Errorf("%w: %d weights for %d assets", domain.ErrConfiguration, len(weights), series.N())
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %d is not finite", domain.ErrConfiguration, i)
		}
	}
	return nil
}

// portfolioReturn is μ'w on annualized means.
func portfolioReturn(series *ReturnSeries, w []float64) float64 {
	return floats.Dot(series.meanAnnual, w)
}

// portfolioVariance is w'Σw on the annualized covariance.
func portfolioVariance(series *ReturnSeries, w []float64) float64 {
	x := mat.NewVecDense(len(w), w)
	return mat.Inner(x, series.covAnnual, x)
}

// covTimes writes Σw into dst.
func covTimes(dst []float64, series *ReturnSeries, w []float64) {
	out := mat.NewVecDense(len(dst), dst)
	out.MulVec(series.covAnnual, mat.NewVecDense(len(w), w))
}
