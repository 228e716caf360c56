package optimization

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/aristath/frontier/internal/domain"
)

// DefaultSamples is the Monte Carlo sample count.
const DefaultSamples = 2000

// SamplePoint is one random portfolio on the risk/return plane.
type SamplePoint struct {
	Volatility float64 `json:"volatility"`
	Return     float64 `json:"return"`
	Sharpe     float64 `json:"sharpe_ratio"`
}

// Sampler draws random fully-invested portfolios for plotting. Samples are
// normalized uniform draws, so they are valid weights but not uniform over the
// simplex. Results never feed back into the optimizer.
type Sampler struct {
	series *ReturnSeries
	rng    *rand.Rand
}

// NewSampler creates a sampler. Pass a seeded rng for reproducible output;
// nil draws from a randomly seeded source.
func NewSampler(series *ReturnSeries, rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Sampler{series: series, rng: rng}
}

// NewSeededSampler creates a sampler whose draws are fully determined by seed.
func NewSeededSampler(series *ReturnSeries, seed uint64) *Sampler {
	return NewSampler(series, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Sample draws count portfolios. A degenerate draw aborts with the index of
// the offending sample.
func (s *Sampler) Sample(ctx context.Context, count int) ([]SamplePoint, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: sample count must not be negative, got %d", domain.ErrConfiguration, count)
	}

	n := s.series.N()
	points := make([]SamplePoint, 0, count)
	w := make([]float64, n)

	for k := 0; k < count; k++ {
		if k%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var sum float64
		for sum == 0 {
			sum = 0
			for i := range w {
				w[i] = s.rng.Float64()
				sum += w[i]
			}
		}
		for i := range w {
			w[i] /= sum
		}

		stats, err := Statistics(w, s.series)
		if err != nil {
			return nil, fmt.Errorf("monte carlo sample %d: %w", k, err)
		}
		points = append(points, SamplePoint{
			Volatility: stats.Volatility,
			Return:     stats.ExpectedReturn,
			Sharpe:     stats.Sharpe,
		})
	}

	return points, nil
}
