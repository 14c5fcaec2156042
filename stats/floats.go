package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Floats provides descriptive statistics over a slice of float64 values.
// Grounded on _examples/yaricom-goNEAT/experiment/floats.go, unchanged in
// shape: this run's statistics are per-generation rather than per-trial,
// but the same numeric summaries apply.
type Floats []float64

// Min returns the smallest value in the slice.
func (x Floats) Min() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return floats.Min(x)
}

// Max returns the greatest value in the slice.
func (x Floats) Max() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return floats.Max(x)
}

// Sum returns the total of the values in the slice.
func (x Floats) Sum() float64 {
	return floats.Sum(x)
}

// Mean returns the average of the values in the slice.
func (x Floats) Mean() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// MeanVariance returns the sample mean and unbiased variance of the values
// in the slice.
func (x Floats) MeanVariance() []float64 {
	if len(x) == 0 {
		return []float64{math.NaN(), math.NaN()}
	}
	m, v := stat.MeanVariance(x, nil)
	return []float64{m, v}
}

// Median returns the middle value in the slice (50% quantile).
func (x Floats) Median() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Quantile(0.5, stat.Empirical, x, nil)
}

// StdDev returns the standard deviation of the values in the slice.
func (x Floats) StdDev() float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}
