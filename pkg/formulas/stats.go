// Package formulas provides pure numeric helpers shared by the alignment and
// compliance packages. All functions treat degenerate input (empty series,
// zero variance) as a neutral value rather than an error.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the population standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.PopStdDev(data, nil)
}

// Variance calculates the population variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.PopVariance(data, nil)
}

// Min returns the smallest value in the slice, or 0 for empty input
func Min(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Min(data)
}

// Max returns the largest value in the slice, or 0 for empty input
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Max(data)
}

// Quantile returns the p-th quantile (p in [0,1]) of the data using the
// empirical distribution. The input slice is not modified; p is clamped
// to the valid range.
func Quantile(p float64, data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	p = math.Max(0, math.Min(1, p))

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Median returns the middle value of the data, averaging the two middle
// values for even-length input. Returns 0 for empty input; the input slice
// is not modified.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// ZScore normalizes a series to zero mean and unit standard deviation.
// A series with zero standard deviation (constant, or fewer than two
// samples) normalizes to all zeros instead of dividing by zero.
func ZScore(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}

	out := make([]float64, len(data))
	std := StdDev(data)
	if std == 0 {
		return out
	}

	mean := Mean(data)
	for i, v := range data {
		out[i] = (v - mean) / std
	}
	return out
}
