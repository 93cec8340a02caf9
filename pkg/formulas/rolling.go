package formulas

import (
	"github.com/markcheno/go-talib"
)

// Downsample averages consecutive blocks of the given size. A trailing block
// shorter than the size is averaged over its remaining samples so the tail of
// the series is never dropped. A size of 1 or less returns a copy.
func Downsample(data []float64, size int) []float64 {
	if len(data) == 0 {
		return nil
	}
	if size <= 1 {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	out := make([]float64, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		out = append(out, Mean(data[start:end]))
	}
	return out
}

// RollingVariance returns the variance of a trailing window at every index.
// Indices before the first full window carry the talib lookback value of 0.
// The window is clamped to the series length.
func RollingVariance(data []float64, window int) []float64 {
	if len(data) == 0 {
		return nil
	}
	if window < 1 {
		window = 1
	}
	if window > len(data) {
		window = len(data)
	}

	return talib.Var(data, window)
}
