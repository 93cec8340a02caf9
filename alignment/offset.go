package alignment

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/veloplan/paceline/pkg/formulas"
)

// OffsetFinder estimates the constant temporal shift between a planned
// per-second series and a recorded one, such that actual[offset+i]
// corresponds to planned[i]. Implementations return 0 for empty input or
// input shorter than the minimum required overlap.
type OffsetFinder interface {
	FindOffset(planned, actual []float64) int
}

// OffsetConfig carries the search bounds shared by all offset strategies
type OffsetConfig struct {
	MaxOffset   int // Largest candidate shift scanned, in seconds
	MinRequired int // Minimum overlap for an estimate to be trusted
}

// DefaultOffsetConfig allows up to 5 minutes of recording-start delay and
// demands at least a minute of overlap.
func DefaultOffsetConfig() OffsetConfig {
	return OffsetConfig{
		MaxOffset:   300,
		MinRequired: 60,
	}
}

// bounds clamps the configured search limits to what the two series can
// support. ok is false when either series is empty or shorter than the
// minimum required overlap.
func (c OffsetConfig) bounds(planned, actual []float64) (maxOffset, minRequired int, ok bool) {
	if len(planned) == 0 || len(actual) == 0 {
		return 0, 0, false
	}

	minRequired = c.MinRequired
	if minRequired < 1 {
		minRequired = 1
	}
	shorter := len(planned)
	if len(actual) < shorter {
		shorter = len(actual)
	}
	if shorter < minRequired {
		return 0, 0, false
	}

	maxOffset = c.MaxOffset
	if maxOffset < 0 {
		maxOffset = 0
	}
	if maxOffset > len(actual)-1 {
		maxOffset = len(actual) - 1
	}
	return maxOffset, minRequired, true
}

// overlapAt returns how many planned seconds remain comparable when the
// actual series is shifted by offset.
func overlapAt(planned, actual []float64, offset int) int {
	n := len(actual) - offset
	if len(planned) < n {
		n = len(planned)
	}
	if n < 0 {
		n = 0
	}
	return n
}

// windowedMSE computes the mean squared error between planned and the
// actual series shifted by offset, over their overlapping window.
func windowedMSE(planned, actual []float64, offset int) float64 {
	n := overlapAt(planned, actual, offset)
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		d := planned[i] - actual[offset+i]
		sum += d * d
	}
	return sum / float64(n)
}

// weightedMSE is windowedMSE with a per-planned-second weight applied to
// each squared difference, normalized by the total weight in the window.
func weightedMSE(planned, actual, weights []float64, offset int) float64 {
	n := overlapAt(planned, actual, offset)
	if n == 0 {
		return 0
	}

	var sum, weightSum float64
	for i := 0; i < n; i++ {
		d := planned[i] - actual[offset+i]
		sum += weights[i] * d * d
		weightSum += weights[i]
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// varianceWeights assigns every planned second a weight from its local
// rolling variance: seconds above the variance quantile carry full weight,
// flat steady-state seconds carry lowWeight. A fully flat signal produces
// uniform weights, which normalization cancels into a plain MSE scan.
func varianceWeights(planned []float64, window int, percentile, lowWeight float64) []float64 {
	variance := formulas.RollingVariance(planned, window)
	cutoff := formulas.Quantile(percentile, variance)

	weights := make([]float64, len(planned))
	for i, v := range variance {
		if v > cutoff {
			weights[i] = 1.0
		} else {
			weights[i] = lowWeight
		}
	}
	return weights
}

// binarizePeaks flags samples at or above the series' own percentile
// threshold, reducing it to peak/non-peak indicators.
func binarizePeaks(values []float64, percentile float64) []bool {
	threshold := formulas.Quantile(percentile, values)

	peaks := make([]bool, len(values))
	for i, v := range values {
		peaks[i] = v >= threshold
	}
	return peaks
}

// WindowedMSEOffsetFinder scans every candidate shift from 0 to MaxOffset
// and keeps the one with the lowest mean squared error over the overlapping
// window. The scan stops once the remaining overlap drops below MinRequired.
type WindowedMSEOffsetFinder struct {
	cfg OffsetConfig
	log zerolog.Logger
}

// NewWindowedMSEOffsetFinder creates the default brute-force MSE finder
func NewWindowedMSEOffsetFinder(cfg OffsetConfig, log zerolog.Logger) *WindowedMSEOffsetFinder {
	return &WindowedMSEOffsetFinder{
		cfg: cfg,
		log: log.With().Str("component", "offset_mse").Logger(),
	}
}

// FindOffset returns the lowest-error shift, or 0 for degenerate input
func (f *WindowedMSEOffsetFinder) FindOffset(planned, actual []float64) int {
	maxOffset, minRequired, ok := f.cfg.bounds(planned, actual)
	if !ok {
		return 0
	}

	best, bestErr := 0, math.Inf(1)
	for offset := 0; offset <= maxOffset; offset++ {
		if overlapAt(planned, actual, offset) < minRequired {
			break
		}
		if mse := windowedMSE(planned, actual, offset); mse < bestErr {
			best, bestErr = offset, mse
		}
	}

	f.log.Debug().
		Int("offset", best).
		Float64("mse", bestErr).
		Int("max_offset", maxOffset).
		Msg("MSE offset scan complete")
	return best
}

// WeightedOffsetConfig tunes the variance-weighted MSE search
type WeightedOffsetConfig struct {
	OffsetConfig
	Window     int     // Rolling-variance window over the planned signal, seconds
	Percentile float64 // Variance quantile separating interval seconds from steady state
	LowWeight  float64 // Weight applied to steady-state seconds
}

// DefaultWeightedOffsetConfig returns the variance-weighted search defaults
func DefaultWeightedOffsetConfig() WeightedOffsetConfig {
	return WeightedOffsetConfig{
		OffsetConfig: DefaultOffsetConfig(),
		Window:       60,
		Percentile:   0.60,
		LowWeight:    0.2,
	}
}

// WeightedOffsetFinder is the MSE scan with each second weighted by the
// local variance of the planned signal. Flat endurance sections carry
// little alignment information and can mislead a plain MSE scan; weighting
// biases the search toward the discriminative interval structure.
type WeightedOffsetFinder struct {
	cfg WeightedOffsetConfig
	log zerolog.Logger
}

// NewWeightedOffsetFinder creates a variance-weighted MSE finder
func NewWeightedOffsetFinder(cfg WeightedOffsetConfig, log zerolog.Logger) *WeightedOffsetFinder {
	return &WeightedOffsetFinder{
		cfg: cfg,
		log: log.With().Str("component", "offset_weighted").Logger(),
	}
}

// FindOffset returns the lowest weighted-error shift, or 0 for degenerate input
func (f *WeightedOffsetFinder) FindOffset(planned, actual []float64) int {
	maxOffset, minRequired, ok := f.cfg.bounds(planned, actual)
	if !ok {
		return 0
	}

	weights := varianceWeights(planned, f.cfg.Window, f.cfg.Percentile, f.cfg.LowWeight)

	best, bestErr := 0, math.Inf(1)
	for offset := 0; offset <= maxOffset; offset++ {
		if overlapAt(planned, actual, offset) < minRequired {
			break
		}
		if mse := weightedMSE(planned, actual, weights, offset); mse < bestErr {
			best, bestErr = offset, mse
		}
	}

	f.log.Debug().
		Int("offset", best).
		Float64("weighted_mse", bestErr).
		Msg("Weighted offset scan complete")
	return best
}

// SegmentPeakOffsetConfig tunes the binary peak cross-correlation search
type SegmentPeakOffsetConfig struct {
	OffsetConfig
	Percentile float64 // Per-series quantile separating peak samples from the rest
}

// DefaultSegmentPeakOffsetConfig returns the peak-overlap search defaults
func DefaultSegmentPeakOffsetConfig() SegmentPeakOffsetConfig {
	return SegmentPeakOffsetConfig{
		OffsetConfig: DefaultOffsetConfig(),
		Percentile:   0.85,
	}
}

// SegmentPeakOffsetFinder binarizes both series at their own percentile
// threshold and returns the shift maximizing the count of overlapping
// peaks, a discrete cross-correlation of peak indicators. Because only
// peak presence matters, it is robust to amplitude differences between
// the prescription and what the rider actually produced.
type SegmentPeakOffsetFinder struct {
	cfg SegmentPeakOffsetConfig
	log zerolog.Logger
}

// NewSegmentPeakOffsetFinder creates a peak cross-correlation finder
func NewSegmentPeakOffsetFinder(cfg SegmentPeakOffsetConfig, log zerolog.Logger) *SegmentPeakOffsetFinder {
	return &SegmentPeakOffsetFinder{
		cfg: cfg,
		log: log.With().Str("component", "offset_peak").Logger(),
	}
}

// FindOffset returns the shift with the most overlapping peaks, or 0 for
// degenerate input. Ties keep the smallest shift.
func (f *SegmentPeakOffsetFinder) FindOffset(planned, actual []float64) int {
	maxOffset, minRequired, ok := f.cfg.bounds(planned, actual)
	if !ok {
		return 0
	}

	plannedPeaks := binarizePeaks(planned, f.cfg.Percentile)
	actualPeaks := binarizePeaks(actual, f.cfg.Percentile)

	best, bestCount := 0, -1
	for offset := 0; offset <= maxOffset; offset++ {
		overlap := overlapAt(planned, actual, offset)
		if overlap < minRequired {
			break
		}

		count := 0
		for i := 0; i < overlap; i++ {
			if plannedPeaks[i] && actualPeaks[offset+i] {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = offset, count
		}
	}

	f.log.Debug().
		Int("offset", best).
		Int("peak_overlap", bestCount).
		Msg("Peak offset scan complete")
	return best
}
