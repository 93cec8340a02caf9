// Package alignment matches a planned per-second power series against a
// recorded one. It provides sustained-interval anchor detection, four
// interchangeable offset-search strategies, and a banded DTW aligner that
// produces a full per-second mapping. All functions operate on plain
// []float64 series and degrade gracefully on empty or degenerate input.
package alignment

import (
	"github.com/veloplan/paceline/pkg/formulas"
)

// AnchorConfig controls sustained-interval anchor detection
type AnchorConfig struct {
	Percentile   float64 // Quantile of the series used to derive the high-power threshold
	HighRatio    float64 // Fraction of the quantile value a sample must reach
	MinRun       int     // Consecutive seconds at/above threshold that make a run sustained
	SearchWindow int     // Seconds around the planned anchor searched in the actual series; <= 0 searches everywhere
}

// DefaultAnchorConfig returns the detection parameters used when callers
// don't tune them: the 85th percentile scaled by 0.9, sustained for 45s,
// searched within 5 minutes of the planned position.
func DefaultAnchorConfig() AnchorConfig {
	return AnchorConfig{
		Percentile:   0.85,
		HighRatio:    0.9,
		MinRun:       45,
		SearchWindow: 300,
	}
}

// AnchorThreshold derives the detection threshold for a series: its
// configured quantile scaled by HighRatio. Returns 0 for an empty series.
func AnchorThreshold(values []float64, cfg AnchorConfig) float64 {
	return formulas.Quantile(cfg.Percentile, values) * cfg.HighRatio
}

// FindFirstSustained scans left to right for the first run of at least
// minRun consecutive samples at or above threshold and returns its start
// index. ok is false when no run qualifies. minRun is clamped to 1.
func FindFirstSustained(values []float64, threshold float64, minRun int) (int, bool) {
	if minRun < 1 {
		minRun = 1
	}

	run := 0
	for i, v := range values {
		if v < threshold {
			run = 0
			continue
		}
		run++
		if run >= minRun {
			return i - minRun + 1, true
		}
	}
	return 0, false
}

// FindIntervalAnchors locates the first sustained interval in the planned
// series, then searches the actual series for its counterpart within
// SearchWindow seconds of the planned position. Each series uses its own
// threshold. ok is false when either side has no qualifying run.
func FindIntervalAnchors(planned, actual []float64, cfg AnchorConfig) (plannedAnchor, actualAnchor int, ok bool) {
	if len(planned) == 0 || len(actual) == 0 {
		return 0, 0, false
	}

	pa, found := FindFirstSustained(planned, AnchorThreshold(planned, cfg), cfg.MinRun)
	if !found {
		return 0, 0, false
	}

	lo, hi := 0, len(actual)
	if cfg.SearchWindow > 0 {
		lo = pa - cfg.SearchWindow
		if lo < 0 {
			lo = 0
		}
		hi = pa + cfg.SearchWindow
		if hi > len(actual) {
			hi = len(actual)
		}
	}
	if lo >= hi {
		return 0, 0, false
	}

	aThreshold := AnchorThreshold(actual, cfg)
	idx, found := FindFirstSustained(actual[lo:hi], aThreshold, cfg.MinRun)
	if !found {
		return 0, 0, false
	}
	return pa, lo + idx, true
}
