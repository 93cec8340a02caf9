package alignment

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/veloplan/paceline/pkg/formulas"
)

// DTWOffsetConfig tunes the warp-path-based offset estimate
type DTWOffsetConfig struct {
	OffsetConfig
	Downsample int     // Block size for pre-warp averaging, 1 = none
	Window     int     // Sakoe-Chiba corridor half-width, seconds
	Psi        int     // Start/end seconds skippable without penalty
	Penalty    float64 // Cost added to off-diagonal steps
}

// DefaultDTWOffsetConfig mirrors the aligner's warp parameters
func DefaultDTWOffsetConfig() DTWOffsetConfig {
	return DTWOffsetConfig{
		OffsetConfig: DefaultOffsetConfig(),
		Downsample:   5,
		Window:       120,
		Psi:          30,
		Penalty:      0.5,
	}
}

// DTWOffsetFinder reduces a full DTW warping path to a single constant
// shift: each matched pair votes (actualIndex-plannedIndex)*downsample and
// the median vote wins. The median shrugs off the handful of spurious
// excursions a warp path picks up in noisy sections, where a mean would
// drift.
type DTWOffsetFinder struct {
	cfg DTWOffsetConfig
	log zerolog.Logger
}

// NewDTWOffsetFinder creates a warp-path offset finder
func NewDTWOffsetFinder(cfg DTWOffsetConfig, log zerolog.Logger) *DTWOffsetFinder {
	if cfg.Downsample < 1 {
		cfg.Downsample = 1
	}
	return &DTWOffsetFinder{
		cfg: cfg,
		log: log.With().Str("component", "offset_dtw").Logger(),
	}
}

// FindOffset returns the median path shift clamped to [0, MaxOffset], or 0
// for degenerate input
func (f *DTWOffsetFinder) FindOffset(planned, actual []float64) int {
	maxOffset, _, ok := f.cfg.bounds(planned, actual)
	if !ok {
		return 0
	}

	ds := f.cfg.Downsample
	plannedNorm := formulas.ZScore(formulas.Downsample(planned, ds))
	actualNorm := formulas.ZScore(formulas.Downsample(actual, ds))
	window := f.cfg.Window / ds
	if window < 1 {
		window = 1
	}
	psi := f.cfg.Psi / ds

	path := warpingPath(plannedNorm, actualNorm, window, psi, f.cfg.Penalty)
	if len(path) == 0 {
		return 0
	}

	votes := make([]float64, len(path))
	for i, pt := range path {
		votes[i] = float64((pt.Actual - pt.Planned) * ds)
	}

	offset := int(math.Round(formulas.Median(votes)))
	if offset < 0 {
		offset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}

	f.log.Debug().
		Int("offset", offset).
		Int("path_len", len(path)).
		Int("downsample", ds).
		Msg("DTW offset estimate complete")
	return offset
}
