package alignment

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/veloplan/paceline/internal/utils"
	"github.com/veloplan/paceline/pkg/formulas"
)

// Aligner maps a planned per-second series onto actual recorded power,
// returning one value per planned second. Entries no actual second mapped
// to are gap markers (see IsGap).
type Aligner interface {
	Align(planned, actual []float64) []float64
}

// IsGap reports whether an aligned sample is the missing-value marker,
// meaning no actual second mapped to that planned second.
func IsGap(v float64) bool {
	return math.IsNaN(v)
}

// PathPoint is one matched pair of a DTW warping path, as indices into the
// two (possibly downsampled) series being warped.
type PathPoint struct {
	Planned int
	Actual  int
}

// AlignerConfig controls the banded DTW aligner. Window and Psi are
// expressed in seconds and rescaled together with Downsample.
type AlignerConfig struct {
	MaxLen           int     // Cap on the warped region length in seconds, 0 = uncapped
	Window           int     // Sakoe-Chiba corridor half-width, seconds
	Penalty          float64 // Added cost for each off-diagonal (compression/expansion) step
	Psi              int     // Start/end seconds that may be skipped without penalty
	Anchor           bool    // Detect sustained-interval anchors before warping
	AnchorPercentile float64 // Quantile for the anchor threshold
	AnchorHighRatio  float64 // Fraction of the quantile a sample must reach
	AnchorMinRun     int     // Seconds a run must sustain to anchor
	Downsample       int     // Block size for pre-warp averaging, 1 = none
}

// DefaultAlignerConfig returns the production alignment parameters: a two
// minute warp corridor, half a minute of endpoint slack, anchored start,
// and 5:1 downsampling to keep hour-long rides cheap.
func DefaultAlignerConfig() AlignerConfig {
	return AlignerConfig{
		MaxLen:           0,
		Window:           120,
		Penalty:          0.5,
		Psi:              30,
		Anchor:           true,
		AnchorPercentile: 0.85,
		AnchorHighRatio:  0.9,
		AnchorMinRun:     45,
		Downsample:       5,
	}
}

// DTWAligner computes a non-linear per-second mapping from planned time to
// actual power via Sakoe-Chiba-banded dynamic time warping. Unconstrained
// DTW on multi-hour rides is O(n*m) in time and memory; banding plus
// downsampling keep both near-linear, and anchoring stops the optimizer
// from matching unrelated flat pre-interval sections.
type DTWAligner struct {
	cfg AlignerConfig
	log zerolog.Logger
}

// NewDTWAligner creates an aligner with the given configuration
func NewDTWAligner(cfg AlignerConfig, log zerolog.Logger) *DTWAligner {
	if cfg.Downsample < 1 {
		cfg.Downsample = 1
	}
	return &DTWAligner{
		cfg: cfg,
		log: log.With().Str("component", "dtw_aligner").Logger(),
	}
}

// Align warps actual onto planned time. When anchoring is enabled the
// anchors are detected per series first; a series with no sustained run
// falls back to index 0. The result always has length len(planned).
func (a *DTWAligner) Align(planned, actual []float64) []float64 {
	plannedAnchor, actualAnchor := 0, 0
	if a.cfg.Anchor {
		plannedAnchor, actualAnchor = a.detectAnchors(planned, actual)
	}
	return a.alignFrom(planned, actual, plannedAnchor, actualAnchor)
}

// AlignWithAnchors warps actual onto planned time starting from
// precomputed anchor indices, out-of-range anchors are clamped.
func (a *DTWAligner) AlignWithAnchors(planned, actual []float64, plannedAnchor, actualAnchor int) []float64 {
	return a.alignFrom(planned, actual,
		clampIndex(plannedAnchor, len(planned)),
		clampIndex(actualAnchor, len(actual)))
}

func (a *DTWAligner) detectAnchors(planned, actual []float64) (int, int) {
	cfg := AnchorConfig{
		Percentile: a.cfg.AnchorPercentile,
		HighRatio:  a.cfg.AnchorHighRatio,
		MinRun:     a.cfg.AnchorMinRun,
	}

	plannedAnchor, ok := FindFirstSustained(planned, AnchorThreshold(planned, cfg), cfg.MinRun)
	if !ok {
		plannedAnchor = 0
	}
	actualAnchor, ok := FindFirstSustained(actual, AnchorThreshold(actual, cfg), cfg.MinRun)
	if !ok {
		actualAnchor = 0
	}
	return plannedAnchor, actualAnchor
}

// alignFrom is the shared alignment core. The pre-anchor prefix is copied
// with the constant offset plannedAnchor-actualAnchor (warm-up noise is not
// worth warping and would mislead the optimizer); the remainder is warped.
func (a *DTWAligner) alignFrom(planned, actual []float64, plannedAnchor, actualAnchor int) []float64 {
	if len(planned) == 0 {
		return []float64{}
	}

	aligned := make([]float64, len(planned))
	for i := range aligned {
		aligned[i] = math.NaN()
	}
	if len(actual) == 0 {
		return aligned
	}

	defer utils.OperationTimer("dtw_align", a.log)()

	// Pre-anchor prefix: constant-offset copy, no warping.
	anchorOffset := plannedAnchor - actualAnchor
	for t := 0; t < plannedAnchor; t++ {
		src := t - anchorOffset
		if src >= 0 && src < len(actual) {
			aligned[t] = actual[src]
		}
	}

	// Warp region: equal-length slices from the anchors onward.
	length := len(planned) - plannedAnchor
	if rest := len(actual) - actualAnchor; rest < length {
		length = rest
	}
	if a.cfg.MaxLen > 0 && length > a.cfg.MaxLen {
		length = a.cfg.MaxLen
	}
	if length <= 0 {
		return aligned
	}
	plannedSlice := planned[plannedAnchor : plannedAnchor+length]
	actualSlice := actual[actualAnchor : actualAnchor+length]

	ds := a.cfg.Downsample
	plannedNorm := formulas.ZScore(formulas.Downsample(plannedSlice, ds))
	actualNorm := formulas.ZScore(formulas.Downsample(actualSlice, ds))
	window := a.cfg.Window / ds
	if window < 1 {
		window = 1
	}
	psi := a.cfg.Psi / ds

	path := warpingPath(plannedNorm, actualNorm, window, psi, a.cfg.Penalty)

	// Accumulate mapped actual seconds per planned second, expanding
	// downsampled buckets back to full resolution.
	sums := make([]float64, length)
	counts := make([]int, length)
	for _, pt := range path {
		pStart, pEnd := bucketRange(pt.Planned, ds, length)
		aStart, aEnd := bucketRange(pt.Actual, ds, length)
		for s := pStart; s < pEnd; s++ {
			for u := aStart; u < aEnd; u++ {
				sums[s] += actualSlice[u]
				counts[s]++
			}
		}
	}
	for s := 0; s < length; s++ {
		if counts[s] > 0 {
			aligned[plannedAnchor+s] = sums[s] / float64(counts[s])
		}
	}

	a.log.Debug().
		Int("planned_len", len(planned)).
		Int("actual_len", len(actual)).
		Int("planned_anchor", plannedAnchor).
		Int("actual_anchor", actualAnchor).
		Int("warp_len", length).
		Int("path_len", len(path)).
		Msg("Alignment complete")
	return aligned
}

// bucketRange maps a downsampled index back to its original-second range,
// clipped to the slice length (the trailing bucket may be partial).
func bucketRange(bucket, size, limit int) (int, int) {
	start := bucket * size
	end := start + size
	if end > limit {
		end = limit
	}
	if start > limit {
		start = limit
	}
	return start, end
}

func clampIndex(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

// warpingPath computes a Sakoe-Chiba-banded DTW path between two series.
// The cumulative-cost matrix stores only the diagonal corridor of half-width
// band = max(window, |n-m|), keeping time and memory at O(n*band). Cell cost
// is the absolute difference; off-diagonal steps pay the linear penalty; up
// to psi cells may be skipped for free at the start and end of both series.
// The returned path runs start to end as (planned, actual) index pairs,
// preferring diagonal steps on ties.
func warpingPath(x, y []float64, window, psi int, penalty float64) []PathPoint {
	n, m := len(x), len(y)
	if n == 0 || m == 0 {
		return nil
	}

	band := window
	if d := n - m; d > band {
		band = d
	}
	if d := m - n; d > band {
		band = d
	}
	if psi < 0 {
		psi = 0
	}
	if psi > band {
		psi = band
	}

	// cost[i][k] holds the cumulative cost at row i, column j = i + k - band.
	// The diagonal predecessor keeps the same k, up is k+1, left is k-1.
	width := 2*band + 1
	cost := make([][]float64, n+1)
	for i := range cost {
		row := make([]float64, width)
		for k := range row {
			row[k] = math.Inf(1)
		}
		cost[i] = row
	}

	// psi relaxation: entering within psi cells of either origin edge is free.
	for j := 0; j <= psi && j <= m; j++ {
		cost[0][j+band] = 0
	}
	for i := 0; i <= psi && i <= n; i++ {
		cost[i][band-i] = 0
	}

	for i := 1; i <= n; i++ {
		jLo := i - band
		if jLo < 1 {
			jLo = 1
		}
		jHi := i + band
		if jHi > m {
			jHi = m
		}
		for j := jLo; j <= jHi; j++ {
			k := j - i + band
			best := cost[i-1][k] // diagonal
			if k+1 < width {
				if v := cost[i-1][k+1] + penalty; v < best {
					best = v
				}
			}
			if k-1 >= 0 {
				if v := cost[i][k-1] + penalty; v < best {
					best = v
				}
			}
			cost[i][k] = math.Abs(x[i-1]-y[j-1]) + best
		}
	}

	// Relaxed endpoint: the cheapest cell within psi of the (n,m) corner.
	endI, endJ := n, m
	bestCost := math.Inf(1)
	for j := m; j >= m-psi && j > 0; j-- {
		k := j - n + band
		if k < 0 || k >= width {
			continue
		}
		if cost[n][k] < bestCost {
			bestCost, endI, endJ = cost[n][k], n, j
		}
	}
	for i := n; i >= n-psi && i > 0; i-- {
		k := m - i + band
		if k < 0 || k >= width {
			continue
		}
		if cost[i][k] < bestCost {
			bestCost, endI, endJ = cost[i][k], i, m
		}
	}
	if math.IsInf(bestCost, 1) {
		return nil
	}

	// Backtrack mirroring the forward recurrence, diagonal wins ties.
	path := make([]PathPoint, 0, endI+endJ)
	i, j := endI, endJ
	for i > 0 && j > 0 {
		path = append(path, PathPoint{Planned: i - 1, Actual: j - 1})

		k := j - i + band
		diag := cost[i-1][k]
		up, left := math.Inf(1), math.Inf(1)
		if k+1 < width {
			up = cost[i-1][k+1] + penalty
		}
		if k-1 >= 0 {
			left = cost[i][k-1] + penalty
		}

		switch {
		case diag <= up && diag <= left:
			i, j = i-1, j-1
		case up <= left:
			i--
		default:
			j--
		}
	}

	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}
