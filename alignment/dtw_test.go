package alignment

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

var _ Aligner = (*DTWAligner)(nil)

func TestIsGap(t *testing.T) {
	assert.True(t, IsGap(math.NaN()))
	assert.False(t, IsGap(0))
	assert.False(t, IsGap(287.5))
}

func TestDTWAligner_EmptyInputs(t *testing.T) {
	aligner := NewDTWAligner(DefaultAlignerConfig(), zerolog.Nop())
	planned := intervalPlan()

	aligned := aligner.Align(nil, planned)
	assert.NotNil(t, aligned)
	assert.Len(t, aligned, 0)

	aligned = aligner.Align(planned, nil)
	assert.Len(t, aligned, len(planned))
	for _, v := range aligned {
		assert.True(t, IsGap(v), "no recording means every second is a gap")
	}
}

func TestDTWAligner_OutputLengthMatchesPlanned(t *testing.T) {
	aligner := NewDTWAligner(DefaultAlignerConfig(), zerolog.Nop())
	planned := intervalPlan()

	cases := []struct {
		name    string
		planned []float64
		actual  []float64
	}{
		{"equal length", planned, planned},
		{"actual longer", planned, zeroPrefixed(planned, 120)},
		{"actual shorter", planned, planned[:700]},
		{"single sample", planned[:1], planned},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, aligner.Align(tt.planned, tt.actual), len(tt.planned))
		})
	}
}

func TestDTWAligner_IdentityWithoutDownsampling(t *testing.T) {
	// A series aligned against itself must come back unchanged
	ramp := make([]float64, 200)
	for i := range ramp {
		ramp[i] = float64(i) * 2.5
	}

	cfg := DefaultAlignerConfig()
	cfg.Anchor = false
	cfg.Downsample = 1
	aligner := NewDTWAligner(cfg, zerolog.Nop())

	assert.Equal(t, ramp, aligner.Align(ramp, ramp))
}

func TestDTWAligner_IdentityWithDownsampling(t *testing.T) {
	// Step boundaries at 300 and 900 fall on downsample block edges, so the
	// block means reproduce the original values exactly.
	planned := intervalPlan()
	aligner := NewDTWAligner(DefaultAlignerConfig(), zerolog.Nop())

	assert.Equal(t, planned, aligner.Align(planned, planned))
}

func TestDTWAligner_RecoversConstantShift(t *testing.T) {
	// Recording started 30s before the workout. Anchoring locks both series
	// onto the first sustained interval, the prefix is copied at constant
	// offset and the warp region is then sample-identical.
	planned := intervalPlan()
	actual := zeroPrefixed(planned, 30)

	aligner := NewDTWAligner(DefaultAlignerConfig(), zerolog.Nop())
	assert.Equal(t, planned, aligner.Align(planned, actual))
}

func TestDTWAligner_PlannedLongerThanActual(t *testing.T) {
	// Rider stopped 200s early; the uncovered tail stays gap-marked
	planned := intervalPlan()[:600]
	actual := planned[:400]

	cfg := DefaultAlignerConfig()
	cfg.Anchor = false
	cfg.Downsample = 1
	cfg.Psi = 0
	aligner := NewDTWAligner(cfg, zerolog.Nop())

	aligned := aligner.Align(planned, actual)
	assert.Len(t, aligned, 600)
	assert.Equal(t, planned[:400], aligned[:400])
	for i := 400; i < 600; i++ {
		assert.True(t, IsGap(aligned[i]), "second %d has no recorded coverage", i)
	}
}

func TestDTWAligner_MaxLenCapsWarpRegion(t *testing.T) {
	planned := intervalPlan()[:600]

	cfg := DefaultAlignerConfig()
	cfg.Anchor = false
	cfg.Downsample = 1
	cfg.Psi = 0
	cfg.MaxLen = 100
	aligner := NewDTWAligner(cfg, zerolog.Nop())

	aligned := aligner.Align(planned, planned)
	assert.Equal(t, planned[:100], aligned[:100])
	for i := 100; i < len(aligned); i++ {
		assert.True(t, IsGap(aligned[i]), "second %d is beyond the warp cap", i)
	}
}

func TestDTWAligner_AlignWithAnchorsClampsOutOfRange(t *testing.T) {
	planned := intervalPlan()
	aligner := NewDTWAligner(DefaultAlignerConfig(), zerolog.Nop())

	aligned := aligner.AlignWithAnchors(planned, planned, -50, 10_000)
	assert.Len(t, aligned, len(planned))

	// Explicit zero anchors on identical series reduce to identity
	assert.Equal(t, planned, aligner.AlignWithAnchors(planned, planned, 0, 0))
}

func TestWarpingPath_IdenticalSeriesIsDiagonal(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}

	path := warpingPath(x, x, 2, 0, 0.5)
	assert.Equal(t, []PathPoint{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}}, path)
}

func TestWarpingPath_PsiSkipsLeadingSilence(t *testing.T) {
	x := []float64{7, 7, 7, 7}
	y := []float64{0, 0, 7, 7, 7, 7}

	path := warpingPath(x, y, 4, 2, 0.5)
	assert.Equal(t, []PathPoint{{0, 2}, {1, 3}, {2, 4}, {3, 5}}, path)
}

func TestWarpingPath_MatchesIsolatedPeak(t *testing.T) {
	x := []float64{0, 0, 10, 0, 0}
	y := []float64{0, 10, 0}

	path := warpingPath(x, y, 5, 0, 0.5)
	assert.NotEmpty(t, path)
	assert.Equal(t, PathPoint{0, 0}, path[0])
	assert.Equal(t, PathPoint{4, 2}, path[len(path)-1])
	assert.Contains(t, path, PathPoint{2, 1}, "the peaks must be matched to each other")
}

func TestWarpingPath_StepsAreMonotone(t *testing.T) {
	planned := intervalPlan()
	x := planned[:240]
	y := zeroPrefixed(planned, 10)[:250]

	path := warpingPath(x, y, 30, 5, 0.5)
	assert.NotEmpty(t, path)
	for i := 1; i < len(path); i++ {
		dp := path[i].Planned - path[i-1].Planned
		da := path[i].Actual - path[i-1].Actual
		assert.True(t, dp >= 0 && da >= 0, "path must never move backwards")
		assert.True(t, dp <= 1 && da <= 1, "path must advance one step at a time")
		assert.True(t, dp+da >= 1, "path must not stall")
	}
}

func TestWarpingPath_EmptyInput(t *testing.T) {
	assert.Nil(t, warpingPath(nil, []float64{1, 2}, 10, 0, 0.5))
	assert.Nil(t, warpingPath([]float64{1, 2}, nil, 10, 0, 0.5))
}
