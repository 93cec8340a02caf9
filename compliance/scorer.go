package compliance

import (
	"math"

	"github.com/veloplan/paceline/pkg/formulas"
	"github.com/veloplan/paceline/workout"
)

// ComplianceScorer turns one step's matched power samples into a compliance
// percentage. segment holds the actual samples matched to the step,
// plannedDuration the prescribed length in seconds.
type ComplianceScorer interface {
	Score(segment []float64, targetPower float64, plannedDuration int, class workout.IntensityClass) float64
}

// ScorerConfig tunes the bounded scorer
type ScorerConfig struct {
	Tolerance     float64                  // Fractional band around the target treated as on-target
	AllowBelowFor []workout.IntensityClass // Classes where riding below target is not penalized
}

// DefaultScorerConfig accepts 5% around the target and lets riders take
// warm-ups and cool-downs as easy as they like.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		Tolerance:     0.05,
		AllowBelowFor: []workout.IntensityClass{workout.ClassWarmup, workout.ClassCooldown},
	}
}

// LegacyComplianceScorer is the original percent-of-target formula:
// 100 * mean(segment) / target. It ignores duration shortfalls and dropouts
// entirely and exceeds 100 on overshoot. Kept for score continuity with
// previously published reports.
type LegacyComplianceScorer struct{}

// NewLegacyComplianceScorer creates the percent-of-target scorer
func NewLegacyComplianceScorer() *LegacyComplianceScorer {
	return &LegacyComplianceScorer{}
}

// Score returns 100 * mean/target, or 0 for an empty segment or non-positive target
func (s *LegacyComplianceScorer) Score(segment []float64, targetPower float64, plannedDuration int, class workout.IntensityClass) float64 {
	if len(segment) == 0 || targetPower <= 0 {
		return 0
	}
	return 100 * formulas.Mean(segment) / targetPower
}

// BoundedComplianceScorer scores a step as the product of three factors,
// each in [0,1], clamped to [0,100]:
//
//   - duration: how close the matched sample count came to the prescription
//   - coverage: the fraction of prescribed seconds with nonzero power, so
//     recording dropouts and early stops always cost points
//   - power: distance of the average from the target band; classes in the
//     allow-below set are only penalized for riding too hard
type BoundedComplianceScorer struct {
	tolerance  float64
	allowBelow map[workout.IntensityClass]bool
}

// NewBoundedComplianceScorer creates the banded scorer from its config
func NewBoundedComplianceScorer(cfg ScorerConfig) *BoundedComplianceScorer {
	allow := make(map[workout.IntensityClass]bool, len(cfg.AllowBelowFor))
	for _, class := range cfg.AllowBelowFor {
		allow[class] = true
	}
	return &BoundedComplianceScorer{
		tolerance:  cfg.Tolerance,
		allowBelow: allow,
	}
}

// Score returns the bounded compliance percentage in [0,100]
func (s *BoundedComplianceScorer) Score(segment []float64, targetPower float64, plannedDuration int, class workout.IntensityClass) float64 {
	if plannedDuration <= 0 {
		return 0
	}

	durationScore := 1 - math.Abs(float64(len(segment))/float64(plannedDuration)-1)
	if durationScore < 0 {
		durationScore = 0
	}

	nonzero := 0
	for _, v := range segment {
		if v > 0 {
			nonzero++
		}
	}
	nonzeroRatio := float64(nonzero) / float64(plannedDuration)

	powerScore := s.powerScore(formulas.Mean(segment), targetPower, class)

	score := 100 * durationScore * nonzeroRatio * powerScore
	return math.Max(0, math.Min(100, score))
}

// powerScore rates the average against the tolerance band around the target.
// Outside the band the penalty grows linearly with the distance, hitting 0
// one full target width away.
func (s *BoundedComplianceScorer) powerScore(avg, target float64, class workout.IntensityClass) float64 {
	if target <= 0 {
		if avg <= 0 {
			return 1.0
		}
		return 0.0
	}

	ceiling := target * (1 + s.tolerance)
	floor := target * (1 - s.tolerance)

	if s.allowBelow[class] {
		if avg <= ceiling {
			return 1.0
		}
		return math.Max(0, 1-(avg-ceiling)/target)
	}

	switch {
	case avg > ceiling:
		return math.Max(0, 1-(avg-ceiling)/target)
	case avg < floor:
		return math.Max(0, 1-(floor-avg)/target)
	default:
		return 1.0
	}
}
