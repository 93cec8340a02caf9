// Package compliance scores how faithfully a recorded ride executed a
// prescribed workout. An Analyzer aligns the recording to the prescription,
// constant-offset by default or per-second warped, then rates each step
// with a pluggable scoring strategy.
package compliance

import (
	"github.com/rs/zerolog"

	"github.com/veloplan/paceline/alignment"
	"github.com/veloplan/paceline/internal/utils"
	"github.com/veloplan/paceline/pkg/formulas"
	"github.com/veloplan/paceline/workout"
)

// AnalyzerConfig bundles the tunables of the default pipeline
type AnalyzerConfig struct {
	Scorer ScorerConfig
	Offset alignment.OffsetConfig
	Anchor alignment.AnchorConfig
}

// DefaultAnalyzerConfig returns the production analysis parameters
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Scorer: DefaultScorerConfig(),
		Offset: alignment.DefaultOffsetConfig(),
		Anchor: alignment.DefaultAnchorConfig(),
	}
}

// Analyzer orchestrates expansion, alignment and scoring. It holds no
// per-call state; every analysis is independent given its inputs.
type Analyzer struct {
	scorer ComplianceScorer
	finder alignment.OffsetFinder
	anchor alignment.AnchorConfig
	log    zerolog.Logger
}

// NewAnalyzer builds the default pipeline: bounded scorer, windowed MSE
// offset search.
func NewAnalyzer(cfg AnalyzerConfig, log zerolog.Logger) *Analyzer {
	return NewAnalyzerWithScorer(NewBoundedComplianceScorer(cfg.Scorer), cfg, log)
}

// NewAnalyzerWithScorer swaps the scoring strategy, keeping the default
// offset search.
func NewAnalyzerWithScorer(scorer ComplianceScorer, cfg AnalyzerConfig, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		scorer: scorer,
		finder: alignment.NewWindowedMSEOffsetFinder(cfg.Offset, log),
		anchor: cfg.Anchor,
		log:    log.With().Str("component", "compliance_analyzer").Logger(),
	}
}

// Analyze runs the default pipeline: estimate the recording-start offset
// with the configured finder, then score each step over its constant-offset
// window. One result per step, in prescription order.
func (a *Analyzer) Analyze(steps []workout.WorkoutStep, actual []workout.StreamPoint) []ComplianceResult {
	return a.AnalyzeWithFinder(steps, actual, a.finder)
}

// AnalyzeWithFinder is Analyze with a caller-chosen offset strategy
func (a *Analyzer) AnalyzeWithFinder(steps []workout.WorkoutStep, actual []workout.StreamPoint, finder alignment.OffsetFinder) []ComplianceResult {
	defer utils.OperationTimer("offset_analysis", a.log)()

	planned := workout.ExpandSteps(steps)
	series := workout.PowerSeries(actual)
	offset := finder.FindOffset(planned, series)
	return a.scoreAtOffset(steps, series, offset)
}

// AnalyzeWithOffset skips the search and scores at a known shift. The
// window for each step is clipped to the recorded range; a window fully
// outside it scores as an empty segment.
func (a *Analyzer) AnalyzeWithOffset(steps []workout.WorkoutStep, actual []workout.StreamPoint, offset int) []ComplianceResult {
	return a.scoreAtOffset(steps, workout.PowerSeries(actual), offset)
}

// AnalyzeWithAligner scores against a per-second warped series instead of a
// constant shift, accommodating riders who drift, stretch or compress
// intervals. Gap-marked seconds carry no sample and fall out of the
// matched set.
func (a *Analyzer) AnalyzeWithAligner(steps []workout.WorkoutStep, actual []workout.StreamPoint, aligner alignment.Aligner) []ComplianceResult {
	timer := utils.NewTimer("warped_analysis", a.log)
	defer timer.Stop()

	planned := workout.ExpandSteps(steps)
	aligned := aligner.Align(planned, workout.PowerSeries(actual))

	results := make([]ComplianceResult, 0, len(steps))
	cursor := 0
	for _, step := range steps {
		duration := step.Duration
		if duration < 0 {
			duration = 0
		}
		results = append(results, a.scoreStep(step, collectMatched(aligned, cursor, duration)))
		cursor += duration
	}

	a.log.Debug().
		Int("steps", len(steps)).
		Int("aligned_len", len(aligned)).
		Msg("Warped analysis complete")
	return results
}

// FindIntervalAnchors locates the first sustained interval in the
// prescription and its counterpart in the recording, searching the
// recording within the configured window around the planned position.
func (a *Analyzer) FindIntervalAnchors(steps []workout.WorkoutStep, actual []workout.StreamPoint) (plannedAnchor, actualAnchor int, ok bool) {
	return alignment.FindIntervalAnchors(workout.ExpandSteps(steps), workout.PowerSeries(actual), a.anchor)
}

func (a *Analyzer) scoreAtOffset(steps []workout.WorkoutStep, series []float64, offset int) []ComplianceResult {
	results := make([]ComplianceResult, 0, len(steps))
	cursor := 0
	for _, step := range steps {
		duration := step.Duration
		if duration < 0 {
			duration = 0
		}
		results = append(results, a.scoreStep(step, sliceWindow(series, cursor+offset, duration)))
		cursor += duration
	}

	a.log.Debug().
		Int("steps", len(steps)).
		Int("offset", offset).
		Int("series_len", len(series)).
		Msg("Offset analysis complete")
	return results
}

func (a *Analyzer) scoreStep(step workout.WorkoutStep, segment []float64) ComplianceResult {
	return ComplianceResult{
		StepName:        step.Name,
		PlannedDuration: step.Duration,
		ActualDuration:  len(segment),
		TargetPower:     step.TargetPower,
		ActualPowerAvg:  formulas.Mean(segment),
		CompliancePct:   a.scorer.Score(segment, step.TargetPower, step.Duration, step.Class),
		Class:           step.Class,
	}
}

// sliceWindow returns series[start:start+length] clipped to the valid range,
// nil when the window lies fully outside it.
func sliceWindow(series []float64, start, length int) []float64 {
	end := start + length
	if start < 0 {
		start = 0
	}
	if end > len(series) {
		end = len(series)
	}
	if start >= end {
		return nil
	}
	return series[start:end]
}

// collectMatched gathers the non-gap samples of an aligned window
func collectMatched(aligned []float64, start, length int) []float64 {
	end := start + length
	if end > len(aligned) {
		end = len(aligned)
	}
	if start >= end {
		return nil
	}

	out := make([]float64, 0, end-start)
	for _, v := range aligned[start:end] {
		if !alignment.IsGap(v) {
			out = append(out, v)
		}
	}
	return out
}
