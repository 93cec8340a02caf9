package compliance

import "github.com/veloplan/paceline/workout"

// Summarize condenses per-step results into ride-level figures. Overall and
// per-class compliance are weighted by planned duration so a 10 minute
// interval counts ten times a 1 minute one. Zero results produce a
// zero-valued Summary.
func Summarize(results []ComplianceResult) Summary {
	if len(results) == 0 {
		return Summary{}
	}

	summary := Summary{
		StepCount: len(results),
		ByClass:   make(map[workout.IntensityClass]float64),
	}

	var weightedSum float64
	classWeighted := make(map[workout.IntensityClass]float64)
	classSeconds := make(map[workout.IntensityClass]int)

	for _, r := range results {
		duration := r.PlannedDuration
		if duration < 0 {
			duration = 0
		}
		summary.PlannedSeconds += duration
		summary.ActualSeconds += r.ActualDuration

		weightedSum += float64(duration) * r.CompliancePct
		classWeighted[r.Class] += float64(duration) * r.CompliancePct
		classSeconds[r.Class] += duration
	}

	if summary.PlannedSeconds > 0 {
		summary.CompliancePct = weightedSum / float64(summary.PlannedSeconds)
	}
	for class, seconds := range classSeconds {
		if seconds > 0 {
			summary.ByClass[class] = classWeighted[class] / float64(seconds)
		}
	}
	return summary
}
