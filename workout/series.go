package workout

// TotalDuration returns the summed duration of all steps in seconds.
// Steps with a non-positive duration contribute nothing.
func TotalDuration(steps []WorkoutStep) int {
	total := 0
	for _, step := range steps {
		if step.Duration > 0 {
			total += step.Duration
		}
	}
	return total
}

// ExpandSteps flattens a workout into its planned-power-per-second series:
// each step's target power repeated for its duration, concatenated in step
// order. The result has length TotalDuration(steps).
func ExpandSteps(steps []WorkoutStep) []float64 {
	total := TotalDuration(steps)
	if total == 0 {
		return nil
	}

	planned := make([]float64, 0, total)
	for _, step := range steps {
		for i := 0; i < step.Duration; i++ {
			planned = append(planned, step.TargetPower)
		}
	}
	return planned
}

// PowerSeries materializes a recorded stream into a dense per-second power
// array indexed by TimeOffset, length = last offset + 1. Seconds with no
// sample read as 0 W so that downstream scoring sees dropouts as zero power
// rather than silently interpolating over them. Duplicate offsets keep the
// last sample; samples with negative offsets are skipped.
func PowerSeries(points []StreamPoint) []float64 {
	last := -1
	for _, p := range points {
		if p.TimeOffset > last {
			last = p.TimeOffset
		}
	}
	if last < 0 {
		return nil
	}

	series := make([]float64, last+1)
	for _, p := range points {
		if p.TimeOffset >= 0 {
			series[p.TimeOffset] = p.Power
		}
	}
	return series
}
