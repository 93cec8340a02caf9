// Package workout defines the value types the compliance engine operates on:
// recorded power stream samples, prescribed workout steps, and the helpers
// that materialize both into dense per-second power series.
package workout

// IntensityClass tags a workout step with its training intent
type IntensityClass string

const (
	ClassWarmup   IntensityClass = "warmup"
	ClassCooldown IntensityClass = "cooldown"
	ClassRest     IntensityClass = "rest"
	ClassActive   IntensityClass = "active"
)

// IsRecovery checks whether this class describes low-effort riding where
// undershooting the target is normally acceptable
func (c IntensityClass) IsRecovery() bool {
	return c == ClassWarmup || c == ClassCooldown
}

// StreamPoint is one recorded sample of the actual ride: seconds since
// activity start and the power reading at that second. The sequence is
// assumed non-decreasing in TimeOffset but may contain gaps (dropped
// seconds) or duplicate offsets.
type StreamPoint struct {
	TimeOffset int     `json:"time_offset"` // Seconds from activity start
	Power      float64 `json:"power"`       // Watts
}

// WorkoutStep is one prescribed segment of a structured workout. An ordered
// slice of steps forms the full prescription; steps are contiguous and
// non-overlapping when expanded into a per-second planned series.
type WorkoutStep struct {
	Name        string         `json:"name"`
	Duration    int            `json:"duration"` // Seconds
	TargetPower float64        `json:"target_power"`
	Class       IntensityClass `json:"intensity_class"`
}
