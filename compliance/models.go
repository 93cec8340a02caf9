package compliance

import "github.com/veloplan/paceline/workout"

// ComplianceResult is the per-step outcome of an analysis, one record per
// prescribed step in prescription order.
type ComplianceResult struct {
	StepName        string                 `json:"step_name"`
	PlannedDuration int                    `json:"planned_duration"`
	ActualDuration  int                    `json:"actual_duration"`
	TargetPower     float64                `json:"target_power"`
	ActualPowerAvg  float64                `json:"actual_power_avg"`
	CompliancePct   float64                `json:"compliance_pct"`
	Class           workout.IntensityClass `json:"class"`
}

// Summary condenses a full report into ride-level figures
type Summary struct {
	StepCount      int                                `json:"step_count"`
	PlannedSeconds int                                `json:"planned_seconds"`
	ActualSeconds  int                                `json:"actual_seconds"`
	CompliancePct  float64                            `json:"compliance_pct"`
	ByClass        map[workout.IntensityClass]float64 `json:"by_class,omitempty"`
}
