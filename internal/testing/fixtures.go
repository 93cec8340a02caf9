package testing

import (
	"fmt"
	"math/rand"

	"github.com/veloplan/paceline/workout"
)

// IntervalWorkout returns a classic structured session: 5min warm up,
// reps x 10min threshold intervals separated by 2min soft-pedal
// recoveries, 5min cool down.
func IntervalWorkout(reps int) []workout.WorkoutStep {
	steps := []workout.WorkoutStep{
		{Name: "warm up", Duration: 300, TargetPower: 100, Class: workout.ClassWarmup},
	}
	for i := 0; i < reps; i++ {
		if i > 0 {
			steps = append(steps, workout.WorkoutStep{
				Name:        fmt.Sprintf("recovery %d", i),
				Duration:    120,
				TargetPower: 80,
				Class:       workout.ClassRest,
			})
		}
		steps = append(steps, workout.WorkoutStep{
			Name:        fmt.Sprintf("interval %d", i+1),
			Duration:    600,
			TargetPower: 250,
			Class:       workout.ClassActive,
		})
	}
	return append(steps, workout.WorkoutStep{
		Name: "cool down", Duration: 300, TargetPower: 100, Class: workout.ClassCooldown,
	})
}

// RideOptions shapes a synthetic recording
type RideOptions struct {
	StartDelay int      // Zero-power seconds recorded before the workout begins
	Noise      float64  // Amplitude of uniform power wobble around the target
	Dropouts   [][2]int // Half-open [start,end) ride-second ranges recorded as zero
	Seed       int64    // Noise seed, same seed same ride
}

// SyntheticRide records a prescription as a per-second power stream, ridden
// exactly on target apart from the distortions opts asks for.
func SyntheticRide(steps []workout.WorkoutStep, opts RideOptions) []workout.StreamPoint {
	planned := workout.ExpandSteps(steps)
	rng := rand.New(rand.NewSource(opts.Seed))

	total := opts.StartDelay + len(planned)
	points := make([]workout.StreamPoint, 0, total)
	for t := 0; t < total; t++ {
		var power float64
		if t >= opts.StartDelay {
			power = planned[t-opts.StartDelay]
			if opts.Noise > 0 {
				power += (rng.Float64()*2 - 1) * opts.Noise
			}
		}
		for _, window := range opts.Dropouts {
			if t >= window[0] && t < window[1] {
				power = 0
			}
		}
		points = append(points, workout.StreamPoint{TimeOffset: t, Power: power})
	}
	return points
}
