package session

import "strings"

// Rest duration bounds and category defaults, in seconds.
const (
	maxRestSeconds = 600

	heavyRest     = 180
	mediumRest    = 120
	isolationRest = 60
)

var (
	heavyLifts     = []string{"squat", "deadlift", "clean", "snatch"}
	mediumLifts    = []string{"bench", "press", "row", "pull-up", "chin-up"}
	isolationLifts = []string{"curl", "extension", "raise", "fly", "lateral", "tricep", "bicep", "calf", "shrug"}
)

// DefaultRestDuration classifies an exercise by substring match against its
// lowercased name and returns the rest period in seconds. Heavy compounds
// rest 180s, medium compounds 120s, isolation work 60s; anything else gets
// the caller's custom default. The first matching category wins.
func DefaultRestDuration(exerciseName string, customDefault int) int {
	name := strings.ToLower(exerciseName)

	for _, lift := range heavyLifts {
		if strings.Contains(name, lift) {
			return heavyRest
		}
	}
	for _, lift := range mediumLifts {
		// A leg press is a machine lift, not a pressing movement.
		if lift == "press" && strings.Contains(name, "leg press") {
			continue
		}
		if strings.Contains(name, lift) {
			return mediumRest
		}
	}
	for _, lift := range isolationLifts {
		if strings.Contains(name, lift) {
			return isolationRest
		}
	}
	return customDefault
}

// RestTimer is the single between-sets countdown. At most one is active per
// session; Start on a running timer overwrites it, there is no stacking.
// The timer is a plain state machine — a runner drives Tick once per second.
type RestTimer struct {
	ExerciseName     string `json:"exercise_name"`
	SecondsRemaining int    `json:"seconds_remaining"`
	TotalSeconds     int    `json:"total_seconds"`
	Active           bool   `json:"active"`
}

// Start arms the countdown for an exercise, replacing any running one.
func (t *RestTimer) Start(exerciseName string, seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	if seconds > maxRestSeconds {
		seconds = maxRestSeconds
	}
	t.ExerciseName = exerciseName
	t.TotalSeconds = seconds
	t.SecondsRemaining = seconds
	t.Active = seconds > 0
}

// Tick advances the countdown by one second. It reports true exactly once,
// on the tick that completes the countdown; the timer then deactivates and
// the remaining time snaps back to the total, ready for the next exercise.
func (t *RestTimer) Tick() (completed bool) {
	if !t.Active {
		return false
	}
	t.SecondsRemaining--
	if t.SecondsRemaining > 0 {
		return false
	}
	t.complete()
	return true
}

// Adjust changes the countdown length by delta seconds, clamped to
// [0, 600]. While active the delta also applies to the remaining time; if
// that exhausts the countdown, completion fires immediately instead of
// waiting for the next tick.
func (t *RestTimer) Adjust(deltaSeconds int) (completed bool) {
	t.TotalSeconds += deltaSeconds
	if t.TotalSeconds < 0 {
		t.TotalSeconds = 0
	}
	if t.TotalSeconds > maxRestSeconds {
		t.TotalSeconds = maxRestSeconds
	}

	if !t.Active {
		t.SecondsRemaining = t.TotalSeconds
		return false
	}

	t.SecondsRemaining += deltaSeconds
	if t.SecondsRemaining > t.TotalSeconds {
		t.SecondsRemaining = t.TotalSeconds
	}
	if t.SecondsRemaining <= 0 {
		t.complete()
		return true
	}
	return false
}

// Skip stops the countdown without firing the completion notification.
func (t *RestTimer) Skip() {
	t.Active = false
	t.SecondsRemaining = t.TotalSeconds
}

func (t *RestTimer) complete() {
	t.Active = false
	t.SecondsRemaining = t.TotalSeconds
}
