package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

// Celebration describes a newly achieved personal record, ready for display.
type Celebration struct {
	ExerciseName string  `json:"exercise_name"`
	IsFirst      bool    `json:"is_first"`
	OldWeight    float64 `json:"old_weight"`
	OldReps      int     `json:"old_reps"`
	NewWeight    float64 `json:"new_weight"`
	NewReps      int     `json:"new_reps"`
	Improvement  string  `json:"improvement"`
}

// EstimatedOneRepMax converts a weight/reps pair into a single-rep-equivalent
// load using the Epley formula. A true single counts as itself.
func EstimatedOneRepMax(weight float64, reps int) float64 {
	if reps == 1 {
		return weight
	}
	return weight * (1 + float64(reps)/30)
}

// CheckForRecord compares a completed set against the existing record for the
// exercise (case-insensitive name match, nil if none). It returns a
// Celebration when the set is a first record or a strictly better estimate,
// and nil otherwise.
func CheckForRecord(exerciseName string, weight float64, reps int, existing *models.PersonalRecord) *Celebration {
	if existing == nil || !strings.EqualFold(existing.ExerciseName, exerciseName) {
		return &Celebration{
			ExerciseName: exerciseName,
			IsFirst:      true,
			NewWeight:    weight,
			NewReps:      reps,
			Improvement:  "First PR!",
		}
	}

	newMax := EstimatedOneRepMax(weight, reps)
	oldMax := existing.EstimatedOneRepMax
	if newMax <= oldMax {
		return nil
	}

	improvement := fmt.Sprintf("%d more reps", reps-existing.Reps)
	if weight > existing.Weight {
		improvement = "+" + strconv.FormatFloat(weight-existing.Weight, 'f', -1, 64) + " lbs"
	}

	return &Celebration{
		ExerciseName: exerciseName,
		OldWeight:    existing.Weight,
		OldReps:      existing.Reps,
		NewWeight:    weight,
		NewReps:      reps,
		Improvement:  improvement,
	}
}

// RecordFromCelebration builds the replacement PersonalRecord row for a
// celebration. Records replace, never merge.
func RecordFromCelebration(c *Celebration, workoutID uuid.UUID, date time.Time) models.PersonalRecord {
	return models.PersonalRecord{
		ExerciseName:       c.ExerciseName,
		Weight:             c.NewWeight,
		Reps:               c.NewReps,
		Date:               date,
		WorkoutID:          workoutID,
		EstimatedOneRepMax: EstimatedOneRepMax(c.NewWeight, c.NewReps),
	}
}
