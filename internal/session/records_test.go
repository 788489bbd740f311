package session

import (
	"math"
	"testing"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

// TestEstimatedOneRepMax verifies the Epley estimate: 100 lbs x 5 reps
// estimates 116.67 lbs.
func TestEstimatedOneRepMax(t *testing.T) {
	got := EstimatedOneRepMax(100, 5)
	want := 100 * (1 + 5.0/30)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("EstimatedOneRepMax(100, 5) = %v, want %v", got, want)
	}
}

// TestEstimatedOneRepMaxSingle verifies that a true single counts as itself
// rather than 100*(1+1/30).
func TestEstimatedOneRepMaxSingle(t *testing.T) {
	if got := EstimatedOneRepMax(225, 1); got != 225 {
		t.Errorf("EstimatedOneRepMax(225, 1) = %v, want 225", got)
	}
}

// TestCheckForRecordFirst verifies that a set with no existing record is a
// first PR.
func TestCheckForRecordFirst(t *testing.T) {
	c := CheckForRecord("Bench Press", 135, 5, nil)
	if c == nil {
		t.Fatal("expected a celebration for a first record")
	}
	if !c.IsFirst {
		t.Error("IsFirst = false, want true")
	}
	if c.Improvement != "First PR!" {
		t.Errorf("Improvement = %q, want %q", c.Improvement, "First PR!")
	}
}

// TestCheckForRecordMismatchedName verifies that an existing record for a
// different exercise is treated as no record at all.
func TestCheckForRecordMismatchedName(t *testing.T) {
	existing := &models.PersonalRecord{ExerciseName: "Squat", Weight: 300, Reps: 5, EstimatedOneRepMax: EstimatedOneRepMax(300, 5)}
	c := CheckForRecord("Bench Press", 135, 5, existing)
	if c == nil || !c.IsFirst {
		t.Fatal("expected a first-PR celebration when the existing record is for another exercise")
	}
}

// TestCheckForRecordWeightImprovement verifies the improvement string when
// the new set is heavier: "+15 lbs".
func TestCheckForRecordWeightImprovement(t *testing.T) {
	existing := &models.PersonalRecord{ExerciseName: "Bench Press", Weight: 185, Reps: 5, EstimatedOneRepMax: EstimatedOneRepMax(185, 5)}
	c := CheckForRecord("Bench Press", 200, 5, existing)
	if c == nil {
		t.Fatal("expected a celebration for a heavier set")
	}
	if c.Improvement != "+15 lbs" {
		t.Errorf("Improvement = %q, want %q", c.Improvement, "+15 lbs")
	}
}

// TestCheckForRecordRepsImprovement verifies the improvement string when the
// weight did not rise but the estimate did: "1 more reps".
func TestCheckForRecordRepsImprovement(t *testing.T) {
	existing := &models.PersonalRecord{ExerciseName: "Bench Press", Weight: 185, Reps: 5, EstimatedOneRepMax: EstimatedOneRepMax(185, 5)}
	c := CheckForRecord("Bench Press", 185, 6, existing)
	if c == nil {
		t.Fatal("expected a celebration for more reps at the same weight")
	}
	if c.Improvement != "1 more reps" {
		t.Errorf("Improvement = %q, want %q", c.Improvement, "1 more reps")
	}
}

// TestCheckForRecordEqualEstimate verifies that matching the existing
// estimate exactly is not a new record (strictly greater required).
func TestCheckForRecordEqualEstimate(t *testing.T) {
	existing := &models.PersonalRecord{ExerciseName: "Bench Press", Weight: 185, Reps: 5, EstimatedOneRepMax: EstimatedOneRepMax(185, 5)}
	if c := CheckForRecord("Bench Press", 185, 5, existing); c != nil {
		t.Errorf("expected no celebration for an equal estimate, got %+v", c)
	}
}

// TestCheckForRecordCaseInsensitive verifies that exercise names match
// case-insensitively against the existing record.
func TestCheckForRecordCaseInsensitive(t *testing.T) {
	existing := &models.PersonalRecord{ExerciseName: "bench press", Weight: 185, Reps: 5, EstimatedOneRepMax: EstimatedOneRepMax(185, 5)}
	c := CheckForRecord("Bench Press", 185, 4, existing)
	if c != nil {
		t.Errorf("expected no celebration for a worse set, got %+v", c)
	}
}

// TestRecordFromCelebration verifies the replacement record carries the new
// set's numbers and a freshly computed estimate.
func TestRecordFromCelebration(t *testing.T) {
	workoutID := uuid.New()
	date := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := &Celebration{ExerciseName: "Squat", NewWeight: 315, NewReps: 3}

	r := RecordFromCelebration(c, workoutID, date)
	if r.ExerciseName != "Squat" {
		t.Errorf("ExerciseName = %q, want %q", r.ExerciseName, "Squat")
	}
	if r.Weight != 315 || r.Reps != 3 {
		t.Errorf("got %v x %d, want 315 x 3", r.Weight, r.Reps)
	}
	if r.WorkoutID != workoutID {
		t.Errorf("WorkoutID = %v, want %v", r.WorkoutID, workoutID)
	}
	want := EstimatedOneRepMax(315, 3)
	if r.EstimatedOneRepMax != want {
		t.Errorf("EstimatedOneRepMax = %v, want %v", r.EstimatedOneRepMax, want)
	}
}
