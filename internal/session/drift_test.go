package session

import (
	"testing"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

func driftTemplate() models.Template {
	return models.Template{
		ID:   uuid.New(),
		Name: "Pull Day",
		Exercises: []models.Exercise{
			{ID: uuid.New(), Name: "Deadlift", Sets: []models.Set{{}, {}, {}}},
			{ID: uuid.New(), Name: "Barbell Row", Sets: []models.Set{{}, {}}},
		},
	}
}

// TestDetectChangesNone verifies an unchanged session reports no drift.
func TestDetectChangesNone(t *testing.T) {
	tmpl := driftTemplate()
	changes := DetectChanges(tmpl, tmpl.Exercises)
	if len(changes) != 0 {
		t.Errorf("got changes %v, want none", changes)
	}
}

// TestDetectChangesAddedExercise verifies added exercises are counted.
func TestDetectChangesAddedExercise(t *testing.T) {
	tmpl := driftTemplate()
	session := append(append([]models.Exercise{}, tmpl.Exercises...),
		models.Exercise{Name: "Face Pull", Sets: []models.Set{{}}})

	changes := DetectChanges(tmpl, session)
	if len(changes) != 1 || changes[0] != "Added 1 exercise(s)" {
		t.Errorf("got %v, want [Added 1 exercise(s)]", changes)
	}
}

// TestDetectChangesRemovedExercise verifies removed exercises are counted.
func TestDetectChangesRemovedExercise(t *testing.T) {
	tmpl := driftTemplate()
	changes := DetectChanges(tmpl, tmpl.Exercises[:1])
	if len(changes) != 1 || changes[0] != "Removed 1 exercise(s)" {
		t.Errorf("got %v, want [Removed 1 exercise(s)]", changes)
	}
}

// TestDetectChangesAddedSets verifies extra sets on a shared exercise are
// reported with the exercise name.
func TestDetectChangesAddedSets(t *testing.T) {
	tmpl := driftTemplate()
	session := []models.Exercise{
		{Name: "Deadlift", Sets: []models.Set{{}, {}, {}, {}}},
		{Name: "Barbell Row", Sets: []models.Set{{}, {}}},
	}

	changes := DetectChanges(tmpl, session)
	if len(changes) != 1 || changes[0] != "Added 1 set(s) to Deadlift" {
		t.Errorf("got %v, want [Added 1 set(s) to Deadlift]", changes)
	}
}

// TestDetectChangesIgnoresRemovedSets verifies the deliberate blind spot:
// sets removed from a shared exercise are not reported.
func TestDetectChangesIgnoresRemovedSets(t *testing.T) {
	tmpl := driftTemplate()
	session := []models.Exercise{
		{Name: "Deadlift", Sets: []models.Set{{}}},
		{Name: "Barbell Row", Sets: []models.Set{{}, {}}},
	}

	if changes := DetectChanges(tmpl, session); len(changes) != 0 {
		t.Errorf("got %v, want no changes for removed sets", changes)
	}
}

// TestDetectChangesIgnoresReordering verifies the second blind spot:
// reordering exercises is not drift.
func TestDetectChangesIgnoresReordering(t *testing.T) {
	tmpl := driftTemplate()
	session := []models.Exercise{tmpl.Exercises[1], tmpl.Exercises[0]}

	if changes := DetectChanges(tmpl, session); len(changes) != 0 {
		t.Errorf("got %v, want no changes for reordering", changes)
	}
}

// TestDetectChangesCaseInsensitive verifies matching ignores name casing.
func TestDetectChangesCaseInsensitive(t *testing.T) {
	tmpl := driftTemplate()
	session := []models.Exercise{
		{Name: "DEADLIFT", Sets: []models.Set{{}, {}, {}}},
		{Name: "barbell row", Sets: []models.Set{{}, {}}},
	}

	if changes := DetectChanges(tmpl, session); len(changes) != 0 {
		t.Errorf("got %v, want no changes for case differences", changes)
	}
}

// TestTemplateFromSession verifies the overwritten template mirrors the
// session structure with all values cleared.
func TestTemplateFromSession(t *testing.T) {
	tmpl := driftTemplate()
	session := []models.Exercise{
		{ID: uuid.New(), Name: "Deadlift", Sets: []models.Set{
			{ID: uuid.New(), Weight: "405", Reps: "3", Completed: true},
		}},
	}

	updated := TemplateFromSession(tmpl, session)
	if updated.ID != tmpl.ID || updated.Name != tmpl.Name {
		t.Error("template identity should be preserved")
	}
	if len(updated.Exercises) != 1 {
		t.Fatalf("got %d exercises, want 1", len(updated.Exercises))
	}
	set := updated.Exercises[0].Sets[0]
	if set.Weight != "" || set.Reps != "" || set.Completed {
		t.Errorf("set = %+v, want cleared values", set)
	}
}
