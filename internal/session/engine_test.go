package session

import (
	"testing"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

func benchTemplate() models.Template {
	return models.Template{
		ID:    uuid.New(),
		Name:  "Push Day",
		Emoji: "💪",
		Exercises: []models.Exercise{
			{ID: uuid.New(), Name: "Bench Press", Sets: []models.Set{
				{ID: uuid.New(), Weight: "135", Reps: "5"},
				{ID: uuid.New(), Weight: "135", Reps: "5"},
				{ID: uuid.New(), Weight: "135", Reps: "5"},
			}},
			{ID: uuid.New(), Name: "Lateral Raise", Sets: []models.Set{
				{ID: uuid.New(), Weight: "20", Reps: "12"},
			}},
		},
	}
}

func startBench(t *testing.T) *Engine {
	t.Helper()
	return Start(benchTemplate(), nil, time.Now())
}

// TestStartPrefillsFromHistory verifies sets are seeded index for index
// from the most recent history entry containing the exercise, with sets
// past the historical count keeping template defaults.
func TestStartPrefillsFromHistory(t *testing.T) {
	history := []models.HistoryEntry{
		{
			Date: time.Now().AddDate(0, 0, -2),
			Exercises: []models.Exercise{
				{Name: "bench press", Sets: []models.Set{
					{Weight: "145", Reps: "5"},
					{Weight: "145", Reps: "4"},
				}},
			},
		},
		{
			Date: time.Now().AddDate(0, 0, -9),
			Exercises: []models.Exercise{
				{Name: "Bench Press", Sets: []models.Set{
					{Weight: "95", Reps: "10"},
				}},
			},
		},
	}

	e := Start(benchTemplate(), history, time.Now())
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	sets := snap.Exercises[0].Sets
	if sets[0].Weight != "145" || sets[0].Reps != "5" {
		t.Errorf("set 0 = %s x %s, want 145 x 5 from newest history", sets[0].Weight, sets[0].Reps)
	}
	if sets[1].Weight != "145" || sets[1].Reps != "4" {
		t.Errorf("set 1 = %s x %s, want 145 x 4", sets[1].Weight, sets[1].Reps)
	}
	// Third set has no historical counterpart.
	if sets[2].Weight != "135" || sets[2].Reps != "5" {
		t.Errorf("set 2 = %s x %s, want template default 135 x 5", sets[2].Weight, sets[2].Reps)
	}
	// Prefill must not mark anything completed.
	for i, set := range sets {
		if set.Completed {
			t.Errorf("set %d prefilled as completed", i)
		}
	}
}

// TestStartFreshIDs verifies session exercises and sets get new IDs rather
// than aliasing the template's.
func TestStartFreshIDs(t *testing.T) {
	tmpl := benchTemplate()
	e := Start(tmpl, nil, time.Now())
	snap, _ := e.Snapshot()

	if snap.Exercises[0].ID == tmpl.Exercises[0].ID {
		t.Error("session exercise reuses template exercise ID")
	}
	if snap.Exercises[0].Sets[0].ID == tmpl.Exercises[0].Sets[0].ID {
		t.Error("session set reuses template set ID")
	}
}

// TestToggleSetCompleteEmitsEvent verifies completing a filled set emits
// SetCompleted with parsed numbers.
func TestToggleSetCompleteEmitsEvent(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[0]

	var events []Event
	e.Subscribe(func(ev Event) { events = append(events, ev) })

	if err := e.ToggleSetComplete(ex.ID, ex.Sets[0].ID); err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev, ok := events[0].(SetCompleted)
	if !ok {
		t.Fatalf("got event %T, want SetCompleted", events[0])
	}
	if ev.ExerciseName != "Bench Press" || ev.Weight != 135 || ev.Reps != 5 {
		t.Errorf("event = %+v, want Bench Press 135x5", ev)
	}
}

// TestToggleSetCompleteEmptyFieldsSilent verifies a toggle on a set missing
// weight or reps is silently dropped: no error, no state change, no event.
func TestToggleSetCompleteEmptyFieldsSilent(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[0]

	if err := e.UpdateSetField(ex.ID, ex.Sets[0].ID, "weight", ""); err != nil {
		t.Fatal(err)
	}

	var events int
	e.Subscribe(func(Event) { events++ })

	if err := e.ToggleSetComplete(ex.ID, ex.Sets[0].ID); err != nil {
		t.Fatalf("empty-field toggle should not error, got %v", err)
	}

	snap, _ = e.Snapshot()
	if snap.Exercises[0].Sets[0].Completed {
		t.Error("set with empty weight must not complete")
	}
	if events != 0 {
		t.Errorf("got %d events, want 0", events)
	}
}

// TestToggleSetUncompleteNoEvent verifies un-completing fires no side
// effects.
func TestToggleSetUncompleteNoEvent(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[0]

	if err := e.ToggleSetComplete(ex.ID, ex.Sets[0].ID); err != nil {
		t.Fatal(err)
	}

	var events int
	e.Subscribe(func(Event) { events++ })
	if err := e.ToggleSetComplete(ex.ID, ex.Sets[0].ID); err != nil {
		t.Fatal(err)
	}

	snap, _ = e.Snapshot()
	if snap.Exercises[0].Sets[0].Completed {
		t.Error("second toggle should un-complete the set")
	}
	if events != 0 {
		t.Errorf("un-completing fired %d events, want 0", events)
	}
}

// TestUpdateSetFieldSanitizes verifies input is cleaned to digits and the
// first decimal point: "12.5.3abc" stores as "12.53".
func TestUpdateSetFieldSanitizes(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[0]

	if err := e.UpdateSetField(ex.ID, ex.Sets[0].ID, "weight", "12.5.3abc"); err != nil {
		t.Fatal(err)
	}

	snap, _ = e.Snapshot()
	if got := snap.Exercises[0].Sets[0].Weight; got != "12.53" {
		t.Errorf("weight = %q, want %q", got, "12.53")
	}
}

// TestUpdateSetFieldRejectsOverLimit verifies a weight above 9999 is
// rejected outright and the field keeps its previous contents.
func TestUpdateSetFieldRejectsOverLimit(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[0]

	if err := e.UpdateSetField(ex.ID, ex.Sets[0].ID, "weight", "10050"); err != nil {
		t.Fatal(err)
	}

	snap, _ = e.Snapshot()
	if got := snap.Exercises[0].Sets[0].Weight; got != "135" {
		t.Errorf("weight = %q, want unchanged %q", got, "135")
	}
}

// TestUpdateSetFieldUnknown verifies an unknown field name errors.
func TestUpdateSetFieldUnknown(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[0]

	if err := e.UpdateSetField(ex.ID, ex.Sets[0].ID, "tempo", "3"); err != ErrUnknownField {
		t.Errorf("got %v, want ErrUnknownField", err)
	}
}

// TestAddExerciseCapitalizes verifies names are capitalized per word and
// the new exercise starts with one empty set.
func TestAddExerciseCapitalizes(t *testing.T) {
	e := startBench(t)
	id, err := e.AddExercise("barbell row")
	if err != nil {
		t.Fatal(err)
	}

	snap, _ := e.Snapshot()
	added := snap.Exercises[len(snap.Exercises)-1]
	if added.ID != id {
		t.Errorf("returned ID %v does not match appended exercise %v", id, added.ID)
	}
	if added.Name != "Barbell Row" {
		t.Errorf("name = %q, want %q", added.Name, "Barbell Row")
	}
	if len(added.Sets) != 1 || added.Sets[0].Weight != "" || added.Sets[0].Completed {
		t.Errorf("new exercise sets = %+v, want one empty set", added.Sets)
	}
}

// TestRemoveSetEmitsSetRemoved verifies a deletion leaves the tree
// immediately and fires SetRemoved with the original index.
func TestRemoveSetEmitsSetRemoved(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[0]
	victim := ex.Sets[1]

	var removed *SetRemoved
	e.Subscribe(func(ev Event) {
		if r, ok := ev.(SetRemoved); ok {
			removed = &r
		}
	})

	if err := e.RemoveSet(ex.ID, victim.ID); err != nil {
		t.Fatal(err)
	}

	snap, _ = e.Snapshot()
	if len(snap.Exercises[0].Sets) != 2 {
		t.Errorf("got %d sets, want 2", len(snap.Exercises[0].Sets))
	}
	if removed == nil {
		t.Fatal("expected SetRemoved event")
	}
	if removed.Index != 1 || removed.Set.ID != victim.ID {
		t.Errorf("event = %+v, want set %v at index 1", removed, victim.ID)
	}
}

// TestRemoveLastSetRemovesExercise verifies deleting an exercise's only set
// removes the exercise itself, emitting ExerciseRemoved instead of
// SetRemoved (not undoable).
func TestRemoveLastSetRemovesExercise(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[1] // Lateral Raise has one set

	var events []Event
	e.Subscribe(func(ev Event) { events = append(events, ev) })

	if err := e.RemoveSet(ex.ID, ex.Sets[0].ID); err != nil {
		t.Fatal(err)
	}

	snap, _ = e.Snapshot()
	if len(snap.Exercises) != 1 {
		t.Fatalf("got %d exercises, want 1", len(snap.Exercises))
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if _, ok := events[0].(ExerciseRemoved); !ok {
		t.Errorf("got event %T, want ExerciseRemoved", events[0])
	}
}

// TestRestoreSetClampsIndex verifies restoration reinserts at the original
// index, clamped when the list shrank in the meantime.
func TestRestoreSetClampsIndex(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[0]
	set := models.Set{ID: uuid.New(), Weight: "100", Reps: "8"}

	if err := e.RestoreSet(ex.ID, set, 99); err != nil {
		t.Fatal(err)
	}

	snap, _ = e.Snapshot()
	sets := snap.Exercises[0].Sets
	if sets[len(sets)-1].ID != set.ID {
		t.Error("out-of-range index should append at the end")
	}

	set2 := models.Set{ID: uuid.New(), Weight: "90", Reps: "8"}
	if err := e.RestoreSet(ex.ID, set2, 0); err != nil {
		t.Fatal(err)
	}
	snap, _ = e.Snapshot()
	if snap.Exercises[0].Sets[0].ID != set2.ID {
		t.Error("index 0 should insert at the front")
	}
}

// TestMoveExerciseBoundary verifies moves past either end are no-ops and a
// valid move swaps neighbors.
func TestMoveExerciseBoundary(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	first := snap.Exercises[0].ID
	second := snap.Exercises[1].ID

	if err := e.MoveExercise(first, -1); err != nil {
		t.Fatal(err)
	}
	snap, _ = e.Snapshot()
	if snap.Exercises[0].ID != first {
		t.Error("moving the first exercise up should be a no-op")
	}

	if err := e.MoveExercise(first, 1); err != nil {
		t.Fatal(err)
	}
	snap, _ = e.Snapshot()
	if snap.Exercises[0].ID != second || snap.Exercises[1].ID != first {
		t.Error("moving down should swap with the next exercise")
	}
}

// TestUncompletedWithData verifies only sets with both fields filled and
// not completed are listed.
func TestUncompletedWithData(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[0]

	// Complete one, clear another.
	if err := e.ToggleSetComplete(ex.ID, ex.Sets[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdateSetField(ex.ID, ex.Sets[1].ID, "weight", ""); err != nil {
		t.Fatal(err)
	}

	refs := e.UncompletedWithData()
	// Bench set 3 and the lateral raise set remain.
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2: %+v", len(refs), refs)
	}
}

// TestCompleteAllWithDataNoEvents verifies the bulk completion flags sets
// without firing per-set side effects.
func TestCompleteAllWithDataNoEvents(t *testing.T) {
	e := startBench(t)

	var events int
	e.Subscribe(func(Event) { events++ })

	n := e.CompleteAllWithData()
	if n != 4 {
		t.Errorf("completed %d sets, want 4", n)
	}
	if events != 0 {
		t.Errorf("bulk completion fired %d events, want 0", events)
	}
	if refs := e.UncompletedWithData(); len(refs) != 0 {
		t.Errorf("still %d uncompleted refs after complete-all", len(refs))
	}
}

// TestFinishAggregates verifies duration in whole minutes, completed set
// count, and volume over completed sets only.
func TestFinishAggregates(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := Start(benchTemplate(), nil, start)
	snap, _ := e.Snapshot()
	ex := snap.Exercises[0]

	for _, set := range ex.Sets[:2] {
		if err := e.ToggleSetComplete(ex.ID, set.ID); err != nil {
			t.Fatal(err)
		}
	}

	entry, err := e.Finish(start.Add(45*time.Minute + 30*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if entry.DurationMinutes != 45 {
		t.Errorf("DurationMinutes = %d, want 45", entry.DurationMinutes)
	}
	if entry.CompletedSets != 2 {
		t.Errorf("CompletedSets = %d, want 2", entry.CompletedSets)
	}
	if entry.TotalVolume != 2*135*5 {
		t.Errorf("TotalVolume = %v, want %v", entry.TotalVolume, 2*135*5)
	}

	if e.Active() {
		t.Error("engine should be inactive after finish")
	}
	if _, err := e.Finish(time.Now()); err != ErrNoSession {
		t.Errorf("second finish: got %v, want ErrNoSession", err)
	}
}

// TestFinishEmptySession verifies a session with nothing completed finishes
// with zero aggregates rather than an error.
func TestFinishEmptySession(t *testing.T) {
	e := startBench(t)
	entry, err := e.Finish(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if entry.CompletedSets != 0 || entry.TotalVolume != 0 {
		t.Errorf("got %d sets / %v volume, want zero aggregates", entry.CompletedSets, entry.TotalVolume)
	}
}

// TestSnapshotIsDeepCopy verifies mutating a snapshot does not leak into
// engine state.
func TestSnapshotIsDeepCopy(t *testing.T) {
	e := startBench(t)
	snap, _ := e.Snapshot()
	snap.Exercises[0].Sets[0].Weight = "999"

	again, _ := e.Snapshot()
	if again.Exercises[0].Sets[0].Weight == "999" {
		t.Error("snapshot mutation leaked into engine state")
	}
}
