package importer

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func sampleWorkout() ExportWorkout {
	return ExportWorkout{
		Name:            "Push Day",
		Emoji:           "💪",
		Date:            time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC),
		DurationMinutes: 52,
		Exercises: []ExportExercise{
			{Name: "bench press", Sets: []ExportSet{
				{Weight: 135, Reps: 5},
				{Weight: 155, Reps: 3},
			}},
			{Name: "push-up", Sets: []ExportSet{
				{Weight: 0, Reps: 20},
			}},
		},
	}
}

// TestConvert verifies an exported workout maps onto a history entry with
// derived totals and normalized names.
func TestConvert(t *testing.T) {
	entry := Convert(sampleWorkout())

	if entry.Name != "Push Day" || entry.DurationMinutes != 52 {
		t.Errorf("got %q %d min, want Push Day 52 min", entry.Name, entry.DurationMinutes)
	}
	if entry.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("converted entry should get a fresh ID")
	}
	if entry.Exercises[0].Name != "Bench Press" {
		t.Errorf("got exercise name %q, want Bench Press", entry.Exercises[0].Name)
	}
	if entry.CompletedSets != 3 {
		t.Errorf("got %d completed sets, want 3", entry.CompletedSets)
	}
	// 135*5 + 155*3 + 0*20
	if entry.TotalVolume != 1140 {
		t.Errorf("got volume %v, want 1140", entry.TotalVolume)
	}
	set := entry.Exercises[0].Sets[0]
	if set.Weight != "135" || set.Reps != "5" || !set.Completed {
		t.Errorf("got set %+v, want 135x5 completed", set)
	}
	if bw := entry.Exercises[1].Sets[0]; bw.Weight != "" {
		t.Errorf("got weight %q for bodyweight set, want empty", bw.Weight)
	}
}

// TestFingerprintStable verifies the same content always hashes the same and
// that any structural change produces a different fingerprint.
func TestFingerprintStable(t *testing.T) {
	w := sampleWorkout()
	if Fingerprint(w) != Fingerprint(sampleWorkout()) {
		t.Error("identical workouts should share a fingerprint")
	}

	renamed := sampleWorkout()
	renamed.Name = "Pull Day"
	if Fingerprint(renamed) == Fingerprint(w) {
		t.Error("renamed workout should change the fingerprint")
	}

	heavier := sampleWorkout()
	heavier.Exercises[0].Sets[0].Weight = 140
	if Fingerprint(heavier) == Fingerprint(w) {
		t.Error("changed set weight should change the fingerprint")
	}
}

// TestStateDBRoundTrip verifies marking and checking fingerprints, including
// across a close/reopen of the state file.
func TestStateDBRoundTrip(t *testing.T) {
	dir := t.TempDir()
	state, err := OpenStateDB(dir)
	if err != nil {
		t.Fatal(err)
	}

	fp := Fingerprint(sampleWorkout())
	if done, err := state.IsImported(fp); err != nil || done {
		t.Fatalf("fresh state: done=%v err=%v, want false nil", done, err)
	}
	if err := state.MarkImported(fp, "Push Day", "2026-03-14"); err != nil {
		t.Fatal(err)
	}
	if done, _ := state.IsImported(fp); !done {
		t.Error("fingerprint should be recorded after MarkImported")
	}
	if err := state.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenStateDB(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if done, _ := reopened.IsImported(fp); !done {
		t.Error("state should survive reopening the database")
	}
}

// TestRunDryRun verifies a dry run counts workouts without recording state,
// so the real run still sends everything.
func TestRunDryRun(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	export := &Export{Workouts: []ExportWorkout{sampleWorkout()}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	res, err := Run(export, state, nil, true, log)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Sent != 1 || res.Skipped != 0 || res.Failed != 0 {
		t.Errorf("got %+v, want total=1 sent=1", res)
	}

	if done, _ := state.IsImported(Fingerprint(sampleWorkout())); done {
		t.Error("dry run must not record import state")
	}
}

// TestRunSkipsImported verifies fingerprints already in the state DB are
// skipped without contacting the server.
func TestRunSkipsImported(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	w := sampleWorkout()
	if err := state.MarkImported(Fingerprint(w), w.Name, "2026-03-14"); err != nil {
		t.Fatal(err)
	}

	export := &Export{Workouts: []ExportWorkout{w}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	// A nil client proves the skip path never sends.
	res, err := Run(export, state, nil, false, log)
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 1 || res.Sent != 0 {
		t.Errorf("got %+v, want skipped=1 sent=0", res)
	}
}
