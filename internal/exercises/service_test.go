package exercises

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeRemote struct {
	names []string
	err   error
	calls int
}

func (f *fakeRemote) Search(_ context.Context, _ string, _ int) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.names, nil
}

type fakeCustom struct {
	names []string
}

func (f *fakeCustom) CustomExerciseNames(_ context.Context, _ int, _ string, _ int) ([]string, error) {
	return f.names, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSearchSplitsSources verifies custom names and catalog names come back
// in their own lists.
func TestSearchSplitsSources(t *testing.T) {
	remote := &fakeRemote{names: []string{"Bench Press", "Incline Bench Press"}}
	svc := NewService(remote, nil, &fakeCustom{names: []string{"Bench (paused)"}}, 1, 60, testLogger())

	res, err := svc.Search(context.Background(), 1, "bench")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Custom) != 1 || res.Custom[0] != "Bench (paused)" {
		t.Errorf("got custom %v, want [Bench (paused)]", res.Custom)
	}
	if len(res.Database) != 2 {
		t.Errorf("got %d catalog names, want 2", len(res.Database))
	}
}

// TestSearchCachesCatalog verifies a repeated query is served from the cache
// without hitting the remote again.
func TestSearchCachesCatalog(t *testing.T) {
	remote := &fakeRemote{names: []string{"Squat"}}
	svc := NewService(remote, nil, &fakeCustom{}, 1, 60, testLogger())

	for range 3 {
		if _, err := svc.Search(context.Background(), 1, "squat"); err != nil {
			t.Fatal(err)
		}
	}
	if remote.calls != 1 {
		t.Errorf("remote called %d times, want 1 (cache should absorb repeats)", remote.calls)
	}
}

// TestSearchFallsBackToLocal verifies a remote failure degrades to the
// bundled catalog instead of erroring.
func TestSearchFallsBackToLocal(t *testing.T) {
	local, err := OpenLocalCatalog(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer local.Close()

	remote := &fakeRemote{err: errors.New("connection refused")}
	svc := NewService(remote, local, &fakeCustom{}, 0, 60, testLogger())

	res, err := svc.Search(context.Background(), 1, "deadlift")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Database) == 0 {
		t.Error("local fallback should return deadlift variants")
	}
}

// TestLocalCatalogSearch verifies substring matching is case-insensitive
// and seeding is idempotent across reopens.
func TestLocalCatalogSearch(t *testing.T) {
	dir := t.TempDir()
	local, err := OpenLocalCatalog(dir)
	if err != nil {
		t.Fatal(err)
	}

	names, err := local.Search(context.Background(), "CURL", 25)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) == 0 {
		t.Fatal("expected curl variants from the builtin list")
	}
	before := len(names)
	local.Close()

	reopened, err := OpenLocalCatalog(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	names, err = reopened.Search(context.Background(), "CURL", 25)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != before {
		t.Errorf("got %d names after reopen, want %d (seeding must not duplicate)", len(names), before)
	}
}
