package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

// fakeBackend is an in-memory Backend that can fail writes on demand.
type fakeBackend struct {
	mu        sync.Mutex
	workouts  []models.FeedWorkout
	failLike  bool
	failWrite bool
	loads     int
}

func (b *fakeBackend) ListFriendWorkouts(_ context.Context, _, _ int) ([]models.FeedWorkout, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	out := make([]models.FeedWorkout, len(b.workouts))
	copy(out, b.workouts)
	return out, nil
}

func (b *fakeBackend) Like(_ context.Context, workoutID uuid.UUID, userID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failLike || b.failWrite {
		return errors.New("network down")
	}
	for i := range b.workouts {
		if b.workouts[i].ID == workoutID {
			b.workouts[i].Likes = append(b.workouts[i].Likes, models.Like{UserID: userID})
			b.workouts[i].RecountDerived()
		}
	}
	return nil
}

func (b *fakeBackend) Unlike(_ context.Context, workoutID uuid.UUID, userID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWrite {
		return errors.New("network down")
	}
	for i := range b.workouts {
		if b.workouts[i].ID != workoutID {
			continue
		}
		for j, l := range b.workouts[i].Likes {
			if l.UserID == userID {
				b.workouts[i].Likes = append(b.workouts[i].Likes[:j], b.workouts[i].Likes[j+1:]...)
				break
			}
		}
		b.workouts[i].RecountDerived()
	}
	return nil
}

func (b *fakeBackend) AddComment(_ context.Context, workoutID uuid.UUID, userID int, text string, parentID *uuid.UUID) (uuid.UUID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWrite {
		return uuid.Nil, errors.New("network down")
	}
	authoritative := uuid.New()
	for i := range b.workouts {
		if b.workouts[i].ID != workoutID {
			continue
		}
		comment := models.Comment{ID: authoritative, UserID: userID, Text: text}
		if parentID == nil {
			b.workouts[i].Comments = append(b.workouts[i].Comments, comment)
		} else {
			for j := range b.workouts[i].Comments {
				if b.workouts[i].Comments[j].ID == *parentID {
					b.workouts[i].Comments[j].Replies = append(b.workouts[i].Comments[j].Replies, comment)
				}
			}
		}
		b.workouts[i].RecountDerived()
	}
	return authoritative, nil
}

func (b *fakeBackend) loadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads
}

func sharedWorkout() models.FeedWorkout {
	w := models.FeedWorkout{
		ID:       uuid.New(),
		UserID:   2,
		UserName: "Alice",
		Name:     "Leg Day",
		Date:     time.Now(),
	}
	w.RecountDerived()
	return w
}

func newTestUpdater(t *testing.T, backend *fakeBackend) *Updater {
	t.Helper()
	u := NewUpdater(backend, 1, "Bob", 50, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := u.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return u
}

// TestToggleLikeOptimistic verifies the like lands in the cached feed
// synchronously, before the backend commit is observed.
func TestToggleLikeOptimistic(t *testing.T) {
	w := sharedWorkout()
	backend := &fakeBackend{workouts: []models.FeedWorkout{w}, failLike: false}
	u := newTestUpdater(t, backend)

	if err := u.ToggleLike(w.ID); err != nil {
		t.Fatal(err)
	}

	// Read immediately, without waiting for the commit.
	feed := u.Feed()
	if feed[0].LikeCount != 1 {
		t.Errorf("LikeCount = %d, want 1 immediately after toggle", feed[0].LikeCount)
	}
	if !feed[0].LikedBy(1) {
		t.Error("feed should show the user's own like")
	}

	u.Wait()
	if got := backend.loadCount(); got != 1 {
		t.Errorf("backend loads = %d, want 1 (no reload after successful like)", got)
	}
}

// TestToggleLikeTwiceUnlikes verifies the second toggle removes the like.
func TestToggleLikeTwiceUnlikes(t *testing.T) {
	w := sharedWorkout()
	backend := &fakeBackend{workouts: []models.FeedWorkout{w}}
	u := newTestUpdater(t, backend)

	if err := u.ToggleLike(w.ID); err != nil {
		t.Fatal(err)
	}
	if err := u.ToggleLike(w.ID); err != nil {
		t.Fatal(err)
	}

	feed := u.Feed()
	if feed[0].LikeCount != 0 {
		t.Errorf("LikeCount = %d, want 0 after like+unlike", feed[0].LikeCount)
	}
}

// TestToggleLikeFailureReloads verifies a failed commit discards the
// optimistic state by reloading the authoritative feed.
func TestToggleLikeFailureReloads(t *testing.T) {
	w := sharedWorkout()
	backend := &fakeBackend{workouts: []models.FeedWorkout{w}, failLike: true}
	u := newTestUpdater(t, backend)

	var reloads int
	u.SetMetrics(metricsFunc(func() { reloads++ }))

	if err := u.ToggleLike(w.ID); err != nil {
		t.Fatal(err)
	}
	u.Wait()

	feed := u.Feed()
	if feed[0].LikeCount != 0 {
		t.Errorf("LikeCount = %d, want 0 after failed commit reload", feed[0].LikeCount)
	}
	if reloads != 1 {
		t.Errorf("reloads = %d, want 1", reloads)
	}
}

type metricsFunc func()

func (f metricsFunc) FeedReload() { f() }

// TestToggleLikeUnknownWorkout verifies liking a workout not in the cache
// errors without touching the backend.
func TestToggleLikeUnknownWorkout(t *testing.T) {
	backend := &fakeBackend{}
	u := newTestUpdater(t, backend)

	if err := u.ToggleLike(uuid.New()); err != ErrWorkoutNotInFeed {
		t.Errorf("got %v, want ErrWorkoutNotInFeed", err)
	}
}

// TestAddCommentReconciles verifies the comment appears immediately under a
// temporary ID and is replaced by the authoritative one after the commit.
func TestAddCommentReconciles(t *testing.T) {
	w := sharedWorkout()
	backend := &fakeBackend{workouts: []models.FeedWorkout{w}}
	u := newTestUpdater(t, backend)

	if err := u.AddComment(w.ID, "strong work", nil); err != nil {
		t.Fatal(err)
	}

	feed := u.Feed()
	if feed[0].CommentCount != 1 {
		t.Fatalf("CommentCount = %d, want 1 immediately", feed[0].CommentCount)
	}
	tempID := feed[0].Comments[0].ID

	u.Wait()
	feed = u.Feed()
	if feed[0].CommentCount != 1 {
		t.Fatalf("CommentCount = %d, want 1 after reconciliation", feed[0].CommentCount)
	}
	if feed[0].Comments[0].ID == tempID {
		t.Error("comment should carry the authoritative ID after reload")
	}
}

// TestAddReply verifies replies attach under their parent and count toward
// the comment total.
func TestAddReply(t *testing.T) {
	w := sharedWorkout()
	parent := models.Comment{ID: uuid.New(), UserID: 2, Text: "nice"}
	w.Comments = []models.Comment{parent}
	w.RecountDerived()
	backend := &fakeBackend{workouts: []models.FeedWorkout{w}}
	u := newTestUpdater(t, backend)

	if err := u.AddComment(w.ID, "thanks!", &parent.ID); err != nil {
		t.Fatal(err)
	}

	feed := u.Feed()
	if len(feed[0].Comments[0].Replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(feed[0].Comments[0].Replies))
	}
	if feed[0].CommentCount != 2 {
		t.Errorf("CommentCount = %d, want 2 (parent + reply)", feed[0].CommentCount)
	}
}

// TestAddReplyUnknownParent verifies replying to a missing comment errors.
func TestAddReplyUnknownParent(t *testing.T) {
	w := sharedWorkout()
	backend := &fakeBackend{workouts: []models.FeedWorkout{w}}
	u := newTestUpdater(t, backend)

	missing := uuid.New()
	if err := u.AddComment(w.ID, "hello?", &missing); err != ErrCommentNotFound {
		t.Errorf("got %v, want ErrCommentNotFound", err)
	}
}

// TestFeedIsDeepCopy verifies mutating a returned feed does not leak into
// the cache.
func TestFeedIsDeepCopy(t *testing.T) {
	w := sharedWorkout()
	backend := &fakeBackend{workouts: []models.FeedWorkout{w}}
	u := newTestUpdater(t, backend)

	feed := u.Feed()
	feed[0].Likes = append(feed[0].Likes, models.Like{UserID: 99})

	if u.Feed()[0].LikeCount != 0 || len(u.Feed()[0].Likes) != 0 {
		t.Error("mutation of the returned slice leaked into the cache")
	}
}
