package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

// Backend is the authoritative social store. *storage.DB implements it.
type Backend interface {
	ListFriendWorkouts(ctx context.Context, userID, limit int) ([]models.FeedWorkout, error)
	Like(ctx context.Context, workoutID uuid.UUID, userID int) error
	Unlike(ctx context.Context, workoutID uuid.UUID, userID int) error
	AddComment(ctx context.Context, workoutID uuid.UUID, userID int, text string, parentID *uuid.UUID) (uuid.UUID, error)
}

// Metrics counts reconciliation reloads. Optional.
type Metrics interface {
	FeedReload()
}

// Updater keeps a per-user cached copy of the friend feed and applies
// interactions optimistically: the cache mutates synchronously, the backend
// commit runs in the background, and any failure throws the optimistic
// state away by reloading the whole feed. No compensating transform is
// attempted — a full reload always wins, and the last reload to complete
// wins when interactions race.
type Updater struct {
	backend Backend
	metrics Metrics
	log     *slog.Logger
	userID  int
	name    string
	limit   int
	now     func() time.Time

	mu     sync.Mutex
	cached []models.FeedWorkout

	commits sync.WaitGroup
}

// NewUpdater creates an updater for one user's feed view.
func NewUpdater(backend Backend, userID int, userName string, limit int, log *slog.Logger) *Updater {
	if limit <= 0 {
		limit = 50
	}
	return &Updater{
		backend: backend,
		log:     log,
		userID:  userID,
		name:    userName,
		limit:   limit,
		now:     time.Now,
	}
}

// SetMetrics wires reload counters.
func (u *Updater) SetMetrics(m Metrics) { u.metrics = m }

// SetNow overrides the timestamp source. Tests only.
func (u *Updater) SetNow(now func() time.Time) { u.now = now }

// Load replaces the cache with the authoritative feed.
func (u *Updater) Load(ctx context.Context) error {
	workouts, err := u.backend.ListFriendWorkouts(ctx, u.userID, u.limit)
	if err != nil {
		return fmt.Errorf("loading feed: %w", err)
	}
	u.mu.Lock()
	u.cached = workouts
	u.mu.Unlock()
	return nil
}

// Feed returns a copy of the cached feed.
func (u *Updater) Feed() []models.FeedWorkout {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]models.FeedWorkout, len(u.cached))
	for i, w := range u.cached {
		out[i] = w
		out[i].Likes = append([]models.Like(nil), w.Likes...)
		out[i].Comments = copyComments(w.Comments)
	}
	return out
}

func copyComments(src []models.Comment) []models.Comment {
	out := make([]models.Comment, len(src))
	for i, c := range src {
		out[i] = c
		out[i].Replies = append([]models.Comment(nil), c.Replies...)
	}
	return out
}

// ToggleLike flips the user's like on a workout in the cache, then commits
// the change in the background. The like counts update before any network
// response is observed; a successful like needs no refetch since the
// optimistic state already matches.
func (u *Updater) ToggleLike(workoutID uuid.UUID) error {
	u.mu.Lock()
	w := u.find(workoutID)
	if w == nil {
		u.mu.Unlock()
		return ErrWorkoutNotInFeed
	}

	liked := w.LikedBy(u.userID)
	if liked {
		for i, l := range w.Likes {
			if l.UserID == u.userID {
				w.Likes = append(w.Likes[:i], w.Likes[i+1:]...)
				break
			}
		}
	} else {
		w.Likes = append(w.Likes, models.Like{UserID: u.userID, UserName: u.name, Timestamp: u.now()})
	}
	w.RecountDerived()
	u.mu.Unlock()

	u.commit(func(ctx context.Context) error {
		if liked {
			return u.backend.Unlike(ctx, workoutID, u.userID)
		}
		return u.backend.Like(ctx, workoutID, u.userID)
	}, false)
	return nil
}

// AddComment appends a comment (or a reply, when parentID is set) under a
// temporary identifier, then commits. On success the feed is refetched so
// the temporary identifier is replaced by the authoritative one.
func (u *Updater) AddComment(workoutID uuid.UUID, text string, parentID *uuid.UUID) error {
	u.mu.Lock()
	w := u.find(workoutID)
	if w == nil {
		u.mu.Unlock()
		return ErrWorkoutNotInFeed
	}

	comment := models.Comment{
		ID:        uuid.New(), // temporary until reconciliation
		UserID:    u.userID,
		UserName:  u.name,
		Text:      text,
		Timestamp: u.now(),
	}
	if parentID == nil {
		w.Comments = append(w.Comments, comment)
	} else {
		attached := false
		for i := range w.Comments {
			if w.Comments[i].ID == *parentID {
				w.Comments[i].Replies = append(w.Comments[i].Replies, comment)
				attached = true
				break
			}
		}
		if !attached {
			u.mu.Unlock()
			return ErrCommentNotFound
		}
	}
	w.RecountDerived()
	u.mu.Unlock()

	u.commit(func(ctx context.Context) error {
		_, err := u.backend.AddComment(ctx, workoutID, u.userID, text, parentID)
		return err
	}, true)
	return nil
}

// commit runs the backend write in the background. reloadOnSuccess swaps in
// authoritative IDs after comment writes; every failure reloads the feed,
// discarding whatever optimistic state is in the cache.
func (u *Updater) commit(write func(context.Context) error, reloadOnSuccess bool) {
	u.commits.Add(1)
	go func() {
		defer u.commits.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := write(ctx)
		if err != nil {
			u.log.Warn("feed commit failed, reloading", "user_id", u.userID, "error", err)
		}
		if err != nil || reloadOnSuccess {
			u.reload(ctx)
		}
	}()
}

func (u *Updater) reload(ctx context.Context) {
	if u.metrics != nil {
		u.metrics.FeedReload()
	}
	if err := u.Load(ctx); err != nil {
		u.log.Warn("feed reload failed", "user_id", u.userID, "error", err)
	}
}

// Wait blocks until in-flight commits settle. Tests and shutdown only.
func (u *Updater) Wait() { u.commits.Wait() }

// find returns the cached workout, or nil. Caller holds u.mu.
func (u *Updater) find(workoutID uuid.UUID) *models.FeedWorkout {
	for i := range u.cached {
		if u.cached[i].ID == workoutID {
			return &u.cached[i]
		}
	}
	return nil
}
