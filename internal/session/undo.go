package session

import (
	"sync"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

// DefaultUndoWindow is how long a deleted set can be brought back.
const DefaultUndoWindow = 4 * time.Second

// UndoEntry is a deleted set held for possible restoration.
type UndoEntry struct {
	ExerciseID uuid.UUID  `json:"exercise_id"`
	Set        models.Set `json:"set"`
	Index      int        `json:"index"`
}

// scheduleFunc arms a one-shot callback after d and returns its cancel
// function. The default uses time.AfterFunc; tests inject their own.
type scheduleFunc func(d time.Duration, fn func()) (cancel func())

// UndoBuffer holds at most one pending set deletion with an auto-commit
// deadline. Registering a new deletion permanently commits the previous
// one — this is a single slot, not an undo stack.
type UndoBuffer struct {
	mu       sync.Mutex
	window   time.Duration
	schedule scheduleFunc

	pending *UndoEntry
	cancel  func()
}

// NewUndoBuffer creates a buffer with the given auto-commit window.
func NewUndoBuffer(window time.Duration) *UndoBuffer {
	return &UndoBuffer{
		window: window,
		schedule: func(d time.Duration, fn func()) func() {
			t := time.AfterFunc(d, fn)
			return func() { t.Stop() }
		},
	}
}

// RegisterDeletion stores a freshly deleted set and arms its auto-commit
// timer. Any previously pending deletion is committed immediately and
// cannot be brought back. onExpire runs if the window lapses unused.
func (b *UndoBuffer) RegisterDeletion(exerciseID uuid.UUID, set models.Set, index int, onExpire func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}

	entry := &UndoEntry{ExerciseID: exerciseID, Set: set, Index: index}
	b.pending = entry
	b.cancel = b.schedule(b.window, func() {
		b.mu.Lock()
		expired := b.pending == entry
		if expired {
			b.pending = nil
			b.cancel = nil
		}
		b.mu.Unlock()
		if expired && onExpire != nil {
			onExpire()
		}
	})
}

// Undo takes the pending deletion out of the buffer, canceling its
// auto-commit. It returns false if nothing is pending (the window lapsed or
// a later deletion superseded the entry).
func (b *UndoBuffer) Undo() (UndoEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == nil {
		return UndoEntry{}, false
	}
	entry := *b.pending
	b.cancel()
	b.pending = nil
	b.cancel = nil
	return entry, true
}

// Pending returns the entry awaiting auto-commit, if any.
func (b *UndoBuffer) Pending() (UndoEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return UndoEntry{}, false
	}
	return *b.pending, true
}

// Clear drops any pending deletion and its timer. Used on session teardown
// so no auto-commit callback outlives the session.
func (b *UndoBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
	b.pending = nil
	b.cancel = nil
}
