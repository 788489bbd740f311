package session

import (
	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

// Event is a side-effect notification emitted by the engine. Subscribers
// (record detection, rest timer, undo registration) react to events rather
// than being called inline, so each stays testable on its own.
type Event interface {
	isEvent()
}

// SetCompleted fires when a set transitions from unfinished to completed.
// Weight and Reps carry the parsed field values; zero means unparseable.
type SetCompleted struct {
	ExerciseID   uuid.UUID
	SetID        uuid.UUID
	ExerciseName string
	Weight       float64
	Reps         int
}

// SetRemoved fires when a non-last set is deleted from an exercise. Index
// is the position the set held, needed to restore original ordering on undo.
type SetRemoved struct {
	ExerciseID uuid.UUID
	Set        models.Set
	Index      int
}

// ExerciseRemoved fires when an exercise leaves the session, either
// explicitly or because its last set was deleted.
type ExerciseRemoved struct {
	ExerciseID uuid.UUID
	Name       string
}

func (SetCompleted) isEvent()    {}
func (SetRemoved) isEvent()      {}
func (ExerciseRemoved) isEvent() {}
