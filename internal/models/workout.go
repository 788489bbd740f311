package models

import (
	"time"

	"github.com/google/uuid"
)

// Set is a single set within an exercise. Reps and Weight are kept as the
// raw editable strings the client typed, sanitized on every edit — they are
// parsed into numbers only when computing volume or records.
type Set struct {
	ID        uuid.UUID `json:"id"`
	Reps      string    `json:"reps"`
	Weight    string    `json:"weight"`
	Completed bool      `json:"completed"`
	Notes     string    `json:"notes,omitempty"`
}

// Exercise is an ordered list of sets under a display name. Order is
// significant: it drives reordering and guided input.
type Exercise struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Sets []Set     `json:"sets"`
}

// Template is the reusable skeleton a session is started from. It is an
// immutable snapshot: sessions mutate their own copy, never the template.
type Template struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Emoji     string     `json:"emoji"`
	Category  string     `json:"category,omitempty"`
	Exercises []Exercise `json:"exercises"`
}

// Session is an in-progress workout: a mutable copy of a template's
// exercise tree plus the start timestamp.
type Session struct {
	ID         uuid.UUID  `json:"id"`
	TemplateID uuid.UUID  `json:"template_id"`
	Name       string     `json:"name"`
	Emoji      string     `json:"emoji"`
	Exercises  []Exercise `json:"exercises"`
	StartTime  time.Time  `json:"start_time"`
}

// HistoryEntry is an immutable record of a finished session.
type HistoryEntry struct {
	ID              uuid.UUID  `json:"id"`
	TemplateID      uuid.UUID  `json:"template_id"`
	Name            string     `json:"name"`
	Emoji           string     `json:"emoji"`
	Date            time.Time  `json:"date"`
	DurationMinutes int        `json:"duration_minutes"`
	Exercises       []Exercise `json:"exercises"`
	CompletedSets   int        `json:"completed_sets"`
	TotalVolume     float64    `json:"total_volume"`
}

// PersonalRecord is the best recorded set for an exercise name. One record
// per name (case-insensitive); a better estimate replaces it wholesale.
type PersonalRecord struct {
	ExerciseName      string    `json:"exercise_name"`
	Weight            float64   `json:"weight"`
	Reps              int       `json:"reps"`
	Date              time.Time `json:"date"`
	WorkoutID         uuid.UUID `json:"workout_id"`
	EstimatedOneRepMax float64  `json:"estimated_one_rep_max"`
}

// FindExercise returns the exercise with the given ID, or nil.
func (s *Session) FindExercise(exerciseID uuid.UUID) *Exercise {
	for i := range s.Exercises {
		if s.Exercises[i].ID == exerciseID {
			return &s.Exercises[i]
		}
	}
	return nil
}

// FindSet returns the set with the given ID within an exercise, or nil.
func (e *Exercise) FindSet(setID uuid.UUID) *Set {
	for i := range e.Sets {
		if e.Sets[i].ID == setID {
			return &e.Sets[i]
		}
	}
	return nil
}
