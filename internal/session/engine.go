package session

import (
	"errors"
	"strings"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNoSession        = errors.New("no active session")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrSetNotFound      = errors.New("set not found")
	ErrUnknownField     = errors.New("unknown set field")
	ErrNothingToUndo    = errors.New("nothing to undo")
)

// Engine owns the active session's exercise tree and is its sole mutator.
// All methods are single-goroutine; the Manager serializes access.
type Engine struct {
	session  *models.Session
	template models.Template
	subs     []func(Event)
}

// Start creates an engine for a new session seeded from a template. Each
// exercise is pre-filled with reps/weights from the most recent history
// entry containing an exercise of the same name, index for index; sets past
// the historical count keep template defaults. history must be ordered
// newest first.
func Start(template models.Template, history []models.HistoryEntry, now time.Time) *Engine {
	session := &models.Session{
		ID:         uuid.New(),
		TemplateID: template.ID,
		Name:       template.Name,
		Emoji:      template.Emoji,
		StartTime:  now,
		Exercises:  make([]models.Exercise, len(template.Exercises)),
	}

	for i, tmplEx := range template.Exercises {
		ex := models.Exercise{ID: uuid.New(), Name: tmplEx.Name, Sets: make([]models.Set, len(tmplEx.Sets))}
		last := lastPerformance(history, tmplEx.Name)
		for j, tmplSet := range tmplEx.Sets {
			set := models.Set{ID: uuid.New(), Reps: tmplSet.Reps, Weight: tmplSet.Weight}
			if j < len(last) {
				set.Reps = last[j].Reps
				set.Weight = last[j].Weight
			}
			ex.Sets[j] = set
		}
		session.Exercises[i] = ex
	}

	return &Engine{session: session, template: template}
}

// lastPerformance finds the sets of the named exercise in the most recent
// history entry that contains it.
func lastPerformance(history []models.HistoryEntry, exerciseName string) []models.Set {
	for _, entry := range history {
		for _, ex := range entry.Exercises {
			if strings.EqualFold(ex.Name, exerciseName) {
				return ex.Sets
			}
		}
	}
	return nil
}

// Subscribe registers an event handler. Handlers run synchronously, in
// registration order, inside the mutating call.
func (e *Engine) Subscribe(fn func(Event)) {
	e.subs = append(e.subs, fn)
}

func (e *Engine) emit(ev Event) {
	for _, fn := range e.subs {
		fn(ev)
	}
}

// Template returns the template snapshot the session was started from.
func (e *Engine) Template() models.Template {
	return e.template
}

// Active reports whether the engine still holds a session.
func (e *Engine) Active() bool {
	return e.session != nil
}

// Snapshot returns a deep copy of the current session state.
func (e *Engine) Snapshot() (models.Session, error) {
	if e.session == nil {
		return models.Session{}, ErrNoSession
	}
	out := *e.session
	out.Exercises = copyExercises(e.session.Exercises)
	return out, nil
}

func copyExercises(src []models.Exercise) []models.Exercise {
	out := make([]models.Exercise, len(src))
	for i, ex := range src {
		out[i] = ex
		out[i].Sets = append([]models.Set(nil), ex.Sets...)
	}
	return out
}

// ToggleSetComplete flips a set's completed flag. Completing requires both
// fields to be non-empty; a toggle that fails that check is dropped without
// error, matching the silent-rejection rule for input validation.
// Completing emits SetCompleted; un-completing has no side effects.
func (e *Engine) ToggleSetComplete(exerciseID, setID uuid.UUID) error {
	ex, set, err := e.locate(exerciseID, setID)
	if err != nil {
		return err
	}

	if set.Completed {
		set.Completed = false
		return nil
	}
	if set.Reps == "" || set.Weight == "" {
		return nil
	}

	set.Completed = true
	e.emit(SetCompleted{
		ExerciseID:   ex.ID,
		SetID:        set.ID,
		ExerciseName: ex.Name,
		Weight:       models.ParseNumber(set.Weight),
		Reps:         int(models.ParseNumber(set.Reps)),
	})
	return nil
}

// UpdateSetField stores sanitized numeric input into a set's reps or weight
// field. Values that would exceed the field limit are rejected outright and
// the field keeps its previous contents.
func (e *Engine) UpdateSetField(exerciseID, setID uuid.UUID, field, rawValue string) error {
	_, set, err := e.locate(exerciseID, setID)
	if err != nil {
		return err
	}

	clean := models.SanitizeNumeric(rawValue)
	switch field {
	case "reps":
		if models.ValidReps(clean) {
			set.Reps = clean
		}
	case "weight":
		if models.ValidWeight(clean) {
			set.Weight = clean
		}
	default:
		return ErrUnknownField
	}
	return nil
}

// SetNote attaches a free-text note to a set.
func (e *Engine) SetNote(exerciseID, setID uuid.UUID, note string) error {
	_, set, err := e.locate(exerciseID, setID)
	if err != nil {
		return err
	}
	set.Notes = note
	return nil
}

// AddSet appends a fresh, uncompleted set to an exercise.
func (e *Engine) AddSet(exerciseID uuid.UUID) error {
	ex, err := e.exercise(exerciseID)
	if err != nil {
		return err
	}
	ex.Sets = append(ex.Sets, models.Set{ID: uuid.New()})
	return nil
}

// AddExercise appends a new exercise with one empty set. The name is
// capitalized per word before storage; duplicate names are the caller's
// concern.
func (e *Engine) AddExercise(name string) (uuid.UUID, error) {
	if e.session == nil {
		return uuid.Nil, ErrNoSession
	}
	ex := models.Exercise{
		ID:   uuid.New(),
		Name: models.CapitalizeWords(name),
		Sets: []models.Set{{ID: uuid.New()}},
	}
	e.session.Exercises = append(e.session.Exercises, ex)
	return ex.ID, nil
}

// RemoveSet deletes a set from an exercise. Deleting the only set removes
// the whole exercise instead (emitting ExerciseRemoved, not undoable);
// otherwise the set leaves the tree immediately and SetRemoved fires so the
// deletion can be registered for undo.
func (e *Engine) RemoveSet(exerciseID, setID uuid.UUID) error {
	ex, err := e.exercise(exerciseID)
	if err != nil {
		return err
	}

	idx := -1
	for i := range ex.Sets {
		if ex.Sets[i].ID == setID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrSetNotFound
	}

	if len(ex.Sets) == 1 {
		return e.RemoveExercise(exerciseID)
	}

	removed := ex.Sets[idx]
	ex.Sets = append(ex.Sets[:idx], ex.Sets[idx+1:]...)
	e.emit(SetRemoved{ExerciseID: ex.ID, Set: removed, Index: idx})
	return nil
}

// RestoreSet reinserts a previously deleted set at its original index,
// clamped to the current list length in case later deletions shifted it.
func (e *Engine) RestoreSet(exerciseID uuid.UUID, set models.Set, index int) error {
	ex, err := e.exercise(exerciseID)
	if err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	if index > len(ex.Sets) {
		index = len(ex.Sets)
	}
	ex.Sets = append(ex.Sets, models.Set{})
	copy(ex.Sets[index+1:], ex.Sets[index:])
	ex.Sets[index] = set
	return nil
}

// RemoveExercise deletes an exercise and all its sets.
func (e *Engine) RemoveExercise(exerciseID uuid.UUID) error {
	if e.session == nil {
		return ErrNoSession
	}
	for i := range e.session.Exercises {
		if e.session.Exercises[i].ID == exerciseID {
			name := e.session.Exercises[i].Name
			e.session.Exercises = append(e.session.Exercises[:i], e.session.Exercises[i+1:]...)
			e.emit(ExerciseRemoved{ExerciseID: exerciseID, Name: name})
			return nil
		}
	}
	return ErrExerciseNotFound
}

// MoveExercise swaps an exercise with its neighbor. direction is -1 (up) or
// +1 (down); moves past either end are no-ops.
func (e *Engine) MoveExercise(exerciseID uuid.UUID, direction int) error {
	if e.session == nil {
		return ErrNoSession
	}
	for i := range e.session.Exercises {
		if e.session.Exercises[i].ID != exerciseID {
			continue
		}
		j := i + direction
		if j < 0 || j >= len(e.session.Exercises) {
			return nil
		}
		e.session.Exercises[i], e.session.Exercises[j] = e.session.Exercises[j], e.session.Exercises[i]
		return nil
	}
	return ErrExerciseNotFound
}

// SetRef identifies a set within the session.
type SetRef struct {
	ExerciseID   uuid.UUID `json:"exercise_id"`
	SetID        uuid.UUID `json:"set_id"`
	ExerciseName string    `json:"exercise_name"`
}

// UncompletedWithData lists sets that have both fields filled in but are
// not marked completed. Finishing is gated behind confirming these.
func (e *Engine) UncompletedWithData() []SetRef {
	if e.session == nil {
		return nil
	}
	var refs []SetRef
	for _, ex := range e.session.Exercises {
		for _, set := range ex.Sets {
			if !set.Completed && set.Reps != "" && set.Weight != "" {
				refs = append(refs, SetRef{ExerciseID: ex.ID, SetID: set.ID, ExerciseName: ex.Name})
			}
		}
	}
	return refs
}

// CompleteAllWithData bulk-flags every uncompleted set with data as
// completed. No per-set side effects fire; this runs right before finish,
// when a rest countdown or celebration would be meaningless.
func (e *Engine) CompleteAllWithData() int {
	if e.session == nil {
		return 0
	}
	n := 0
	for i := range e.session.Exercises {
		for j := range e.session.Exercises[i].Sets {
			set := &e.session.Exercises[i].Sets[j]
			if !set.Completed && set.Reps != "" && set.Weight != "" {
				set.Completed = true
				n++
			}
		}
	}
	return n
}

// Finish converts the session into an immutable history entry and clears
// the engine. Volume sums weight×reps over completed sets; unparseable
// fields contribute zero. An empty session finishes with zero aggregates.
func (e *Engine) Finish(now time.Time) (models.HistoryEntry, error) {
	if e.session == nil {
		return models.HistoryEntry{}, ErrNoSession
	}

	completedSets := 0
	totalVolume := 0.0
	for _, ex := range e.session.Exercises {
		for _, set := range ex.Sets {
			if set.Completed {
				completedSets++
				totalVolume += models.ParseNumber(set.Weight) * models.ParseNumber(set.Reps)
			}
		}
	}

	entry := models.HistoryEntry{
		ID:              uuid.New(),
		TemplateID:      e.session.TemplateID,
		Name:            e.session.Name,
		Emoji:           e.session.Emoji,
		Date:            now,
		DurationMinutes: int(now.Sub(e.session.StartTime) / time.Minute),
		Exercises:       copyExercises(e.session.Exercises),
		CompletedSets:   completedSets,
		TotalVolume:     totalVolume,
	}
	e.session = nil
	return entry, nil
}

// Cancel discards the session without producing a history entry.
func (e *Engine) Cancel() {
	e.session = nil
}

func (e *Engine) exercise(exerciseID uuid.UUID) (*models.Exercise, error) {
	if e.session == nil {
		return nil, ErrNoSession
	}
	ex := e.session.FindExercise(exerciseID)
	if ex == nil {
		return nil, ErrExerciseNotFound
	}
	return ex, nil
}

func (e *Engine) locate(exerciseID, setID uuid.UUID) (*models.Exercise, *models.Set, error) {
	ex, err := e.exercise(exerciseID)
	if err != nil {
		return nil, nil, err
	}
	set := ex.FindSet(setID)
	if set == nil {
		return nil, nil, ErrSetNotFound
	}
	return ex, set, nil
}
