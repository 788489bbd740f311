package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

// HistoryStore loads and appends finished workouts, newest first.
type HistoryStore interface {
	LoadHistory(ctx context.Context, userID int) ([]models.HistoryEntry, error)
	AppendHistory(ctx context.Context, userID int, entry models.HistoryEntry) error
}

// RecordStore persists personal records with replace-by-name semantics.
type RecordStore interface {
	LoadRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error)
	SaveRecord(ctx context.Context, userID int, record models.PersonalRecord) error
}

// TemplateStore saves templates (used when the user overwrites a drifted
// template on finish).
type TemplateStore interface {
	SaveTemplate(ctx context.Context, userID int, template models.Template) error
}

// Analyzer produces a coach write-up for a finished session. Best effort:
// failures are logged and never block completion.
type Analyzer interface {
	Analyze(ctx context.Context, summary string) (string, error)
}

// PhotoUploader pushes a local workout photo to remote storage. Best effort.
type PhotoUploader interface {
	Upload(ctx context.Context, userID int, workoutID uuid.UUID, localPath string) (string, error)
}

// Sharer publishes a finished workout to the social feed. Best effort.
type Sharer interface {
	ShareWorkout(ctx context.Context, userID int, entry models.HistoryEntry, photoURL string) error
}

// Metrics receives engine lifecycle counters. The server wires Prometheus
// here; the zero value of noopMetrics is used when nothing is configured.
type Metrics interface {
	SessionStarted()
	SessionFinished()
	SessionCanceled()
	RecordBroken()
	RestStarted()
}

type noopMetrics struct{}

func (noopMetrics) SessionStarted()  {}
func (noopMetrics) SessionFinished() {}
func (noopMetrics) SessionCanceled() {}
func (noopMetrics) RecordBroken()    {}
func (noopMetrics) RestStarted()     {}

// Config tunes per-session behavior.
type Config struct {
	// RestDefault is the fallback rest duration in seconds for exercises
	// that match no classification category.
	RestDefault int
	// RestEnabled is the initial per-user rest timer preference.
	RestEnabled bool
	// UndoWindow is how long a deleted set can be restored.
	UndoWindow time.Duration
}

// Manager hosts at most one active session per user and orchestrates the
// engine's side effects: record detection, the rest timer, the session
// clock and the undo buffer. It is the only component that mutates session
// state, serialized under one mutex so rapid intents apply in order.
type Manager struct {
	history   HistoryStore
	records   RecordStore
	templates TemplateStore
	analyzer  Analyzer
	photos    PhotoUploader
	sharer    Sharer
	metrics   Metrics
	cfg       Config
	log       *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[int]*userSession

	background sync.WaitGroup
}

type userSession struct {
	engine *Engine
	clock  Clock
	rest   RestTimer
	undo   *UndoBuffer

	clockRunner Runner
	restRunner  Runner

	celebrations []Celebration
	records      map[string]models.PersonalRecord
	restEnabled  bool

	// restCompleted is a one-shot flag set when the countdown finishes,
	// drained by the next State read. Display dismissal is client policy.
	restCompleted bool
}

// NewManager creates a session manager. analyzer, photos, sharer and
// templates may be nil; the corresponding finish steps are skipped.
func NewManager(history HistoryStore, records RecordStore, templates TemplateStore, cfg Config, log *slog.Logger) *Manager {
	if cfg.RestDefault <= 0 {
		cfg.RestDefault = 90
	}
	if cfg.UndoWindow <= 0 {
		cfg.UndoWindow = DefaultUndoWindow
	}
	return &Manager{
		history:   history,
		records:   records,
		templates: templates,
		metrics:   noopMetrics{},
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		sessions:  make(map[int]*userSession),
	}
}

// SetAnalyzer wires the AI coach used after finish.
func (m *Manager) SetAnalyzer(a Analyzer) { m.analyzer = a }

// SetPhotoUploader wires the workout photo uploader.
func (m *Manager) SetPhotoUploader(p PhotoUploader) { m.photos = p }

// SetSharer wires the social feed share step.
func (m *Manager) SetSharer(s Sharer) { m.sharer = s }

// SetMetrics wires lifecycle counters.
func (m *Manager) SetMetrics(metrics Metrics) { m.metrics = metrics }

// SetNow overrides the clock source. Tests only.
func (m *Manager) SetNow(now func() time.Time) { m.now = now }

// StartSession begins a workout from a template, replacing any session the
// user already has running (its timers are stopped first).
func (m *Manager) StartSession(ctx context.Context, userID int, template models.Template) (State, error) {
	history, err := m.history.LoadHistory(ctx, userID)
	if err != nil {
		return State{}, fmt.Errorf("loading history: %w", err)
	}
	recordList, err := m.records.LoadRecords(ctx, userID)
	if err != nil {
		return State{}, fmt.Errorf("loading records: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.sessions[userID]; ok {
		m.teardownLocked(prev)
		delete(m.sessions, userID)
	}

	us := &userSession{
		engine:      Start(template, history, m.now()),
		undo:        NewUndoBuffer(m.cfg.UndoWindow),
		restEnabled: m.cfg.RestEnabled,
		records:     make(map[string]models.PersonalRecord, len(recordList)),
	}
	us.clock.StartTime = m.now()
	for _, r := range recordList {
		us.records[strings.ToLower(r.ExerciseName)] = r
	}

	us.engine.Subscribe(func(ev Event) {
		switch ev := ev.(type) {
		case SetCompleted:
			m.onSetCompleted(userID, us, ev)
		case SetRemoved:
			us.undo.RegisterDeletion(ev.ExerciseID, ev.Set, ev.Index, func() {
				m.log.Debug("undo window expired", "user_id", userID, "set_id", ev.Set.ID)
			})
		}
	})

	us.clockRunner.Start(func() { m.tickClock(userID) })

	m.sessions[userID] = us
	m.metrics.SessionStarted()
	m.log.Info("session started", "user_id", userID, "template", template.Name)
	return m.stateLocked(us), nil
}

// onSetCompleted runs the record check and rest timer side effects of a
// completed set. Called with m.mu held, from inside the engine mutation.
func (m *Manager) onSetCompleted(userID int, us *userSession, ev SetCompleted) {
	if ev.Weight > 0 && ev.Reps > 0 {
		var existing *models.PersonalRecord
		if r, ok := us.records[strings.ToLower(ev.ExerciseName)]; ok {
			existing = &r
		}
		if c := CheckForRecord(ev.ExerciseName, ev.Weight, ev.Reps, existing); c != nil {
			us.celebrations = append(us.celebrations, *c)
			record := RecordFromCelebration(c, us.engine.session.ID, m.now())
			us.records[strings.ToLower(ev.ExerciseName)] = record
			m.metrics.RecordBroken()
			m.persistRecord(userID, record)
		}
	}

	if us.restEnabled {
		duration := DefaultRestDuration(ev.ExerciseName, m.cfg.RestDefault)
		us.rest.Start(ev.ExerciseName, duration)
		us.restCompleted = false
		us.restRunner.Start(func() { m.tickRest(userID) })
		m.metrics.RestStarted()
	}
}

// persistRecord writes a record in the background. A failed write is a
// warning, not an error: the in-memory record stands for this session.
func (m *Manager) persistRecord(userID int, record models.PersonalRecord) {
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.records.SaveRecord(ctx, userID, record); err != nil {
			m.log.Warn("record save failed", "user_id", userID, "exercise", record.ExerciseName, "error", err)
		}
	}()
}

func (m *Manager) tickClock(userID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if us, ok := m.sessions[userID]; ok {
		us.clock.Tick()
	}
}

func (m *Manager) tickRest(userID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	us, ok := m.sessions[userID]
	if !ok {
		return
	}
	if us.rest.Tick() {
		us.restCompleted = true
		us.restRunner.Stop()
	}
}

// State is the session view handed to the API layer.
type State struct {
	Session        models.Session `json:"session"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	Rest           RestTimer      `json:"rest"`
	RestCompleted  bool           `json:"rest_completed"`
	RestEnabled    bool           `json:"rest_enabled"`
	Celebrations   []Celebration  `json:"celebrations"`
	PendingUndo    *UndoEntry     `json:"pending_undo,omitempty"`
}

// SessionState returns a snapshot of the user's active session. The
// rest-completed flag is one-shot and is cleared by this read.
func (m *Manager) SessionState(userID int) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	us, ok := m.sessions[userID]
	if !ok {
		return State{}, ErrNoSession
	}
	state := m.stateLocked(us)
	us.restCompleted = false
	return state, nil
}

func (m *Manager) stateLocked(us *userSession) State {
	snapshot, _ := us.engine.Snapshot()
	state := State{
		Session:        snapshot,
		ElapsedSeconds: us.clock.ElapsedSeconds,
		Rest:           us.rest,
		RestCompleted:  us.restCompleted,
		RestEnabled:    us.restEnabled,
		Celebrations:   append([]Celebration(nil), us.celebrations...),
	}
	if entry, ok := us.undo.Pending(); ok {
		state.PendingUndo = &entry
	}
	return state
}

// mutate runs fn against the user's engine under the manager lock.
func (m *Manager) mutate(userID int, fn func(*userSession) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	us, ok := m.sessions[userID]
	if !ok {
		return ErrNoSession
	}
	return fn(us)
}

// ToggleSetComplete flips a set's completion state, firing record and rest
// timer side effects on completion.
func (m *Manager) ToggleSetComplete(userID int, exerciseID, setID uuid.UUID) error {
	return m.mutate(userID, func(us *userSession) error {
		return us.engine.ToggleSetComplete(exerciseID, setID)
	})
}

// UpdateSetField stores sanitized reps/weight input.
func (m *Manager) UpdateSetField(userID int, exerciseID, setID uuid.UUID, field, value string) error {
	return m.mutate(userID, func(us *userSession) error {
		return us.engine.UpdateSetField(exerciseID, setID, field, value)
	})
}

// SetNote attaches a note to a set.
func (m *Manager) SetNote(userID int, exerciseID, setID uuid.UUID, note string) error {
	return m.mutate(userID, func(us *userSession) error {
		return us.engine.SetNote(exerciseID, setID, note)
	})
}

// AddSet appends a fresh set to an exercise.
func (m *Manager) AddSet(userID int, exerciseID uuid.UUID) error {
	return m.mutate(userID, func(us *userSession) error {
		return us.engine.AddSet(exerciseID)
	})
}

// AddExercise appends a custom exercise to the session.
func (m *Manager) AddExercise(userID int, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := m.mutate(userID, func(us *userSession) error {
		var err error
		id, err = us.engine.AddExercise(name)
		return err
	})
	return id, err
}

// RemoveSet deletes a set (or its whole exercise, if it was the last set).
func (m *Manager) RemoveSet(userID int, exerciseID, setID uuid.UUID) error {
	return m.mutate(userID, func(us *userSession) error {
		return us.engine.RemoveSet(exerciseID, setID)
	})
}

// RemoveExercise deletes an exercise and its sets. Not undoable.
func (m *Manager) RemoveExercise(userID int, exerciseID uuid.UUID) error {
	return m.mutate(userID, func(us *userSession) error {
		us.undo.Clear()
		return us.engine.RemoveExercise(exerciseID)
	})
}

// MoveExercise swaps an exercise with its neighbor.
func (m *Manager) MoveExercise(userID int, exerciseID uuid.UUID, direction int) error {
	return m.mutate(userID, func(us *userSession) error {
		return us.engine.MoveExercise(exerciseID, direction)
	})
}

// Undo restores the pending deleted set at its original position. Returns
// ErrNothingToUndo after the window lapsed or a later deletion superseded it.
func (m *Manager) Undo(userID int) error {
	return m.mutate(userID, func(us *userSession) error {
		entry, ok := us.undo.Undo()
		if !ok {
			return ErrNothingToUndo
		}
		return us.engine.RestoreSet(entry.ExerciseID, entry.Set, entry.Index)
	})
}

// UncompletedWithData lists filled-in but unfinished sets, for the finish
// confirmation dialog.
func (m *Manager) UncompletedWithData(userID int) ([]SetRef, error) {
	var refs []SetRef
	err := m.mutate(userID, func(us *userSession) error {
		refs = us.engine.UncompletedWithData()
		return nil
	})
	return refs, err
}

// AdjustRest shifts the rest countdown by delta seconds.
func (m *Manager) AdjustRest(userID int, deltaSeconds int) error {
	return m.mutate(userID, func(us *userSession) error {
		if us.rest.Adjust(deltaSeconds) {
			us.restCompleted = true
			us.restRunner.Stop()
		}
		return nil
	})
}

// SkipRest stops the countdown without a completion notification.
func (m *Manager) SkipRest(userID int) error {
	return m.mutate(userID, func(us *userSession) error {
		us.rest.Skip()
		us.restRunner.Stop()
		return nil
	})
}

// SetRestEnabled flips the user's rest timer preference for this session.
func (m *Manager) SetRestEnabled(userID int, enabled bool) error {
	return m.mutate(userID, func(us *userSession) error {
		us.restEnabled = enabled
		if !enabled {
			us.rest.Skip()
			us.restRunner.Stop()
		}
		return nil
	})
}

// FinishOptions carries the user's choices from the finish dialog.
type FinishOptions struct {
	// CompleteAll flags every filled-in set as completed first
	// ("complete and finish" over the confirmation dialog).
	CompleteAll bool
	// OverwriteTemplate replaces the originating template with the
	// session's structure when drift was detected.
	OverwriteTemplate bool
	// PhotoPath is a local photo to upload and attach to the share.
	PhotoPath string
}

// FinishResult is what the client shows on the summary screen.
type FinishResult struct {
	Entry   models.HistoryEntry `json:"entry"`
	Changes []string            `json:"changes,omitempty"`
	PRs     []Celebration       `json:"prs,omitempty"`
	// Warning is set when history persistence failed; the entry is still
	// returned so the client keeps the data in memory.
	Warning string `json:"warning,omitempty"`
}

// Finish ends the session: builds the history entry, persists it, computes
// template drift, and kicks off the best-effort background steps (photo
// upload, feed share, coach analysis). Persistence failure downgrades to a
// warning; background failures only log.
func (m *Manager) Finish(ctx context.Context, userID int, opts FinishOptions) (FinishResult, error) {
	m.mu.Lock()
	us, ok := m.sessions[userID]
	if !ok {
		m.mu.Unlock()
		return FinishResult{}, ErrNoSession
	}

	if opts.CompleteAll {
		us.engine.CompleteAllWithData()
	}

	template := us.engine.Template()
	entry, err := us.engine.Finish(m.now())
	if err != nil {
		m.mu.Unlock()
		return FinishResult{}, err
	}

	result := FinishResult{
		Entry:   entry,
		Changes: DetectChanges(template, entry.Exercises),
		PRs:     append([]Celebration(nil), us.celebrations...),
	}

	m.teardownLocked(us)
	delete(m.sessions, userID)
	m.mu.Unlock()

	if err := m.history.AppendHistory(ctx, userID, entry); err != nil {
		m.log.Warn("history save failed", "user_id", userID, "entry_id", entry.ID, "error", err)
		result.Warning = "workout saved locally but may not survive a restart"
	}

	if opts.OverwriteTemplate && m.templates != nil && len(result.Changes) > 0 {
		updated := TemplateFromSession(template, entry.Exercises)
		if err := m.templates.SaveTemplate(ctx, userID, updated); err != nil {
			m.log.Warn("template overwrite failed", "user_id", userID, "template_id", template.ID, "error", err)
		}
	}

	m.metrics.SessionFinished()
	m.log.Info("session finished", "user_id", userID,
		"duration_min", entry.DurationMinutes, "sets", entry.CompletedSets, "volume", entry.TotalVolume)

	m.background.Add(1)
	go func() {
		defer m.background.Done()
		m.afterFinish(userID, entry, opts.PhotoPath)
	}()

	return result, nil
}

// afterFinish runs the best-effort steps. A photo upload failure must not
// stop the share; the share proceeds without a photo.
func (m *Manager) afterFinish(userID int, entry models.HistoryEntry, photoPath string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	photoURL := ""
	if m.photos != nil && photoPath != "" {
		url, err := m.photos.Upload(ctx, userID, entry.ID, photoPath)
		if err != nil {
			m.log.Warn("photo upload failed", "user_id", userID, "error", err)
		} else {
			photoURL = url
		}
	}

	if m.sharer != nil {
		if err := m.sharer.ShareWorkout(ctx, userID, entry, photoURL); err != nil {
			m.log.Warn("feed share failed", "user_id", userID, "error", err)
		}
	}

	if m.analyzer != nil {
		analysis, err := m.analyzer.Analyze(ctx, BuildSummary(entry))
		if err != nil {
			m.log.Warn("coach analysis failed", "user_id", userID, "error", err)
		} else {
			m.log.Info("coach analysis", "user_id", userID, "entry_id", entry.ID, "analysis", analysis)
		}
	}
}

// Cancel discards the session with no history entry and stops all timers.
func (m *Manager) Cancel(userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	us, ok := m.sessions[userID]
	if !ok {
		return ErrNoSession
	}
	us.engine.Cancel()
	m.teardownLocked(us)
	delete(m.sessions, userID)
	m.metrics.SessionCanceled()
	m.log.Info("session canceled", "user_id", userID)
	return nil
}

// Shutdown cancels every active session and waits for background work.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for userID, us := range m.sessions {
		us.engine.Cancel()
		m.teardownLocked(us)
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	m.background.Wait()
}

// teardownLocked stops every timer owned by a session. Nothing may keep
// ticking after the session is gone.
func (m *Manager) teardownLocked(us *userSession) {
	us.clockRunner.Stop()
	us.restRunner.Stop()
	us.undo.Clear()
}

// Wait blocks until background finish work completes. Tests only.
func (m *Manager) Wait() { m.background.Wait() }
