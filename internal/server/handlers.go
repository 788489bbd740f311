package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/repflow/internal/models"
	"github.com/claude/repflow/internal/session"
	"github.com/claude/repflow/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// --- Templates ---

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.db.LoadTemplates(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.Template
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if t.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "template name required"})
		return
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	if err := s.db.SaveTemplate(r.Context(), userIDFromContext(r), t); err != nil {
		s.log.Error("save template", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template ID"})
		return
	}

	t, err := s.db.GetTemplate(r.Context(), userIDFromContext(r), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template ID"})
		return
	}

	if err := s.db.DeleteTemplate(r.Context(), userIDFromContext(r), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Sessions ---

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID *uuid.UUID       `json:"template_id"`
		Template   *models.Template `json:"template"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	userID := userIDFromContext(r)
	var template models.Template
	switch {
	case req.TemplateID != nil:
		t, err := s.db.GetTemplate(r.Context(), userID, *req.TemplateID)
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		template = t
	case req.Template != nil:
		template = *req.Template
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "template_id or template required"})
		return
	}

	state, err := s.sessions.StartSession(r.Context(), userID, template)
	if err != nil {
		s.log.Error("start session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.SessionState(userIDFromContext(r))
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Cancel(userIDFromContext(r)); err != nil {
		sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompleteAll       bool   `json:"complete_all"`
		OverwriteTemplate bool   `json:"overwrite_template"`
		PhotoPath         string `json:"photo_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.sessions.Finish(r.Context(), userIDFromContext(r), session.FinishOptions{
		CompleteAll:       req.CompleteAll,
		OverwriteTemplate: req.OverwriteTemplate,
		PhotoPath:         req.PhotoPath,
	})
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUncompleted(w http.ResponseWriter, r *http.Request) {
	refs, err := s.sessions.UncompletedWithData(userIDFromContext(r))
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uncompleted": refs})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Undo(userIDFromContext(r)); err != nil {
		sessionError(w, err)
		return
	}
	s.currentState(w, r)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise name required"})
		return
	}

	id, err := s.sessions.AddExercise(userIDFromContext(r), req.Name)
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"exercise_id": id})
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := pathUUID(w, r, "exerciseID")
	if !ok {
		return
	}
	if err := s.sessions.RemoveExercise(userIDFromContext(r), exerciseID); err != nil {
		sessionError(w, err)
		return
	}
	s.currentState(w, r)
}

func (s *Server) handleMoveExercise(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := pathUUID(w, r, "exerciseID")
	if !ok {
		return
	}
	var req struct {
		Direction int `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Direction != 1 && req.Direction != -1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "direction must be 1 or -1"})
		return
	}

	if err := s.sessions.MoveExercise(userIDFromContext(r), exerciseID, req.Direction); err != nil {
		sessionError(w, err)
		return
	}
	s.currentState(w, r)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := pathUUID(w, r, "exerciseID")
	if !ok {
		return
	}
	if err := s.sessions.AddSet(userIDFromContext(r), exerciseID); err != nil {
		sessionError(w, err)
		return
	}
	s.currentState(w, r)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := pathUUID(w, r, "exerciseID")
	if !ok {
		return
	}
	setID, ok := pathUUID(w, r, "setID")
	if !ok {
		return
	}
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	userID := userIDFromContext(r)
	var err error
	if req.Field == "note" {
		err = s.sessions.SetNote(userID, exerciseID, setID, req.Value)
	} else {
		err = s.sessions.UpdateSetField(userID, exerciseID, setID, req.Field, req.Value)
	}
	if err != nil {
		sessionError(w, err)
		return
	}
	s.currentState(w, r)
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := pathUUID(w, r, "exerciseID")
	if !ok {
		return
	}
	setID, ok := pathUUID(w, r, "setID")
	if !ok {
		return
	}
	if err := s.sessions.ToggleSetComplete(userIDFromContext(r), exerciseID, setID); err != nil {
		sessionError(w, err)
		return
	}
	s.currentState(w, r)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := pathUUID(w, r, "exerciseID")
	if !ok {
		return
	}
	setID, ok := pathUUID(w, r, "setID")
	if !ok {
		return
	}
	if err := s.sessions.RemoveSet(userIDFromContext(r), exerciseID, setID); err != nil {
		sessionError(w, err)
		return
	}
	s.currentState(w, r)
}

func (s *Server) handleAdjustRest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeltaSeconds int `json:"delta_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.sessions.AdjustRest(userIDFromContext(r), req.DeltaSeconds); err != nil {
		sessionError(w, err)
		return
	}
	s.currentState(w, r)
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SkipRest(userIDFromContext(r)); err != nil {
		sessionError(w, err)
		return
	}
	s.currentState(w, r)
}

func (s *Server) handleSetRestEnabled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.sessions.SetRestEnabled(userIDFromContext(r), req.Enabled); err != nil {
		sessionError(w, err)
		return
	}
	s.currentState(w, r)
}

// currentState writes the post-mutation session state so clients render
// without a follow-up GET.
func (s *Server) currentState(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.SessionState(userIDFromContext(r))
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// sessionError maps session package errors to HTTP status codes.
func sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
	case errors.Is(err, session.ErrExerciseNotFound), errors.Is(err, session.ErrSetNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrUnknownField):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrNothingToUndo):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
