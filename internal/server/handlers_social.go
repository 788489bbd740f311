package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/repflow/internal/feed"
	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

// --- History and records ---

// handleImportHistory accepts a finished workout from the import CLI and
// appends it verbatim. Entries carry their own IDs; the importer is
// responsible for not sending the same workout twice.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	var entry models.HistoryEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if entry.Name == "" || entry.Date.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and date required"})
		return
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	if err := s.db.AppendHistory(r.Context(), userIDFromContext(r), entry); err != nil {
		s.log.Error("import history", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": entry.ID.String()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.db.LoadHistory(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.LoadRecords(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleResetRecords(w http.ResponseWriter, r *http.Request) {
	if err := s.db.ClearRecords(r.Context(), userIDFromContext(r)); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Exercise search ---

func (s *Server) handleSearchExercises(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q parameter required"})
		return
	}

	result, err := s.search.Search(r.Context(), userIDFromContext(r), query)
	if err != nil {
		s.log.Error("exercise search", "query", query, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Social feed ---

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	u, err := s.feedFor(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, u.Feed())
}

func (s *Server) handleFeedRefresh(w http.ResponseWriter, r *http.Request) {
	u, err := s.feedFor(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := u.Load(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, u.Feed())
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := pathUUID(w, r, "workoutID")
	if !ok {
		return
	}

	u, err := s.feedFor(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := u.ToggleLike(workoutID); err != nil {
		feedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u.Feed())
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := pathUUID(w, r, "workoutID")
	if !ok {
		return
	}
	var req struct {
		Text     string     `json:"text"`
		ParentID *uuid.UUID `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "comment text required"})
		return
	}

	u, err := s.feedFor(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := u.AddComment(workoutID, req.Text, req.ParentID); err != nil {
		feedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u.Feed())
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FriendID int `json:"friend_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.FriendID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "friend_id required"})
		return
	}

	if err := s.db.AddFriend(r.Context(), userIDFromContext(r), req.FriendID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func feedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feed.ErrWorkoutNotInFeed):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not in feed"})
	case errors.Is(err, feed.ErrCommentNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "parent comment not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
