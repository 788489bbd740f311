package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claude/repflow/internal/models"
)

// LoadHistory retrieves a user's finished workouts, newest first. The
// exercise tree is stored whole as JSONB — it is a document the session
// engine reads and writes in one piece, never queried per set.
func (db *DB) LoadHistory(ctx context.Context, userID int) ([]models.HistoryEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, template_id, name, emoji, date, duration_minutes,
		 completed_sets, total_volume, exercises
		 FROM history_entries
		 WHERE user_id = $1
		 ORDER BY date DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var result []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var exercises []byte
		if err := rows.Scan(&e.ID, &e.TemplateID, &e.Name, &e.Emoji, &e.Date,
			&e.DurationMinutes, &e.CompletedSets, &e.TotalVolume, &exercises); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		if err := json.Unmarshal(exercises, &e.Exercises); err != nil {
			return nil, fmt.Errorf("decoding history exercises: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// AppendHistory inserts a finished workout.
func (db *DB) AppendHistory(ctx context.Context, userID int, entry models.HistoryEntry) error {
	exercises, err := json.Marshal(entry.Exercises)
	if err != nil {
		return fmt.Errorf("encoding history exercises: %w", err)
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO history_entries (id, user_id, template_id, name, emoji, date,
		 duration_minutes, completed_sets, total_volume, exercises)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		entry.ID, userID, entry.TemplateID, entry.Name, entry.Emoji, entry.Date,
		entry.DurationMinutes, entry.CompletedSets, entry.TotalVolume, exercises)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// CustomExerciseNames returns distinct exercise names from a user's history
// matching the query, for the "custom" half of exercise search.
func (db *DB) CustomExerciseNames(ctx context.Context, userID int, query string, limit int) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT ex->>'name' AS name
		 FROM history_entries, jsonb_array_elements(exercises) AS ex
		 WHERE user_id = $1 AND ex->>'name' ILIKE '%' || $2 || '%'
		 ORDER BY name
		 LIMIT $3`,
		userID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying custom exercises: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning exercise name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
