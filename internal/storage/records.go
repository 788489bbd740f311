package storage

import (
	"context"
	"fmt"

	"github.com/claude/repflow/internal/models"
)

// LoadRecords retrieves a user's personal records.
func (db *DB) LoadRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_name, weight, reps, date, workout_id, estimated_one_rep_max
		 FROM personal_records
		 WHERE user_id = $1
		 ORDER BY exercise_name ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var result []models.PersonalRecord
	for rows.Next() {
		var r models.PersonalRecord
		if err := rows.Scan(&r.ExerciseName, &r.Weight, &r.Reps, &r.Date,
			&r.WorkoutID, &r.EstimatedOneRepMax); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// SaveRecord upserts a record keyed by lowercased exercise name. A better
// record replaces the old row wholesale — records never merge.
func (db *DB) SaveRecord(ctx context.Context, userID int, r models.PersonalRecord) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO personal_records
		 (user_id, exercise_key, exercise_name, weight, reps, date, workout_id, estimated_one_rep_max)
		 VALUES ($1, LOWER($2), $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, exercise_key) DO UPDATE
			SET exercise_name = $2, weight = $3, reps = $4, date = $5,
			    workout_id = $6, estimated_one_rep_max = $7`,
		userID, r.ExerciseName, r.Weight, r.Reps, r.Date, r.WorkoutID, r.EstimatedOneRepMax)
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// ClearRecords wipes all records for a user (explicit reset operation).
func (db *DB) ClearRecords(ctx context.Context, userID int) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM personal_records WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	return nil
}
