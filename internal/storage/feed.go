package storage

import (
	"context"
	"fmt"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

// ShareWorkout publishes a finished workout to the social feed. photoURL
// may be empty when the upload failed or no photo was taken.
func (db *DB) ShareWorkout(ctx context.Context, userID int, entry models.HistoryEntry, photoURL string) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO shared_workouts (id, user_id, name, emoji, date, photo_url)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT DO NOTHING`,
		entry.ID, userID, entry.Name, entry.Emoji, entry.Date, photoURL)
	if err != nil {
		return fmt.Errorf("sharing workout: %w", err)
	}
	return nil
}

// ListFriendWorkouts retrieves the feed: shared workouts of the user and
// their friends, newest first, with likes and threaded comments attached.
func (db *DB) ListFriendWorkouts(ctx context.Context, userID, limit int) ([]models.FeedWorkout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT w.id, w.user_id, COALESCE(NULLIF(u.display_name, ''), u.login),
		        w.name, w.emoji, w.date, w.photo_url
		 FROM shared_workouts w
		 JOIN users u ON u.id = w.user_id
		 WHERE w.user_id = $1
		    OR w.user_id IN (SELECT friend_id FROM friends WHERE user_id = $1)
		 ORDER BY w.date DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying feed: %w", err)
	}
	defer rows.Close()

	var result []models.FeedWorkout
	index := make(map[uuid.UUID]int)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var w models.FeedWorkout
		if err := rows.Scan(&w.ID, &w.UserID, &w.UserName, &w.Name, &w.Emoji, &w.Date, &w.PhotoURL); err != nil {
			return nil, fmt.Errorf("scanning feed workout: %w", err)
		}
		index[w.ID] = len(result)
		ids = append(ids, w.ID)
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	if err := db.attachLikes(ctx, ids, index, result); err != nil {
		return nil, err
	}
	if err := db.attachComments(ctx, ids, index, result); err != nil {
		return nil, err
	}

	for i := range result {
		result[i].RecountDerived()
	}
	return result, nil
}

func (db *DB) attachLikes(ctx context.Context, ids []uuid.UUID, index map[uuid.UUID]int, result []models.FeedWorkout) error {
	rows, err := db.Pool.Query(ctx,
		`SELECT l.workout_id, l.user_id, COALESCE(NULLIF(u.display_name, ''), u.login), l.created_at
		 FROM workout_likes l
		 JOIN users u ON u.id = l.user_id
		 WHERE l.workout_id = ANY($1)
		 ORDER BY l.created_at ASC`,
		ids)
	if err != nil {
		return fmt.Errorf("querying likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var workoutID uuid.UUID
		var like models.Like
		if err := rows.Scan(&workoutID, &like.UserID, &like.UserName, &like.Timestamp); err != nil {
			return fmt.Errorf("scanning like: %w", err)
		}
		if i, ok := index[workoutID]; ok {
			result[i].Likes = append(result[i].Likes, like)
		}
	}
	return rows.Err()
}

func (db *DB) attachComments(ctx context.Context, ids []uuid.UUID, index map[uuid.UUID]int, result []models.FeedWorkout) error {
	rows, err := db.Pool.Query(ctx,
		`SELECT c.id, c.workout_id, c.parent_id, c.user_id,
		        COALESCE(NULLIF(u.display_name, ''), u.login), c.text, c.created_at
		 FROM workout_comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.workout_id = ANY($1)
		 ORDER BY c.created_at ASC`,
		ids)
	if err != nil {
		return fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	type flat struct {
		workoutID uuid.UUID
		parentID  *uuid.UUID
		comment   models.Comment
	}
	var all []flat
	for rows.Next() {
		var f flat
		if err := rows.Scan(&f.comment.ID, &f.workoutID, &f.parentID, &f.comment.UserID,
			&f.comment.UserName, &f.comment.Text, &f.comment.Timestamp); err != nil {
			return fmt.Errorf("scanning comment: %w", err)
		}
		all = append(all, f)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Top-level comments first (created_at order holds within a thread),
	// then replies attach under their parents.
	parents := make(map[uuid.UUID]*models.Comment)
	for _, f := range all {
		if f.parentID != nil {
			continue
		}
		i := index[f.workoutID]
		result[i].Comments = append(result[i].Comments, f.comment)
		parents[f.comment.ID] = &result[i].Comments[len(result[i].Comments)-1]
	}
	for _, f := range all {
		if f.parentID == nil {
			continue
		}
		if parent, ok := parents[*f.parentID]; ok {
			parent.Replies = append(parent.Replies, f.comment)
		}
	}
	return nil
}

// Like records a user's like. Idempotent.
func (db *DB) Like(ctx context.Context, workoutID uuid.UUID, userID int) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_likes (workout_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		workoutID, userID)
	if err != nil {
		return fmt.Errorf("liking workout: %w", err)
	}
	return nil
}

// Unlike removes a user's like.
func (db *DB) Unlike(ctx context.Context, workoutID uuid.UUID, userID int) error {
	_, err := db.Pool.Exec(ctx,
		`DELETE FROM workout_likes WHERE workout_id = $1 AND user_id = $2`,
		workoutID, userID)
	if err != nil {
		return fmt.Errorf("unliking workout: %w", err)
	}
	return nil
}

// AddComment inserts a comment or reply and returns the authoritative ID.
func (db *DB) AddComment(ctx context.Context, workoutID uuid.UUID, userID int, text string, parentID *uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_comments (id, workout_id, user_id, parent_id, text)
		 VALUES ($1,$2,$3,$4,$5)`,
		id, workoutID, userID, parentID, text)
	if err != nil {
		return uuid.Nil, fmt.Errorf("adding comment: %w", err)
	}
	return id, nil
}
