package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// LoadTemplates retrieves a user's workout templates.
func (db *DB) LoadTemplates(ctx context.Context, userID int) ([]models.Template, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, emoji, category, exercises
		 FROM templates
		 WHERE user_id = $1
		 ORDER BY created_at ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var result []models.Template
	for rows.Next() {
		var t models.Template
		var exercises []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.Emoji, &t.Category, &exercises); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		if err := json.Unmarshal(exercises, &t.Exercises); err != nil {
			return nil, fmt.Errorf("decoding template exercises: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// GetTemplate retrieves a single template.
func (db *DB) GetTemplate(ctx context.Context, userID int, templateID uuid.UUID) (models.Template, error) {
	var t models.Template
	var exercises []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, emoji, category, exercises
		 FROM templates
		 WHERE id = $1 AND user_id = $2`,
		templateID, userID).Scan(&t.ID, &t.Name, &t.Emoji, &t.Category, &exercises)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Template{}, ErrNotFound
	}
	if err != nil {
		return models.Template{}, fmt.Errorf("querying template: %w", err)
	}
	if err := json.Unmarshal(exercises, &t.Exercises); err != nil {
		return models.Template{}, fmt.Errorf("decoding template exercises: %w", err)
	}
	return t, nil
}

// SaveTemplate inserts or replaces a template.
func (db *DB) SaveTemplate(ctx context.Context, userID int, t models.Template) error {
	exercises, err := json.Marshal(t.Exercises)
	if err != nil {
		return fmt.Errorf("encoding template exercises: %w", err)
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO templates (id, user_id, name, emoji, category, exercises)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (id) DO UPDATE
			SET name = $3, emoji = $4, category = $5, exercises = $6, updated_at = NOW()`,
		t.ID, userID, t.Name, t.Emoji, t.Category, exercises)
	if err != nil {
		return fmt.Errorf("saving template: %w", err)
	}
	return nil
}

// DeleteTemplate removes a template.
func (db *DB) DeleteTemplate(ctx context.Context, userID int, templateID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM templates WHERE id = $1 AND user_id = $2`,
		templateID, userID)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
