package storage

import (
	"context"
	"fmt"
)

// GetOrCreateUser finds or creates a user by login name (Tailscale identity
// or dev fallback). Returns the user ID. Updates last_seen and display_name
// on each call.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	return id, err
}

// GetUserName returns a user's display name, falling back to the login.
func (db *DB) GetUserName(ctx context.Context, userID int) (string, error) {
	var name string
	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(NULLIF(display_name, ''), login) FROM users WHERE id = $1`,
		userID).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("querying user name: %w", err)
	}
	return name, nil
}

// AddFriend records a one-way friend edge; feeds show friends' workouts.
func (db *DB) AddFriend(ctx context.Context, userID, friendID int) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO friends (user_id, friend_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, friendID)
	if err != nil {
		return fmt.Errorf("adding friend: %w", err)
	}
	return nil
}
