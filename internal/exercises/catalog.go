package exercises

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// LocalCatalog is the bundled exercise database used when the remote
// catalog is unreachable. It lives in a small SQLite file seeded at
// startup, so the fallback list survives restarts and stays queryable
// the same way the remote catalog is.
type LocalCatalog struct {
	db *sql.DB
}

// OpenLocalCatalog opens (or creates) the SQLite catalog at dir/catalog.db
// and seeds it with the built-in exercise list.
func OpenLocalCatalog(dir string) (*LocalCatalog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening catalog db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS exercises (
		name     TEXT PRIMARY KEY,
		category TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating exercises table: %w", err)
	}

	c := &LocalCatalog{db: db}
	if err := c.seed(builtinExercises); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *LocalCatalog) seed(entries []catalogEntry) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning seed tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO exercises (name, category) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing seed statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.name, e.category); err != nil {
			return fmt.Errorf("seeding %q: %w", e.name, err)
		}
	}
	return tx.Commit()
}

// Search returns catalog names containing the query, case-insensitively.
func (c *LocalCatalog) Search(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM exercises WHERE name LIKE '%' || ? || '%' COLLATE NOCASE ORDER BY name LIMIT ?`,
		query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying local catalog: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning catalog name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Close closes the catalog database.
func (c *LocalCatalog) Close() error {
	return c.db.Close()
}

type catalogEntry struct {
	name     string
	category string
}

// builtinExercises is the fixed fallback list.
var builtinExercises = []catalogEntry{
	{"Barbell Back Squat", "legs"},
	{"Front Squat", "legs"},
	{"Goblet Squat", "legs"},
	{"Leg Press", "legs"},
	{"Bulgarian Split Squat", "legs"},
	{"Walking Lunge", "legs"},
	{"Leg Extension", "legs"},
	{"Leg Curl", "legs"},
	{"Romanian Deadlift", "legs"},
	{"Conventional Deadlift", "back"},
	{"Sumo Deadlift", "back"},
	{"Barbell Row", "back"},
	{"Dumbbell Row", "back"},
	{"Seated Cable Row", "back"},
	{"Lat Pulldown", "back"},
	{"Pull-Up", "back"},
	{"Chin-Up", "back"},
	{"Bench Press", "chest"},
	{"Incline Bench Press", "chest"},
	{"Dumbbell Bench Press", "chest"},
	{"Chest Fly", "chest"},
	{"Cable Crossover", "chest"},
	{"Push-Up", "chest"},
	{"Dip", "chest"},
	{"Overhead Press", "shoulders"},
	{"Seated Dumbbell Press", "shoulders"},
	{"Arnold Press", "shoulders"},
	{"Lateral Raise", "shoulders"},
	{"Front Raise", "shoulders"},
	{"Rear Delt Fly", "shoulders"},
	{"Face Pull", "shoulders"},
	{"Shrug", "shoulders"},
	{"Bicep Curl", "arms"},
	{"Hammer Curl", "arms"},
	{"Preacher Curl", "arms"},
	{"Tricep Extension", "arms"},
	{"Tricep Pushdown", "arms"},
	{"Skull Crusher", "arms"},
	{"Close-Grip Bench Press", "arms"},
	{"Power Clean", "olympic"},
	{"Hang Clean", "olympic"},
	{"Snatch", "olympic"},
	{"Clean And Jerk", "olympic"},
	{"Calf Raise", "legs"},
	{"Hip Thrust", "legs"},
	{"Plank", "core"},
	{"Hanging Leg Raise", "core"},
	{"Cable Crunch", "core"},
	{"Russian Twist", "core"},
	{"Farmer's Carry", "conditioning"},
}
