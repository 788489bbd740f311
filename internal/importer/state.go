package importer

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDB tracks which workouts have been successfully imported so
// re-running the tool on the same export never duplicates history.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/import-state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "import-state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS imported_workouts (
		fingerprint TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		date        TEXT NOT NULL,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsImported checks whether a workout with this fingerprint was already sent.
func (s *StateDB) IsImported(fingerprint string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM imported_workouts WHERE fingerprint = ?`,
		fingerprint,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkImported records a successfully sent workout.
func (s *StateDB) MarkImported(fingerprint, name, date string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO imported_workouts (fingerprint, name, date) VALUES (?, ?, ?)`,
		fingerprint, name, date,
	)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// Fingerprint derives a stable identity for an exported workout from its
// name, date, and set structure. The export carries no IDs, so content is
// the only identity available.
func Fingerprint(w ExportWorkout) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d", w.Name, w.Date.UTC().Format("2006-01-02T15:04:05"), w.DurationMinutes)
	for _, ex := range w.Exercises {
		fmt.Fprintf(h, "|%s:%d", ex.Name, len(ex.Sets))
		for _, set := range ex.Sets {
			fmt.Fprintf(h, ",%gx%d", set.Weight, set.Reps)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
