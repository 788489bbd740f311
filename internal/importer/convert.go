package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/google/uuid"
)

// Export is the interchange format produced by the mobile app's
// "export workout data" action. Numbers arrive as JSON numbers, not the
// string fields the session engine uses.
type Export struct {
	ExportedAt time.Time       `json:"exported_at"`
	Workouts   []ExportWorkout `json:"workouts"`
}

type ExportWorkout struct {
	Name            string           `json:"name"`
	Emoji           string           `json:"emoji"`
	Date            time.Time        `json:"date"`
	DurationMinutes int              `json:"duration_minutes"`
	Exercises       []ExportExercise `json:"exercises"`
}

type ExportExercise struct {
	Name string      `json:"name"`
	Sets []ExportSet `json:"sets"`
}

type ExportSet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// ReadExport parses an export file.
func ReadExport(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export file: %w", err)
	}

	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parsing export file: %w", err)
	}
	return &export, nil
}

// Convert maps an exported workout onto a history entry. Every exported
// set counts as completed; volume and set counts are derived the same way
// the session engine derives them at finish.
func Convert(w ExportWorkout) models.HistoryEntry {
	entry := models.HistoryEntry{
		ID:              uuid.New(),
		Name:            w.Name,
		Emoji:           w.Emoji,
		Date:            w.Date,
		DurationMinutes: w.DurationMinutes,
	}

	for _, ex := range w.Exercises {
		exercise := models.Exercise{
			ID:   uuid.New(),
			Name: models.CapitalizeWords(ex.Name),
		}
		for _, set := range ex.Sets {
			exercise.Sets = append(exercise.Sets, models.Set{
				ID:        uuid.New(),
				Weight:    formatNumber(set.Weight),
				Reps:      strconv.Itoa(set.Reps),
				Completed: true,
			})
			entry.CompletedSets++
			entry.TotalVolume += set.Weight * float64(set.Reps)
		}
		entry.Exercises = append(entry.Exercises, exercise)
	}
	return entry
}

// formatNumber renders a weight without trailing zeros, matching what a
// user would have typed (135, not 135.000000).
func formatNumber(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
