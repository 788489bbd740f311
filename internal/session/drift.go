package session

import (
	"fmt"
	"strings"

	"github.com/claude/repflow/internal/models"
)

// DetectChanges compares the exercises of a finished session against the
// template it was started from and returns human-readable descriptors of
// the structural drift: exercises added, exercises removed, and sets added
// to exercises present in both. Removed sets and reordering are deliberately
// not reported.
func DetectChanges(original models.Template, sessionExercises []models.Exercise) []string {
	originalByName := make(map[string]int, len(original.Exercises))
	for _, ex := range original.Exercises {
		originalByName[strings.ToLower(ex.Name)] = len(ex.Sets)
	}
	sessionNames := make(map[string]bool, len(sessionExercises))

	var changes []string
	added := 0
	for _, ex := range sessionExercises {
		key := strings.ToLower(ex.Name)
		sessionNames[key] = true
		if _, ok := originalByName[key]; !ok {
			added++
		}
	}
	if added > 0 {
		changes = append(changes, fmt.Sprintf("Added %d exercise(s)", added))
	}

	removed := 0
	for _, ex := range original.Exercises {
		if !sessionNames[strings.ToLower(ex.Name)] {
			removed++
		}
	}
	if removed > 0 {
		changes = append(changes, fmt.Sprintf("Removed %d exercise(s)", removed))
	}

	for _, ex := range sessionExercises {
		originalSets, ok := originalByName[strings.ToLower(ex.Name)]
		if ok && len(ex.Sets) > originalSets {
			changes = append(changes, fmt.Sprintf("Added %d set(s) to %s", len(ex.Sets)-originalSets, ex.Name))
		}
	}

	return changes
}

// TemplateFromSession rebuilds a template from a finished session's
// structure: same exercises and set counts, with every rep/weight cleared
// and completion reset. Used when the user chooses to overwrite the
// template after drift is detected.
func TemplateFromSession(original models.Template, sessionExercises []models.Exercise) models.Template {
	updated := original
	updated.Exercises = make([]models.Exercise, len(sessionExercises))
	for i, ex := range sessionExercises {
		sets := make([]models.Set, len(ex.Sets))
		for j, set := range ex.Sets {
			sets[j] = models.Set{ID: set.ID}
		}
		updated.Exercises[i] = models.Exercise{ID: ex.ID, Name: ex.Name, Sets: sets}
	}
	return updated
}
