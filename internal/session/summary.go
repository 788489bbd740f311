package session

import (
	"fmt"
	"strings"

	"github.com/claude/repflow/internal/models"
)

// BuildSummary renders a finished session as plain text for the AI coach.
// One line per exercise, completed sets only.
func BuildSummary(entry models.HistoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s — %d min, %d sets, %.0f lbs total volume\n",
		entry.Name, entry.DurationMinutes, entry.CompletedSets, entry.TotalVolume)

	for _, ex := range entry.Exercises {
		var sets []string
		for _, set := range ex.Sets {
			if set.Completed {
				sets = append(sets, set.Weight+"x"+set.Reps)
			}
		}
		if len(sets) > 0 {
			fmt.Fprintf(&b, "%s: %s\n", ex.Name, strings.Join(sets, ", "))
		}
	}
	return b.String()
}
