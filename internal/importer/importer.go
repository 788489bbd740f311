package importer

import (
	"fmt"
	"log/slog"
)

// Result summarizes an import run.
type Result struct {
	Total   int
	Sent    int
	Skipped int
	Failed  int
}

// Run converts every workout in the export and sends the ones not seen
// before. Failures do not stop the run; the state DB only records workouts
// the server acknowledged, so a re-run picks up exactly what failed.
func Run(export *Export, state *StateDB, client *Client, dryRun bool, log *slog.Logger) (Result, error) {
	var res Result
	res.Total = len(export.Workouts)

	for _, w := range export.Workouts {
		fp := Fingerprint(w)

		done, err := state.IsImported(fp)
		if err != nil {
			return res, fmt.Errorf("checking import state: %w", err)
		}
		if done {
			res.Skipped++
			continue
		}

		entry := Convert(w)
		if dryRun {
			log.Info("would import", "name", entry.Name, "date", entry.Date.Format("2006-01-02"), "sets", entry.CompletedSets)
			res.Sent++
			continue
		}

		if err := client.SendEntry(entry); err != nil {
			log.Warn("import failed", "name", entry.Name, "date", entry.Date.Format("2006-01-02"), "error", err)
			res.Failed++
			continue
		}
		if err := state.MarkImported(fp, w.Name, w.Date.UTC().Format("2006-01-02")); err != nil {
			return res, fmt.Errorf("recording import state: %w", err)
		}
		log.Info("imported", "name", entry.Name, "date", entry.Date.Format("2006-01-02"))
		res.Sent++
	}

	return res, nil
}
