package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/claude/repflow/internal/importer"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "RepFlow server URL (e.g. https://repflow.tail1234.ts.net)")
	exportPath := flag.String("file", "", "path to a workout export JSON file")
	apiKey := flag.String("api-key", os.Getenv("REPFLOW_API_KEY"), "API key for the import endpoint")
	stateDir := flag.String("state", "", "directory for the import state database (default ~/.repflow)")
	dryRun := flag.Bool("dry-run", false, "parse and convert but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repflow-import", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: repflow-import -server <URL> -file <export.json> [-dry-run] [-api-key <key>]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}
	*serverURL = strings.TrimRight(*serverURL, "/")

	export, err := importer.ReadExport(*exportPath)
	if err != nil {
		log.Error("failed to read export", "path", *exportPath, "error", err)
		os.Exit(1)
	}
	log.Info("export loaded", "path", *exportPath, "workouts", len(export.Workouts))

	// Open state database
	dir := *stateDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		dir = homeDir + "/.repflow"
	}
	state, err := importer.OpenStateDB(dir)
	if err != nil {
		log.Error("failed to open state db", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	client := importer.NewClient(*serverURL, *apiKey)

	result, err := importer.Run(export, state, client, *dryRun, log)
	if err != nil {
		log.Error("import aborted", "error", err)
		os.Exit(1)
	}

	log.Info("import finished",
		"total", result.Total,
		"sent", result.Sent,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	if result.Failed > 0 {
		os.Exit(1)
	}
}
