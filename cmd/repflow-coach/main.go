package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/repflow/internal/coach"
	"github.com/claude/repflow/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// repflow-coach bridges workout data to an MCP client over stdio. It runs
// in one of two modes:
//
//	-db <dsn>     query PostgreSQL directly (local mode)
//	-server <url> query a running RepFlow server over its REST API
//
// Remote mode additionally sees the in-flight session; local mode cannot,
// since active sessions live in server memory.
func main() {
	dbDSN := flag.String("db", "", "PostgreSQL DSN for direct database access")
	serverURL := flag.String("server", "", "RepFlow server URL (e.g. https://repflow.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("REPFLOW_API_KEY"), "API key for remote mode")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repflow-coach", Version)
		return
	}

	// Logs go to stderr; stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*dbDSN == "") == (*serverURL == "") {
		fmt.Fprintf(os.Stderr, "Usage: repflow-coach -db <dsn> | -server <URL> [-api-key <key>]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var ds coach.DataSource
	if *dbDSN != "" {
		db, err := storage.New(context.Background(), *dbDSN)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = db
		log.Info("coach starting", "mode", "local")
	} else {
		ds = coach.NewHTTPClient(*serverURL, *apiKey)
		log.Info("coach starting", "mode", "remote", "server", *serverURL)
	}

	mcpServer := coach.NewServer(ds, Version, log)
	if err := server.ServeStdio(mcpServer); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
