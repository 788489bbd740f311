package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/repflow/internal/coach"
	"github.com/claude/repflow/internal/config"
	"github.com/claude/repflow/internal/exercises"
	"github.com/claude/repflow/internal/photos"
	"github.com/claude/repflow/internal/server"
	"github.com/claude/repflow/internal/session"
	"github.com/claude/repflow/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("RepFlow starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Local exercise catalog (seeded on first open)
	catalog, err := exercises.OpenLocalCatalog(cfg.Exercises.LocalDir)
	if err != nil {
		log.Error("failed to open exercise catalog", "error", err)
		os.Exit(1)
	}
	defer catalog.Close()

	var remote exercises.Remote
	if cfg.Exercises.CatalogURL != "" {
		remote = exercises.NewCatalogClient(cfg.Exercises.CatalogURL)
	}
	search := exercises.NewService(remote, catalog, db, cfg.Exercises.CacheSizeMB, cfg.Exercises.CacheTTLSeconds, log)

	// Session manager and side effects
	manager := session.NewManager(db, db, db, session.Config{
		RestDefault: cfg.Workout.RestDefaultSeconds,
		RestEnabled: cfg.Workout.RestEnabled,
		UndoWindow:  time.Duration(cfg.Workout.UndoWindowSeconds) * time.Second,
	}, log)
	manager.SetSharer(db)
	if cfg.Coach.AnalyzerURL != "" {
		manager.SetAnalyzer(coach.NewHTTPAnalyzer(cfg.Coach.AnalyzerURL, cfg.Auth.APIKey))
	}
	if cfg.Photos.UploadURL != "" {
		manager.SetPhotoUploader(photos.NewClient(cfg.Photos.UploadURL, cfg.Auth.APIKey))
	}

	// Create server
	srv := server.New(db, manager, search, cfg.Auth.APIKey, log)
	if cfg.Metrics.Enabled {
		srv.SetMetrics(server.NewMetrics())
	}

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	// Stop session timers and wait for background persistence
	manager.Shutdown()
	manager.Wait()
	srv.Drain()
	log.Info("server stopped")
}
