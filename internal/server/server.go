package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/claude/repflow/internal/exercises"
	"github.com/claude/repflow/internal/feed"
	"github.com/claude/repflow/internal/session"
	"github.com/claude/repflow/internal/storage"
	"github.com/go-chi/chi/v5"
	"tailscale.com/client/local"
)

const feedLimit = 50

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	sessions *session.Manager
	search   *exercises.Service
	log      *slog.Logger
	apiKey   string
	router   chi.Router
	metrics  *Metrics

	// identity is swapped to Tailscale whois when tsnet is enabled.
	identity func(http.Handler) http.Handler

	feedMu sync.Mutex
	feeds  map[int]*feed.Updater
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, sessions *session.Manager, search *exercises.Service, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		sessions: sessions,
		search:   search,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
		identity: DevIdentity,
		feeds:    make(map[int]*feed.Updater),
	}
	s.routes()
	return s
}

// SetTailscale switches identity resolution to tsnet whois. Must be called
// before the server starts accepting requests.
func (s *Server) SetTailscale(lc *local.Client) {
	s.identity = TailscaleIdentity(lc, s.db, s.log)
}

// SetMetrics enables the Prometheus scrape endpoint and instruments
// sessions and feeds. Must be called before the server starts.
func (s *Server) SetMetrics(m *Metrics) {
	s.metrics = m
	s.sessions.SetMetrics(m)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.countRequests)

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/metrics", s.handleMetrics)

	// Import endpoint (API key required; used by the repflow-import CLI)
	s.router.Route("/api/v1/import", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/history", s.handleImportHistory)
	})

	// Coach bridge endpoints (API key required; no Tailscale identity)
	s.router.Route("/api/v1/coach", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Get("/history", s.handleHistory)
		r.Get("/records", s.handleListRecords)
		r.Get("/session", s.handleCurrentSession)
	})

	// App endpoints (identity via tsnet whois, or dev fallback)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.withIdentity)

		r.Get("/me", s.handleMe)

		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleSaveTemplate)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		r.Post("/sessions", s.handleStartSession)
		r.Route("/sessions/current", func(r chi.Router) {
			r.Get("/", s.handleCurrentSession)
			r.Delete("/", s.handleCancelSession)
			r.Post("/finish", s.handleFinishSession)
			r.Get("/uncompleted", s.handleUncompleted)
			r.Post("/undo", s.handleUndo)

			r.Post("/exercises", s.handleAddExercise)
			r.Delete("/exercises/{exerciseID}", s.handleRemoveExercise)
			r.Post("/exercises/{exerciseID}/move", s.handleMoveExercise)
			r.Post("/exercises/{exerciseID}/sets", s.handleAddSet)
			r.Patch("/exercises/{exerciseID}/sets/{setID}", s.handleUpdateSet)
			r.Post("/exercises/{exerciseID}/sets/{setID}/toggle", s.handleToggleSet)
			r.Delete("/exercises/{exerciseID}/sets/{setID}", s.handleRemoveSet)

			r.Post("/rest/adjust", s.handleAdjustRest)
			r.Post("/rest/skip", s.handleSkipRest)
			r.Put("/rest/enabled", s.handleSetRestEnabled)
		})

		r.Get("/history", s.handleHistory)
		r.Get("/records", s.handleListRecords)
		r.Delete("/records", s.handleResetRecords)
		r.Get("/exercises", s.handleSearchExercises)

		r.Get("/feed", s.handleFeed)
		r.Post("/feed/refresh", s.handleFeedRefresh)
		r.Post("/feed/{workoutID}/like", s.handleToggleLike)
		r.Post("/feed/{workoutID}/comments", s.handleAddComment)
		r.Post("/friends", s.handleAddFriend)
	})
}

// withIdentity applies whichever identity middleware is configured at
// request time.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.identity(next).ServeHTTP(w, r)
	})
}

// countRequests feeds the requests counter when metrics are enabled.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.metrics.incRequest(sw.status)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.NotFound(w, r)
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}

// feedFor returns the user's feed updater, creating and loading it on
// first use.
func (s *Server) feedFor(ctx context.Context, userID int) (*feed.Updater, error) {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()

	if u, ok := s.feeds[userID]; ok {
		return u, nil
	}

	name, err := s.db.GetUserName(ctx, userID)
	if err != nil {
		return nil, err
	}
	u := feed.NewUpdater(s.db, userID, name, feedLimit, s.log)
	if s.metrics != nil {
		u.SetMetrics(s.metrics)
	}
	if err := u.Load(ctx); err != nil {
		return nil, err
	}
	s.feeds[userID] = u
	return u, nil
}

// Drain waits for in-flight background work (feed commits) during shutdown.
func (s *Server) Drain() {
	s.feedMu.Lock()
	updaters := make([]*feed.Updater, 0, len(s.feeds))
	for _, u := range s.feeds {
		updaters = append(updaters, u)
	}
	s.feedMu.Unlock()

	for _, u := range updaters {
		u.Wait()
	}
}
