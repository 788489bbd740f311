package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tailscale.com/client/local"
)

type contextKey int

const (
	userIDKey contextKey = iota
	userInfoKey
)

// UserInfo identifies the requesting user as seen by the identity layer.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// userIDFromContext returns the user ID set by identity middleware,
// defaulting to 1 so handlers never operate on user 0.
func userIDFromContext(r *http.Request) int {
	if id, ok := r.Context().Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// userInfoFromContext returns the identity set by middleware, with a local
// dev fallback.
func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return UserInfo{Login: "local", DisplayName: "Local Dev User"}
}

// DevIdentity assigns every request to user 1. Used when Tailscale is
// disabled so the app works in local development.
func DevIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), userIDKey, 1)
		ctx = context.WithValue(ctx, userInfoKey, UserInfo{Login: "local", DisplayName: "Local Dev User"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userDirectory resolves a login name to a user row, creating it on first
// sight. Satisfied by *storage.DB.
type userDirectory interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
}

// TailscaleIdentity resolves the caller via tsnet whois and maps the login
// to a database user. Resolved IDs are cached per login for the process
// lifetime; user rows are never deleted.
func TailscaleIdentity(lc *local.Client, users userDirectory, log *slog.Logger) func(http.Handler) http.Handler {
	var mu sync.Mutex
	known := make(map[string]int)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, err := lc.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil || who.UserProfile == nil {
				log.Warn("whois failed", "remote", r.RemoteAddr, "error", err)
				http.Error(w, `{"error":"identity unavailable"}`, http.StatusForbidden)
				return
			}

			login := who.UserProfile.LoginName
			mu.Lock()
			id, ok := known[login]
			mu.Unlock()
			if !ok {
				id, err = users.GetOrCreateUser(r.Context(), login, who.UserProfile.DisplayName)
				if err != nil {
					log.Error("user lookup failed", "login", login, "error", err)
					http.Error(w, `{"error":"identity unavailable"}`, http.StatusInternalServerError)
					return
				}
				mu.Lock()
				known[login] = id
				mu.Unlock()
			}

			ctx := context.WithValue(r.Context(), userIDKey, id)
			ctx = context.WithValue(ctx, userInfoKey, UserInfo{Login: login, DisplayName: who.UserProfile.DisplayName})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyAuth returns middleware that validates the X-API-Key header. Used
// for the coach client in remote mode, where requests arrive without a
// Tailscale identity.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				http.Error(w, `{"error":"missing API key"}`, http.StatusUnauthorized)
				return
			}
			if key != apiKey {
				http.Error(w, `{"error":"invalid API key"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
