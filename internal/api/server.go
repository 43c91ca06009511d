// Package api provides the HTTP serving layer for Whisker.
// POST /api/v1/predict is the hot path: one decision per call.
// GET endpoints are public read-only observation; admin endpoints
// (model reload, profile purge) require a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talgya/whisker/internal/engine"
	"github.com/talgya/whisker/internal/entropy"
	"github.com/talgya/whisker/internal/policy"
	"github.com/talgya/whisker/internal/profile"
)

// Server serves cat decisions over HTTP.
type Server struct {
	Engine   *engine.Engine
	Profiles *profile.Store
	Seeds    *entropy.Client
	Loader   *policy.Loader // nil when running without a model dir
	Port     int
	AdminKey string // Bearer token for admin endpoints. Empty = disabled.

	// Current predictor, swapped on reload.
	predMu    sync.RWMutex
	predictor policy.Predictor

	started  time.Time
	requests atomic.Uint64
}

// SetPredictor installs the predictor serving base actions.
func (s *Server) SetPredictor(p policy.Predictor) {
	s.predMu.Lock()
	defer s.predMu.Unlock()
	s.predictor = p
}

func (s *Server) currentPredictor() policy.Predictor {
	s.predMu.RLock()
	defer s.predMu.RUnlock()
	return s.predictor
}

// Handler builds the route table. Exposed separately from Start for tests.
func (s *Server) Handler() http.Handler {
	limiter := NewRateLimiter(600, time.Minute)

	mux := http.NewServeMux()

	// Hot path.
	mux.HandleFunc("/api/v1/predict", RateLimitMiddleware(limiter, s.handlePredict))
	mux.HandleFunc("/api/v1/predict_batch", RateLimitMiddleware(limiter, s.handlePredictBatch))

	// Public observation.
	mux.HandleFunc("/api/v1/cats", s.handleCats)
	mux.HandleFunc("/api/v1/cat/", s.handleCatRoutes)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/health", s.handleHealth)

	// Admin.
	mux.HandleFunc("/api/v1/reload", s.adminOnly(s.handleReload))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.started = time.Now()
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins; localhost
// dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no WHISKER_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
