// Package api provides the HTTP API the presentation layer drives the farm
// through. GET endpoints are read-only. POST endpoints call the simulation
// entry points and require a bearer token when an admin key is configured.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/farmsim/internal/engine"
)

// Server serves the farm state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST open.

	// DataLimit throttles real-data toggles and refreshes per client.
	// Nil uses 6 per minute.
	DataLimit *RateLimiter

	srv *http.Server
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	limiter := s.DataLimit
	if limiter == nil {
		limiter = NewRateLimiter(6, time.Minute)
	}

	mux := http.NewServeMux()

	// Read-only endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/fields", s.handleFields)
	mux.HandleFunc("/api/v1/livestock", s.handleLivestock)
	mux.HandleFunc("/api/v1/resources", s.handleResources)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/missions", s.handleMissions)

	// Detail endpoints with POST actions.
	mux.HandleFunc("/api/v1/field/", s.adminOnly(s.handleFieldRoutes))
	mux.HandleFunc("/api/v1/animal/", s.adminOnly(s.handleAnimalRoutes))
	mux.HandleFunc("/api/v1/mission", s.adminOnly(s.handleMission))
	mux.HandleFunc("/api/v1/mission/", s.adminOnly(s.handleMission))
	mux.HandleFunc("/api/v1/decisions", s.adminOnly(s.handleDecisions))

	// Simulation control.
	mux.HandleFunc("/api/v1/tick", s.adminOnly(s.handleTick))
	mux.HandleFunc("/api/v1/simulation/", s.adminOnly(s.handleSimulation))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/datasource", s.adminOnly(RateLimitMiddleware(limiter, s.handleDataSource)))
	mux.HandleFunc("/api/v1/datasource/refresh", s.adminOnly(RateLimitMiddleware(limiter, s.handleRefresh)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
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
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires bearer token auth on POST requests when an admin key is
// set. GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && s.AdminKey != "" && !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// pathID parses the numeric segment at index i of a /api/v1/<kind>/<id>/... path.
func pathID(r *http.Request, i int) (uint32, []string, error) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) <= i {
		return 0, parts, errors.New("missing id")
	}
	id, err := strconv.ParseUint(parts[i], 10, 32)
	if err != nil {
		return 0, parts, fmt.Errorf("invalid id %q", parts[i])
	}
	return uint32(id), parts, nil
}

// outcomeStatus maps a declined action to an HTTP status.
func outcomeStatus(o engine.Outcome) int {
	switch o {
	case engine.Applied:
		return http.StatusOK
	case engine.UnknownTarget:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}
