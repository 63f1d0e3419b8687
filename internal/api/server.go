// Package api serves the campaign state over HTTP. GET endpoints are
// public read-only views; the turn-end endpoint is POST and may be
// gated behind a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/LongView-dev/sanguo-190/internal/domain"
	"github.com/LongView-dev/sanguo-190/internal/turn"
)

// Server exposes one running campaign. State swaps are guarded by mu;
// handlers read a snapshot pointer and never mutate through it.
type Server struct {
	Orch     *turn.Orchestrator
	Port     int
	AdminKey string // bearer token for POST endpoints; empty = open

	mu    sync.RWMutex
	state *domain.GameState
}

// NewServer wires a server around an initial state.
func NewServer(orch *turn.Orchestrator, state *domain.GameState, port int) *Server {
	return &Server{Orch: orch, Port: port, state: state}
}

// State returns the current committed campaign state.
func (s *Server) State() *domain.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Handler builds the route table. Split out from Start for tests.
func (s *Server) Handler() http.Handler {
	// Turn end triggers narration, which may call the LLM.
	turnLimiter := NewRateLimiter(60, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/factions", s.handleFactions)
	mux.HandleFunc("/api/v1/faction/", s.handleFactionDetail)
	mux.HandleFunc("/api/v1/cities", s.handleCities)
	mux.HandleFunc("/api/v1/city/", s.handleCityDetail)
	mux.HandleFunc("/api/v1/generals", s.handleGenerals)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/map", s.handleMap)

	mux.HandleFunc("/api/v1/turn/end", s.adminOnly(RateLimitMiddleware(turnLimiter, s.handleTurnEnd)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins. Set
// CORS_ORIGINS to a comma-separated list; localhost dev servers are
// always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
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

// adminOnly requires a bearer token on POST when AdminKey is set.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey != "" {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.State()
	resp := map[string]any{
		"year":           st.Date.Year,
		"month":          st.Date.Month,
		"phase":          st.Phase,
		"player_faction": st.PlayerFaction,
		"action_points":  st.ActionPoints,
		"factions":       len(st.Factions),
		"cities":         len(st.Cities),
		"generals":       len(st.Generals),
		"events":         len(st.Events),
	}
	if winner, ok := turn.Winner(st); ok {
		resp["winner"] = winner
	}
	writeJSON(w, resp)
}

type factionSummary struct {
	ID       domain.FactionID `json:"id"`
	Name     string           `json:"name"`
	Leader   string           `json:"leader"`
	Cities   int              `json:"cities"`
	Generals int              `json:"generals"`
	Troops   int              `json:"troops"`
	Gold     int              `json:"gold"`
}

func (s *Server) summarize(st *domain.GameState, f *domain.Faction) factionSummary {
	sum := factionSummary{
		ID: f.ID, Name: f.Name,
		Cities: len(f.Cities), Generals: len(f.Generals),
	}
	if leader := st.Generals[f.LeaderID]; leader != nil {
		sum.Leader = leader.Name
	}
	for _, cid := range f.Cities {
		sum.Troops += domain.CityTroops(st, cid)
		sum.Gold += st.Cities[cid].Resources.Gold
	}
	return sum
}

func (s *Server) handleFactions(w http.ResponseWriter, r *http.Request) {
	st := s.State()
	out := make([]factionSummary, 0, len(st.Factions))
	for _, id := range st.SortedFactionIDs() {
		out = append(out, s.summarize(st, st.Factions[id]))
	}
	writeJSON(w, out)
}

func (s *Server) handleFactionDetail(w http.ResponseWriter, r *http.Request) {
	id := domain.FactionID(strings.TrimPrefix(r.URL.Path, "/api/v1/faction/"))
	st := s.State()
	f, ok := st.Factions[id]
	if !ok {
		http.Error(w, "faction not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"faction": f,
		"summary": s.summarize(st, f),
	})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	st := s.State()
	out := make([]*domain.City, 0, len(st.Cities))
	for _, id := range st.SortedCityIDs() {
		out = append(out, st.Cities[id])
	}
	writeJSON(w, out)
}

func (s *Server) handleCityDetail(w http.ResponseWriter, r *http.Request) {
	id := domain.CityID(strings.TrimPrefix(r.URL.Path, "/api/v1/city/"))
	st := s.State()
	c, ok := st.Cities[id]
	if !ok {
		http.Error(w, "city not found", http.StatusNotFound)
		return
	}
	garrison := make([]*domain.General, 0, len(c.Stationed))
	for _, gid := range c.Stationed {
		if g := st.Generals[gid]; g != nil {
			garrison = append(garrison, g)
		}
	}
	writeJSON(w, map[string]any{
		"city":     c,
		"garrison": garrison,
		"troops":   domain.CityTroops(st, id),
	})
}

func (s *Server) handleGenerals(w http.ResponseWriter, r *http.Request) {
	st := s.State()
	out := make([]*domain.General, 0, len(st.Generals))
	for _, id := range st.SortedGeneralIDs() {
		out = append(out, st.Generals[id])
	}
	writeJSON(w, out)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	st := s.State()
	events := st.Events
	if t := r.URL.Query().Get("type"); t != "" {
		var filtered []domain.GameEvent
		for _, e := range events {
			if e.Type == domain.EventType(t) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	// Newest first.
	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	out := make([]domain.GameEvent, 0, limit)
	for i := len(events) - 1; i >= start; i-- {
		out = append(out, events[i])
	}
	writeJSON(w, out)
}

// handleMap returns positions and adjacency for a map renderer.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	type node struct {
		ID          domain.CityID    `json:"id"`
		Name        string           `json:"name"`
		Faction     domain.FactionID `json:"faction"`
		X           int              `json:"x"`
		Y           int              `json:"y"`
		Scale       domain.CityScale `json:"scale"`
		Connections []domain.CityID  `json:"connections"`
	}
	st := s.State()
	nodes := make([]node, 0, len(st.Cities))
	for _, id := range st.SortedCityIDs() {
		c := st.Cities[id]
		nodes = append(nodes, node{
			ID: c.ID, Name: c.Name, Faction: c.FactionID,
			X: c.Position.X, Y: c.Position.Y,
			Scale: c.Scale, Connections: c.Connections,
		})
	}
	writeJSON(w, map[string]any{"cities": nodes})
}

// handleTurnEnd runs the full turn-end sequence and swaps in the
// successor state.
func (s *Server) handleTurnEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	next := s.Orch.EndPlayerTurn(r.Context(), s.state)
	advanced := next != s.state
	s.state = next
	s.mu.Unlock()

	if !advanced {
		http.Error(w, "turn already in progress", http.StatusConflict)
		return
	}

	resp := map[string]any{
		"year":   next.Date.Year,
		"month":  next.Date.Month,
		"phase":  next.Phase,
		"events": len(next.Events),
	}
	if winner, ok := turn.Winner(next); ok {
		resp["winner"] = winner
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
