// Package api provides the HTTP API for observing a running world.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/orcwars/internal/agents"
	"github.com/talgya/orcwars/internal/engine"
	"github.com/talgya/orcwars/internal/persistence"
	"github.com/talgya/orcwars/internal/snapshot"
	"github.com/talgya/orcwars/internal/world"
)

const (
	maxStreamConns        = 8
	defaultStreamInterval = time.Second
)

// Server serves the world state over HTTP.
type Server struct {
	Sim          *engine.Simulation
	Eng          *engine.Engine
	DB           *persistence.DB // Optional; history endpoints return 503 without it
	Port         int
	AdminKey     string // Bearer token for POST endpoints. Empty = POST disabled.
	SnapshotPath string
	RunID        string

	// StreamInterval is the push period of /api/v1/stream.
	StreamInterval time.Duration

	streamConns   atomic.Int32
	streamLimiter *RateLimiter
	upgrader      websocket.Upgrader
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	if s.streamLimiter == nil {
		s.streamLimiter = NewRateLimiter(20, time.Minute)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/tile", s.handleTile)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)

	// WebSocket status feed, rate limited per client address.
	mux.HandleFunc("/api/v1/stream", RateLimitMiddleware(s.streamLimiter, s.handleStream))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/kill", s.adminOnly(s.handleKill))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

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

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
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

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no ORCWARS_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// statusPayload is shared by /status and the stream.
type statusPayload struct {
	engine.Status
	RunID   string  `json:"run_id,omitempty"`
	SimTime string  `json:"sim_time"`
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
}

func (s *Server) status() statusPayload {
	st := s.Sim.Status()
	p := statusPayload{Status: st, RunID: s.RunID}
	tps := engine.DefaultTPS
	if s.Eng != nil {
		tps = s.Eng.TPS
		p.Speed = s.Eng.Speed()
		p.Running = s.Eng.Running()
	}
	p.SimTime = engine.SimTime(st.Tick, tps)
	return p
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status())
}

type agentSummary struct {
	ID       agents.AgentID `json:"id"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Kind     string         `json:"kind"`
	State    string         `json:"state"`
	Frame    uint32         `json:"frame"`
	BornTick uint64         `json:"born_tick"`
}

// handleAgents lists agents, optionally filtered by ?kind= and ?state=.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	state := r.URL.Query().Get("state")
	limit := 500
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	result := make([]agentSummary, 0)
	for _, a := range s.Sim.AgentsView() {
		if kind != "" && a.Kind.String() != kind {
			continue
		}
		if state != "" && a.State.String() != state {
			continue
		}
		result = append(result, agentSummary{
			ID:       a.ID,
			X:        a.Position.X,
			Y:        a.Position.Y,
			Kind:     a.Kind.String(),
			State:    a.State.String(),
			Frame:    a.Frame,
			BornTick: a.BornTick,
		})
		if len(result) >= limit {
			break
		}
	}
	writeJSON(w, result)
}

// handleMap returns the grid shape and the per-category tile distribution.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Status()
	counts := s.Sim.TileCounts()

	names := make([]string, 0, len(counts))
	byName := make(map[string]int, len(counts))
	for c, n := range counts {
		name := world.CategoryName(c)
		names = append(names, name)
		byName[name] = n
	}
	sort.Strings(names)

	var cfg world.GenConfig
	s.Sim.WithRead(func(sim *engine.Simulation) {
		if sim.WorldMap != nil {
			cfg = sim.WorldMap.Config
		}
	})

	writeJSON(w, map[string]any{
		"seed":        st.Seed,
		"rows":        cfg.Rows,
		"cols":        cfg.Cols,
		"tile_pixels": cfg.TilePixels,
		"scale":       cfg.ScaleFactor,
		"tiles":       st.Tiles,
		"water":       st.Water,
		"decorations": st.Decor,
		"categories":  names,
		"counts":      byName,
	})
}

// handleTile returns one tile: GET /api/v1/tile?row=R&col=C.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	row, err1 := strconv.Atoi(r.URL.Query().Get("row"))
	col, err2 := strconv.Atoi(r.URL.Query().Get("col"))
	if err1 != nil || err2 != nil {
		http.Error(w, "row and col must be integers", http.StatusBadRequest)
		return
	}
	t, ok := s.Sim.TileAt(world.GridCell{Row: row, Col: col})
	if !ok {
		http.Error(w, "tile not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"row":      t.Cell.Row,
		"col":      t.Cell.Col,
		"category": world.CategoryName(t.Category),
		"texture":  t.Texture,
		"water":    t.IsWater,
		"x":        t.Pos.X,
		"y":        t.Pos.Y,
	})
}

// handleEvents returns recent events, newest last. Falls back to the
// database when ?source=db is given.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	if r.URL.Query().Get("source") == "db" {
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		events, err := s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("events query failed", "error", err)
			http.Error(w, "events query failed", http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []engine.Event{}
		}
		writeJSON(w, events)
		return
	}

	writeJSON(w, s.Sim.RecentEvents(limit))
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	rows, err := s.DB.StatsHistory(limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		// Empty array instead of an error; the table may not have data yet.
		writeJSON(w, []persistence.StatsRow{})
		return
	}
	if rows == nil {
		rows = []persistence.StatsRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 100 {
			http.Error(w, "speed must be 0-100", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// handleKill marks an agent dead: POST {"id": N}.
func (s *Server) handleKill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID agents.AgentID `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if !s.Sim.Kill(req.ID) {
		http.Error(w, "agent not found or already dead", http.StatusNotFound)
		return
	}
	slog.Info("agent killed via API", "id", req.ID)
	writeJSON(w, map[string]any{"killed": req.ID})
}

// handleSnapshot writes a snapshot on POST and reports the last one on GET.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.SnapshotPath == "" {
		http.Error(w, "snapshots disabled", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		snap := snapshot.Capture(s.Sim, s.RunID)
		if err := snapshot.Write(s.SnapshotPath, snap); err != nil {
			slog.Error("snapshot failed", "error", err)
			http.Error(w, "snapshot failed", http.StatusInternalServerError)
			return
		}
		slog.Info("snapshot written", "path", s.SnapshotPath, "tick", snap.Header.Tick)
		writeJSON(w, snap.Header)
		return
	}

	h, err := snapshot.ReadHeader(s.SnapshotPath)
	if err != nil {
		http.Error(w, "no snapshot", http.StatusNotFound)
		return
	}
	writeJSON(w, h)
}

// streamMsg is one frame of the status stream.
type streamMsg struct {
	Type   string        `json:"type"`
	Status statusPayload `json:"status"`
}

// handleStream upgrades to a WebSocket and pushes status frames until the
// client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := s.streamConns.Add(1)
	defer s.streamConns.Add(-1)
	if current > maxStreamConns {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	interval := s.StreamInterval
	if interval <= 0 {
		interval = defaultStreamInterval
	}

	// Reader: detect client close; incoming frames are ignored.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Info("stream client connected", "remote", r.RemoteAddr)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	send := func() error {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteJSON(streamMsg{Type: "status", Status: s.status()})
	}
	if err := send(); err != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			if err := send(); err != nil {
				return
			}
		case <-closed:
			slog.Info("stream client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
