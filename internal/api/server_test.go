package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/orcwars/internal/agents"
	"github.com/talgya/orcwars/internal/engine"
	"github.com/talgya/orcwars/internal/persistence"
	"github.com/talgya/orcwars/internal/player"
	"github.com/talgya/orcwars/internal/world"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := world.SmallTestConfig()
	m := world.Generate(cfg)
	sim := engine.NewSimulation(cfg.Seed, m, agents.NewSpawner(cfg.Seed, agents.DefaultSpawnConfig()), player.New())
	sim.SpawnTick(1)
	sim.TickFrame(1, 1.0/60)

	return &Server{
		Sim:            sim,
		Eng:            engine.NewEngine(),
		AdminKey:       "secret",
		SnapshotPath:   filepath.Join(t.TempDir(), "world.snap.zst"),
		RunID:          "run-test",
		StreamInterval: 10 * time.Millisecond,
	}
}

func do(t *testing.T, h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(1), got["tick"])
	assert.Equal(t, "run-test", got["run_id"])
	assert.Equal(t, "00:00:00", got["sim_time"])
	assert.Equal(t, float64(24*24), got["tiles"])
}

func TestAgentsFilter(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	var all []agentSummary
	rec := do(t, h, http.MethodGet, "/api/v1/agents", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 10)

	var elite []agentSummary
	rec = do(t, h, http.MethodGet, "/api/v1/agents?kind=elite", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &elite))
	for _, a := range elite {
		assert.Equal(t, "elite", a.Kind)
	}
	assert.LessOrEqual(t, len(elite), len(all))

	var limited []agentSummary
	rec = do(t, h, http.MethodGet, "/api/v1/agents?limit=3", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &limited))
	assert.Len(t, limited, 3)
}

func TestMapAndTile(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/map", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m struct {
		Rows   int            `json:"rows"`
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, 24, m.Rows)
	total := 0
	for _, n := range m.Counts {
		total += n
	}
	assert.Equal(t, 24*24, total)

	rec = do(t, h, http.MethodGet, "/api/v1/tile?row=2&col=3", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tile map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tile))
	assert.Equal(t, float64(160), tile["x"])
	assert.Equal(t, float64(240), tile["y"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/tile?row=99&col=0", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/tile?row=x", "", "").Code)
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":2}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":2}`, "wrong").Code)

	rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":2}`, "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, s.Eng.Speed())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":-1}`, "secret").Code)

	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, do(t, s.Handler(), http.MethodPost, "/api/v1/speed", `{"speed":1}`, "secret").Code)
}

func TestKill(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	id := s.Sim.AgentsView()[0].ID

	body := fmt.Sprintf(`{"id":%d}`, id)
	rec := do(t, h, http.MethodPost, "/api/v1/kill", body, "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/kill", body, "secret").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/kill", `{"id":99999}`, "secret").Code)
}

func TestSnapshotEndpoint(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/snapshot", "", "").Code)

	rec := do(t, h, http.MethodPost, "/api/v1/snapshot", "", "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/snapshot", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "run-test")
}

func TestHistoryNeedsDB(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s.Handler(), http.MethodGet, "/api/v1/stats/history", "", "").Code)

	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.StartRun(s.Sim.Seed, s.Sim.WorldMap)
	require.NoError(t, err)
	require.NoError(t, db.SaveWorldState(s.Sim))

	s.DB = db
	h := s.Handler()
	rec := do(t, h, http.MethodGet, "/api/v1/stats/history", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []persistence.StatsRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Alive)

	rec = do(t, h, http.MethodGet, "/api/v1/events?source=db", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "spawn")
}

func TestStream(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg streamMsg
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "status", msg.Type)
		assert.Equal(t, uint64(1), msg.Status.Tick)
		assert.Equal(t, 10, msg.Status.Stats.Alive)
	}
}
