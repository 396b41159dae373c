// Package persistence provides SQL storage for run metadata, the enemy
// population and statistics history. The map itself is never stored; it is
// regenerated from the seed.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/talgya/orcwars/internal/agents"
	"github.com/talgya/orcwars/internal/engine"
	"github.com/talgya/orcwars/internal/player"
	"github.com/talgya/orcwars/internal/world"
)

// DB wraps a SQL connection for world state persistence.
type DB struct {
	conn  *sqlx.DB
	runID string

	eventsThrough uint64 // Highest event tick already written
}

// Open opens or creates a database. DSNs starting with postgres:// or
// postgresql:// use PostgreSQL; anything else is a SQLite file path.
func Open(dsn string) (*DB, error) {
	driver, source := driverFor(dsn)
	conn, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == "sqlite" {
		// SQLite allows one writer; keep the pool from contending with itself.
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func driverFor(dsn string) (driver, source string) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", dsn
	}
	return "sqlite", dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Driver returns the name of the SQL driver in use.
func (db *DB) Driver() string {
	return db.conn.DriverName()
}

func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed BIGINT NOT NULL,
			grid_rows INTEGER NOT NULL,
			grid_cols INTEGER NOT NULL,
			map_digest TEXT NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS agents (
			id BIGINT PRIMARY KEY,
			pos_x DOUBLE PRECISION NOT NULL,
			pos_y DOUBLE PRECISION NOT NULL,
			kind INTEGER NOT NULL,
			state INTEGER NOT NULL,
			frame BIGINT NOT NULL,
			born_tick BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id TEXT NOT NULL,
			tick BIGINT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stats (
			run_id TEXT NOT NULL,
			tick BIGINT NOT NULL,
			alive INTEGER NOT NULL,
			elite INTEGER NOT NULL,
			engaged INTEGER NOT NULL,
			spawned BIGINT NOT NULL,
			killed BIGINT NOT NULL,
			PRIMARY KEY (run_id, tick)
		)`,
		`CREATE TABLE IF NOT EXISTS world_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick)`,
	}
	for _, s := range stmts {
		if _, err := db.conn.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// StartRun records a new run and returns its ID.
func (db *DB) StartRun(seed int64, m *world.Map) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(db.conn.Rebind(
		`INSERT INTO runs (id, seed, grid_rows, grid_cols, map_digest, started_at) VALUES (?, ?, ?, ?, ?, ?)`),
		id, seed, m.Config.Rows, m.Config.Cols, m.Digest(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	db.runID = id
	if err := db.SaveMeta("run_id", id); err != nil {
		return "", err
	}
	return id, nil
}

// RunID returns the active run, if one was started.
func (db *DB) RunID() string {
	return db.runID
}

type agentRow struct {
	ID       uint64  `db:"id"`
	PosX     float64 `db:"pos_x"`
	PosY     float64 `db:"pos_y"`
	Kind     int     `db:"kind"`
	State    int     `db:"state"`
	Frame    int64   `db:"frame"`
	BornTick int64   `db:"born_tick"`
}

// SaveAgents writes all agents to the database (full replace).
func (db *DB) SaveAgents(agentList []agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(tx.Rebind(`INSERT INTO agents
		(id, pos_x, pos_y, kind, state, frame, born_tick)
		VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		_, err := stmt.Exec(
			int64(a.ID), a.Position.X, a.Position.Y,
			int(a.Kind), int(a.State), int64(a.Frame), int64(a.BornTick),
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// LoadAgents reads the saved population.
func (db *DB) LoadAgents() ([]*agents.Agent, error) {
	var rows []agentRow
	if err := db.conn.Select(&rows, "SELECT id, pos_x, pos_y, kind, state, frame, born_tick FROM agents ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select agents: %w", err)
	}
	out := make([]*agents.Agent, 0, len(rows))
	for _, r := range rows {
		out = append(out, &agents.Agent{
			ID:       agents.AgentID(r.ID),
			Position: world.Vec2{X: r.PosX, Y: r.PosY},
			Kind:     agents.Kind(r.Kind),
			State:    agents.MotionState(r.State),
			Frame:    uint32(r.Frame),
			BornTick: uint64(r.BornTick),
		})
	}
	return out, nil
}

// SaveEvents appends events newer than the last save.
func (db *DB) SaveEvents(events []engine.Event) error {
	var fresh []engine.Event
	for _, e := range events {
		if e.Tick > db.eventsThrough {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := tx.Rebind("INSERT INTO events (run_id, tick, description, category) VALUES (?, ?, ?, ?)")
	for _, e := range fresh {
		if _, err := tx.Exec(q, db.runID, int64(e.Tick), e.Description, e.Category); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	db.eventsThrough = fresh[len(fresh)-1].Tick
	return nil
}

// RecentEvents returns the active run's most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events, db.conn.Rebind(
		"SELECT tick, description, category FROM events WHERE run_id = ? ORDER BY tick DESC LIMIT ?"),
		db.runID, limit,
	)
	return events, err
}

// StatsRow is one sample of the population history.
type StatsRow struct {
	Tick    uint64 `db:"tick" json:"tick"`
	Alive   int    `db:"alive" json:"alive"`
	Elite   int    `db:"elite" json:"elite"`
	Engaged int    `db:"engaged" json:"engaged"`
	Spawned uint64 `db:"spawned" json:"spawned"`
	Killed  uint64 `db:"killed" json:"killed"`
}

// SaveStats records a statistics sample for the active run.
func (db *DB) SaveStats(tick uint64, st engine.SimStats) error {
	_, err := db.conn.Exec(db.conn.Rebind(
		`INSERT INTO stats (run_id, tick, alive, elite, engaged, spawned, killed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, tick) DO UPDATE SET
			alive = excluded.alive, elite = excluded.elite, engaged = excluded.engaged,
			spawned = excluded.spawned, killed = excluded.killed`),
		db.runID, int64(tick), st.Alive, st.Elite, st.Engaged, int64(st.TotalSpawned), int64(st.TotalKilled),
	)
	return err
}

// StatsHistory returns the active run's samples, oldest first.
func (db *DB) StatsHistory(limit int) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows, db.conn.Rebind(
		`SELECT tick, alive, elite, engaged, spawned, killed FROM stats
		WHERE run_id = ? ORDER BY tick DESC LIMIT ?`),
		db.runID, limit,
	)
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(db.conn.Rebind(
		"INSERT INTO world_meta (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value"),
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, db.conn.Rebind("SELECT value FROM world_meta WHERE key = ?"), key)
	return value, err
}

// HasWorldState reports whether a previous run saved its state.
func (db *DB) HasWorldState() bool {
	_, err := db.GetMeta("last_tick")
	return err == nil
}

// SavedSeed returns the seed of the saved world, if any.
func (db *DB) SavedSeed() (int64, bool) {
	v, err := db.GetMeta("seed")
	if err != nil {
		return 0, false
	}
	seed, err := strconv.ParseInt(v, 10, 64)
	return seed, err == nil
}

// LoadProgress reads the tick, the cumulative counters and the player saved
// by SaveWorldState. Missing keys leave their fields zero.
func (db *DB) LoadProgress() (engine.Progress, error) {
	var pr engine.Progress
	readUint := func(key string) (uint64, error) {
		v, err := db.GetMeta(key)
		if err != nil {
			return 0, nil
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("meta %s: %w", key, err)
		}
		return n, nil
	}

	var err error
	if pr.Tick, err = readUint("last_tick"); err != nil {
		return pr, err
	}
	if pr.TotalSpawned, err = readUint("total_spawned"); err != nil {
		return pr, err
	}
	if pr.TotalKilled, err = readUint("total_killed"); err != nil {
		return pr, err
	}
	if raw, err := db.GetMeta("player"); err == nil {
		var p player.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return pr, fmt.Errorf("decode player: %w", err)
		}
		pr.Player = &p
	}
	return pr, nil
}

// SaveWorldState performs a full save of the simulation.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	var (
		list   []agents.Agent
		events []engine.Event
		stats  engine.SimStats
		tick   uint64
		seed   int64
		plr    *player.Player
	)
	sim.WithRead(func(s *engine.Simulation) {
		list = make([]agents.Agent, 0, len(s.Agents))
		for _, a := range s.Agents {
			list = append(list, *a)
		}
		events = append(events, s.Events...)
		stats = engine.ComputeStats(s.Agents, s.Stats)
		tick = s.LastTick
		seed = s.Seed
		if s.Player != nil {
			p := *s.Player
			plr = &p
		}
	})

	slog.Info("saving world state", "agents", len(list), "tick", tick)

	if err := db.SaveAgents(list); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}
	if err := db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if db.runID != "" {
		if err := db.SaveStats(tick, stats); err != nil {
			return fmt.Errorf("save stats: %w", err)
		}
	}
	if err := db.SaveMeta("seed", strconv.FormatInt(seed, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("total_spawned", strconv.FormatUint(stats.TotalSpawned, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("total_killed", strconv.FormatUint(stats.TotalKilled, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if plr != nil {
		raw, err := json.Marshal(plr)
		if err != nil {
			return fmt.Errorf("encode player: %w", err)
		}
		if err := db.SaveMeta("player", string(raw)); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved")
	return nil
}
