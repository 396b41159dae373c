// Simulation ties together the map, the enemies and the player and runs them
// each tick.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/orcwars/internal/agents"
	"github.com/talgya/orcwars/internal/player"
	"github.com/talgya/orcwars/internal/world"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Simulation holds the complete world state. The engine callbacks are the
// only writers; readers go through the view methods.
type Simulation struct {
	mu sync.RWMutex

	Seed     int64
	WorldMap *world.Map
	Agents   []*agents.Agent
	Player   *player.Player
	Patrol   *player.Patrol // Optional headless driver for the player

	Spawner  *agents.Spawner
	Steering agents.Steering
	Animator agents.Animator

	Events   []Event // Recent events, bounded by maxEvents
	LastTick uint64  // Most recent tick processed

	Stats SimStats
}

// Event is a notable occurrence in the world.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "spawn", "death", ...
}

// SimStats tracks aggregate population statistics.
type SimStats struct {
	Alive        int    `json:"alive"`
	Elite        int    `json:"elite"`
	Common       int    `json:"common"`
	Engaged      int    `json:"engaged"` // Agents running at the player
	TotalSpawned uint64 `json:"total_spawned"`
	TotalKilled  uint64 `json:"total_killed"`
}

// NewSimulation creates a Simulation from generated components.
func NewSimulation(seed int64, m *world.Map, sp *agents.Spawner, p *player.Player) *Simulation {
	sim := &Simulation{
		Seed:     seed,
		WorldMap: m,
		Player:   p,
		Spawner:  sp,
		Steering: agents.DefaultSteering(),
		Animator: agents.Animator{Interval: agents.DefaultFrameInterval},
	}
	sim.updateStats()
	return sim
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// TickFrame runs every tick: player movement, steering, animation, reaping.
func (s *Simulation) TickFrame(tick uint64, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	if s.Patrol != nil && s.Player != nil {
		s.Patrol.Drive(s.Player, dt)
	}

	s.Steering.SteerTick(s.Agents, s.target(), dt)
	s.Animator.AdvanceAll(s.Agents, dt)
	if s.WorldMap != nil {
		s.WorldMap.AnimateWater(dt)
	}
	s.reapDead(tick)
}

// TickReport logs a population summary.
func (s *Simulation) TickReport(tick uint64) {
	s.mu.Lock()
	s.updateStats()
	stats := s.Stats
	s.mu.Unlock()

	slog.Info("population report",
		"tick", tick,
		"alive", stats.Alive,
		"elite", stats.Elite,
		"engaged", stats.Engaged,
		"spawned", stats.TotalSpawned,
		"killed", stats.TotalKilled,
	)
}

func (s *Simulation) target() *world.Vec2 {
	if s.Player == nil {
		return nil
	}
	return s.Player.Target()
}

func (s *Simulation) record(tick uint64, category, format string, args ...any) {
	s.Events = append(s.Events, Event{
		Tick:        tick,
		Description: fmt.Sprintf(format, args...),
		Category:    category,
	})
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

func (s *Simulation) updateStats() {
	s.Stats = ComputeStats(s.Agents, s.Stats)
}

// ComputeStats counts the living population of list. Cumulative totals are
// carried over from prev.
func ComputeStats(list []*agents.Agent, prev SimStats) SimStats {
	st := SimStats{
		TotalSpawned: prev.TotalSpawned,
		TotalKilled:  prev.TotalKilled,
	}
	for _, a := range list {
		if a == nil || !a.Alive() {
			continue
		}
		st.Alive++
		if a.Kind == agents.KindElite {
			st.Elite++
		} else {
			st.Common++
		}
		if a.State.IsRunning() {
			st.Engaged++
		}
	}
	return st
}
