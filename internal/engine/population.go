// Population control: periodic top-up from the spawner and removal of
// agents that other systems have marked dead.
package engine

import (
	"log/slog"

	"github.com/talgya/orcwars/internal/agents"
)

// SpawnTick tops the population up toward the spawner's cap.
func (s *Simulation) SpawnTick(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Spawner == nil {
		return
	}
	before := agents.CountAlive(s.Agents)
	added := s.Spawner.Fill(s.Agents, s.target())
	if len(added) == 0 {
		return
	}

	for _, a := range added {
		a.BornTick = tick
	}
	s.Agents = append(s.Agents, added...)
	s.Stats.TotalSpawned += uint64(len(added))
	s.record(tick, "spawn", "%d enemies spawned", len(added))

	slog.Debug("enemies spawned", "tick", tick, "added", len(added), "alive_before", before)
}

// Kill marks an agent dead. It is removed at the end of the current tick.
// It reports whether a living agent with that ID existed.
func (s *Simulation) Kill(id agents.AgentID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.Agents {
		if a.ID == id && a.Alive() {
			a.State = agents.StateDead
			return true
		}
	}
	return false
}

// reapDead drops dead agents in place. Callers hold the write lock.
func (s *Simulation) reapDead(tick uint64) {
	kept := s.Agents[:0]
	for _, a := range s.Agents {
		if a.Alive() {
			kept = append(kept, a)
			continue
		}
		s.Stats.TotalKilled++
		s.record(tick, "death", "enemy %d (%s) destroyed", a.ID, a.Kind)
	}
	for i := len(kept); i < len(s.Agents); i++ {
		s.Agents[i] = nil
	}
	s.Agents = kept
}
