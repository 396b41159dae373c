package engine

import (
	"github.com/talgya/orcwars/internal/agents"
	"github.com/talgya/orcwars/internal/player"
	"github.com/talgya/orcwars/internal/world"
)

// Status is a point-in-time summary safe to hand to other goroutines.
type Status struct {
	Tick   uint64         `json:"tick"`
	Seed   int64          `json:"seed"`
	Stats  SimStats       `json:"stats"`
	Player *player.Player `json:"player,omitempty"`
	Tiles  int            `json:"tiles"`
	Water  int            `json:"water"`
	Decor  int            `json:"decorations"`
}

// Status returns a copy of the headline numbers.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Tick:  s.LastTick,
		Seed:  s.Seed,
		Stats: ComputeStats(s.Agents, s.Stats),
	}
	if s.Player != nil {
		p := *s.Player
		st.Player = &p
	}
	if s.WorldMap != nil {
		st.Tiles = s.WorldMap.TileCount()
		st.Water = s.WorldMap.WaterCount()
		st.Decor = len(s.WorldMap.Decorations)
	}
	return st
}

// AgentsView returns value copies of all agents.
func (s *Simulation) AgentsView() []agents.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]agents.Agent, 0, len(s.Agents))
	for _, a := range s.Agents {
		out = append(out, *a)
	}
	return out
}

// TileAt returns a copy of the tile at a cell.
func (s *Simulation) TileAt(c world.GridCell) (world.Tile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.WorldMap == nil {
		return world.Tile{}, false
	}
	t := s.WorldMap.Get(c)
	if t == nil {
		return world.Tile{}, false
	}
	return *t, true
}

// TileCounts returns the category distribution of the map.
func (s *Simulation) TileCounts() map[world.Category]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.WorldMap == nil {
		return nil
	}
	return world.TileCounts(s.WorldMap)
}

// RecentEvents returns up to n of the newest events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if n >= 0 && len(s.Events) > n {
		start = len(s.Events) - n
	}
	out := make([]Event, len(s.Events)-start)
	copy(out, s.Events[start:])
	return out
}

// WithRead runs fn while holding the read lock, for bulk exports.
func (s *Simulation) WithRead(fn func(*Simulation)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s)
}

// RestoreAgents replaces the population, e.g. after loading from storage.
func (s *Simulation) RestoreAgents(list []*agents.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Agents = list
	var maxID agents.AgentID
	for _, a := range list {
		if a.ID > maxID {
			maxID = a.ID
		}
	}
	if s.Spawner != nil && maxID >= s.Spawner.NextID() {
		s.Spawner.SetNextID(maxID + 1)
	}
	s.updateStats()
}

// Progress is the run state carried across restarts alongside the agents.
type Progress struct {
	Tick         uint64
	TotalSpawned uint64
	TotalKilled  uint64
	Player       *player.Player // nil keeps the current player
}

// RestoreProgress reinstates counters and the player from a previous run.
func (s *Simulation) RestoreProgress(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = p.Tick
	s.Stats.TotalSpawned = p.TotalSpawned
	s.Stats.TotalKilled = p.TotalKilled
	if p.Player != nil {
		restored := *p.Player
		s.Player = &restored
	}
	s.updateStats()
}
