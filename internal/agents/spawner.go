// Agent spawning: tops the enemy population up toward its cap with agents
// placed on an annulus around the player.
package agents

import (
	"math"
	"math/rand"

	"github.com/talgya/orcwars/internal/world"
)

// SpawnConfig controls population growth.
type SpawnConfig struct {
	MaxAgents int     // Population cap
	Batch     int     // Most agents added per spawn tick
	MinRadius float64 // Inner annulus radius (inclusive)
	MaxRadius float64 // Outer annulus radius (exclusive)
}

// DefaultSpawnConfig returns the standard population settings.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		MaxAgents: 300,
		Batch:     10,
		MinRadius: 1000,
		MaxRadius: 5000,
	}
}

// Spawner creates agents for the simulation.
type Spawner struct {
	cfg    SpawnConfig
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64, cfg SpawnConfig) *Spawner {
	return &Spawner{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// Config returns the spawner's settings.
func (s *Spawner) Config() SpawnConfig {
	return s.cfg
}

// SetNextID sets the next agent ID to be issued (used when restoring from DB).
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// NextID returns the ID the next spawned agent will receive.
func (s *Spawner) NextID() AgentID {
	return s.nextID
}

// SpawnTick returns up to batch new agents so that current+len(result) never
// exceeds limit. It returns nil when there is no target or no room.
func (s *Spawner) SpawnTick(current int, target *world.Vec2, limit, batch int) []*Agent {
	if target == nil || limit <= 0 || batch <= 0 || current >= limit {
		return nil
	}
	if current < 0 {
		current = 0
	}
	n := limit - current
	if n > batch {
		n = batch
	}

	spawned := make([]*Agent, 0, n)
	for i := 0; i < n; i++ {
		spawned = append(spawned, s.spawnOne(*target))
	}
	return spawned
}

// Fill runs SpawnTick with the configured cap and batch against the live
// agents in list.
func (s *Spawner) Fill(list []*Agent, target *world.Vec2) []*Agent {
	return s.SpawnTick(CountAlive(list), target, s.cfg.MaxAgents, s.cfg.Batch)
}

func (s *Spawner) spawnOne(target world.Vec2) *Agent {
	angle := s.rng.Float64() * 2 * math.Pi
	radius := s.cfg.MinRadius + s.rng.Float64()*(s.cfg.MaxRadius-s.cfg.MinRadius)
	return s.SpawnAt(AnnulusPoint(target, angle, radius), s.rollKind())
}

// SpawnAt creates an agent of the given kind at an exact position.
func (s *Spawner) SpawnAt(pos world.Vec2, kind Kind) *Agent {
	id := s.nextID
	s.nextID++
	return &Agent{
		ID:       id,
		Position: pos,
		Kind:     kind,
		State:    StateAlive,
		Frame:    SpawnFrame(kind),
	}
}

func (s *Spawner) rollKind() Kind {
	if s.rng.Intn(4) == 0 {
		return KindElite
	}
	return KindCommon
}

// AnnulusPoint returns center offset by radius along angle (radians).
func AnnulusPoint(center world.Vec2, angle, radius float64) world.Vec2 {
	return world.Vec2{
		X: center.X + radius*math.Cos(angle),
		Y: center.Y + radius*math.Sin(angle),
	}
}
