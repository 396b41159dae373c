// Package agents provides the enemy data model, population spawning and
// per-tick steering toward the player.
package agents

import (
	"github.com/talgya/orcwars/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Kind selects the enemy variant. Each kind uses its own atlas region.
type Kind uint8

const (
	KindCommon Kind = iota // Rank-and-file orc
	KindElite              // Mini-boss, one in four spawns
)

// MotionState is the discrete animation/movement state of an agent.
type MotionState uint8

const (
	StateAlive MotionState = iota // Freshly spawned, not yet steered
	StateIdleFront
	StateIdleBack
	StateIdleLeft
	StateIdleRight
	StateRunFront
	StateRunBack
	StateRunLeft
	StateRunRight
	StateDead
)

// Agent is one enemy in the simulation.
type Agent struct {
	ID       AgentID     `json:"id"`
	Position world.Vec2  `json:"position"`
	Kind     Kind        `json:"kind"`
	State    MotionState `json:"state"`
	Frame    uint32      `json:"frame"` // Atlas index of the current sprite
	BornTick uint64      `json:"born_tick"`

	animClock float64
}

// Alive reports whether the agent still takes part in steering.
func (a *Agent) Alive() bool {
	return a.State != StateDead
}

// IsRunning reports whether the state is one of the four run directions.
func (s MotionState) IsRunning() bool {
	return s >= StateRunFront && s <= StateRunRight
}

// CountAlive returns the number of agents not marked dead.
func CountAlive(list []*Agent) int {
	n := 0
	for _, a := range list {
		if a != nil && a.Alive() {
			n++
		}
	}
	return n
}

var kindNames = [...]string{"common", "elite"}

// String returns the kind's name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var stateNames = [...]string{
	"alive", "idle_front", "idle_back", "idle_left", "idle_right",
	"run_front", "run_back", "run_left", "run_right", "dead",
}

// String returns the state's name.
func (s MotionState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
