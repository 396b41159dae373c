// Steering: every tick each agent looks at the player, picks a motion state
// from distance and bearing, and closes in when inside the engagement radius.
package agents

import (
	"github.com/talgya/orcwars/internal/world"
)

const (
	DefaultEngageRadius = 375.0 // World units
	DefaultSpeed        = 6.35  // World units per tick
	DefaultReferenceTPS = 60.0  // Tick rate the per-tick speed was tuned at
)

// Steering holds the chase parameters.
type Steering struct {
	EngageRadius float64
	Speed        float64

	// TimeScaled multiplies Speed by dt*ReferenceTPS. Off by default: agents
	// move a fixed distance per tick while the player moves per second.
	TimeScaled   bool
	ReferenceTPS float64
}

// DefaultSteering returns the standard chase parameters.
func DefaultSteering() Steering {
	return Steering{
		EngageRadius: DefaultEngageRadius,
		Speed:        DefaultSpeed,
		ReferenceTPS: DefaultReferenceTPS,
	}
}

// ClassifyMotion maps distance and bearing (degrees in [0, 360)) to a motion
// state using the default engagement radius.
func ClassifyMotion(distance, angle float64) MotionState {
	return DefaultSteering().Classify(distance, angle)
}

// Classify maps distance and bearing to a motion state. It keeps no memory:
// the same inputs always give the same state.
func (s Steering) Classify(distance, angle float64) MotionState {
	if !(distance < s.EngageRadius) {
		return StateIdleFront
	}
	return Heading(angle)
}

// Heading buckets a bearing in degrees into a run direction. Each literal
// boundary belongs to the sector that names it.
func Heading(angle float64) MotionState {
	switch {
	case angle <= 25 || angle >= 335:
		return StateRunRight
	case angle <= 155:
		return StateRunBack
	case angle <= 205:
		return StateRunLeft
	default:
		return StateRunFront
	}
}

// step returns how far an agent travels this tick.
func (s Steering) step(dt float64) float64 {
	if !s.TimeScaled {
		return s.Speed
	}
	if dt <= 0 {
		return 0
	}
	return s.Speed * dt * s.ReferenceTPS
}

// SteerTick updates every living agent's state and moves the engaged ones
// toward target. It returns the number of agents that moved. A nil target is
// a no-op.
func (s Steering) SteerTick(list []*Agent, target *world.Vec2, dt float64) int {
	if target == nil || len(list) == 0 {
		return 0
	}

	stride := s.step(dt)
	moved := 0
	for _, a := range list {
		if a == nil || !a.Alive() {
			continue
		}

		delta := target.Sub(a.Position)
		dist := delta.Len()
		a.State = s.Classify(dist, delta.AngleDeg())
		if !a.State.IsRunning() || dist == 0 {
			continue
		}

		// Never step past the target; an unclamped step makes the agent
		// oscillate around it once within one stride.
		d := stride
		if d > dist {
			d = dist
		}
		a.Position = a.Position.Add(delta.Normalize().Scale(d))
		moved++
	}
	return moved
}
