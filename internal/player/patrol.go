package player

import (
	"math"

	"github.com/talgya/orcwars/internal/world"
)

// Patrol walks the player around a circle so a headless run has a moving
// target. It stands in for keyboard input.
type Patrol struct {
	Center  world.Vec2
	Radius  float64
	Period  float64 // Seconds per lap
	Running bool

	elapsed float64
}

// Waypoint returns the point on the circle at time t.
func (pt *Patrol) Waypoint(t float64) world.Vec2 {
	if pt.Period <= 0 {
		return pt.Center
	}
	theta := 2 * math.Pi * t / pt.Period
	return world.Vec2{
		X: pt.Center.X + pt.Radius*math.Cos(theta),
		Y: pt.Center.Y + pt.Radius*math.Sin(theta),
	}
}

// Drive moves p toward the next waypoint for dt seconds.
func (pt *Patrol) Drive(p *Player, dt float64) {
	if dt <= 0 {
		return
	}
	pt.elapsed += dt
	dir := pt.Waypoint(pt.elapsed).Sub(p.Position)
	if dir.Len() < 1 {
		p.Move(world.Vec2{}, false, dt)
		return
	}
	p.Move(dir.Normalize(), pt.Running, dt)
}
