// Package player models the target the enemies chase: position, health and
// the stamina meter that gates running. Input handling lives elsewhere;
// callers hand Move a direction.
package player

import (
	"math"

	"github.com/talgya/orcwars/internal/world"
)

const (
	WalkSpeed    = 450.0 // World units per second
	RunSpeed     = 800.0
	MaxHealth    = 100
	MaxStamina   = 100.0
	StaminaDrain = 10.0 // Per second while running
	StaminaRegen = 5.0  // Per second while walking or standing
	RunResume    = 25.0 // Stamina needed before running is allowed again
)

// SpawnPosition is where the player enters the world.
var SpawnPosition = world.Vec2{X: 10000, Y: 10000}

// Player is the chased target.
type Player struct {
	Position world.Vec2 `json:"position"`
	Health   int        `json:"health"`
	Stamina  float64    `json:"stamina"`
	CanRun   bool       `json:"can_run"`
}

// New creates a player at SpawnPosition with full health and stamina.
func New() *Player {
	return &Player{
		Position: SpawnPosition,
		Health:   MaxHealth,
		Stamina:  MaxStamina,
		CanRun:   true,
	}
}

// Alive reports whether the player still has health.
func (p *Player) Alive() bool {
	return p != nil && p.Health > 0
}

// Target returns a snapshot of the player's position for steering, or nil
// when there is no living player.
func (p *Player) Target() *world.Vec2 {
	if !p.Alive() {
		return nil
	}
	pos := p.Position
	return &pos
}

// Damage subtracts n health, clamping at zero.
func (p *Player) Damage(n int) {
	p.Health -= n
	if p.Health < 0 {
		p.Health = 0
	}
}

// Move advances the player by dir (each axis clamped to [-1, 1]) for dt
// seconds. Running burns stamina even when dir is zero; once it is spent,
// running stays locked until stamina recovers to RunResume.
func (p *Player) Move(dir world.Vec2, running bool, dt float64) {
	if !p.Alive() || dt <= 0 {
		return
	}

	speed := WalkSpeed
	if running && p.CanRun {
		speed = RunSpeed
		p.Stamina -= StaminaDrain * dt
		if p.Stamina <= 0 {
			p.Stamina = 0
			p.CanRun = false
		}
	} else {
		p.Stamina = math.Min(MaxStamina, p.Stamina+StaminaRegen*dt)
		if p.Stamina >= RunResume {
			p.CanRun = true
		}
	}

	step := world.Vec2{X: clampUnit(dir.X), Y: clampUnit(dir.Y)}
	p.Position = p.Position.Add(step.Scale(speed * dt))
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
