package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/orcwars/internal/world"
)

func TestMoveIsTimeScaled(t *testing.T) {
	p := New()
	p.Move(world.Vec2{X: 1}, false, 0.5)
	assert.InDelta(t, SpawnPosition.X+WalkSpeed*0.5, p.Position.X, 1e-9)

	p = New()
	p.Move(world.Vec2{Y: -1}, true, 0.25)
	assert.InDelta(t, SpawnPosition.Y-RunSpeed*0.25, p.Position.Y, 1e-9)
}

func TestRunningDrainsAndLocks(t *testing.T) {
	p := New()
	for i := 0; i < 100; i++ {
		p.Move(world.Vec2{X: 1}, true, 0.1)
	}
	assert.False(t, p.CanRun)
	assert.Equal(t, 0.0, p.Stamina)

	before := p.Position.X
	p.Move(world.Vec2{X: 1}, true, 0.1)
	assert.InDelta(t, before+WalkSpeed*0.1, p.Position.X, 1e-9)
	assert.InDelta(t, StaminaRegen*0.1, p.Stamina, 1e-9)
}

func TestRunResumesAfterRecovery(t *testing.T) {
	p := New()
	p.Stamina = 0
	p.CanRun = false

	for i := 0; i < 49; i++ {
		p.Move(world.Vec2{}, false, 0.1)
	}
	assert.False(t, p.CanRun)
	p.Move(world.Vec2{}, false, 0.2)
	assert.True(t, p.CanRun)

	for i := 0; i < 1000; i++ {
		p.Move(world.Vec2{}, false, 0.1)
	}
	assert.Equal(t, MaxStamina, p.Stamina)
}

func TestTargetAbsentWhenDead(t *testing.T) {
	p := New()
	require.NotNil(t, p.Target())
	assert.Equal(t, SpawnPosition, *p.Target())

	p.Damage(150)
	assert.Equal(t, 0, p.Health)
	assert.Nil(t, p.Target())

	var none *Player
	assert.Nil(t, none.Target())
}

func TestPatrolStaysNearCircle(t *testing.T) {
	p := New()
	pt := &Patrol{Center: p.Position, Radius: 1500, Period: 30}
	p.Position = pt.Waypoint(0)

	for i := 0; i < 600; i++ {
		pt.Drive(p, 1.0/60)
		d := world.Distance(pt.Center, p.Position)
		assert.InDelta(t, 1500, d, 50)
	}
}
