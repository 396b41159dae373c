package agents

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/orcwars/internal/world"
)

func agentAt(x, y float64) *Agent {
	return &Agent{ID: 1, Position: world.Vec2{X: x, Y: y}, State: StateAlive}
}

func TestSteeringEngageBoundary(t *testing.T) {
	st := DefaultSteering()
	target := &world.Vec2{}

	far := agentAt(375.0, 0)
	near := agentAt(374.99, 0)
	moved := st.SteerTick([]*Agent{far, near}, target, 0)

	assert.Equal(t, 1, moved)
	assert.Equal(t, StateIdleFront, far.State)
	assert.Equal(t, world.Vec2{X: 375.0}, far.Position)

	assert.Equal(t, StateRunLeft, near.State)
	assert.InDelta(t, 374.99-DefaultSpeed, near.Position.X, 1e-9)
	assert.InDelta(t, 0, near.Position.Y, 1e-9)
}

func TestSteeringSpawnedAtRadiusScenario(t *testing.T) {
	st := DefaultSteering()
	target := &world.Vec2{}
	s := NewSpawner(1, DefaultSpawnConfig())

	idle := s.SpawnAt(AnnulusPoint(*target, 0, 2000), KindCommon)
	assert.InDelta(t, 2000, idle.Position.X, 1e-9)
	st.SteerTick([]*Agent{idle}, target, 0)
	assert.Equal(t, StateIdleFront, idle.State)
	assert.InDelta(t, 2000, idle.Position.X, 1e-9)

	// The bearing is measured from the agent to the target, so an agent east
	// of the target runs left and one west of it runs right.
	east := s.SpawnAt(AnnulusPoint(*target, 0, 300), KindCommon)
	west := s.SpawnAt(AnnulusPoint(*target, math.Pi, 300), KindCommon)
	st.SteerTick([]*Agent{east, west}, target, 0)

	assert.Equal(t, StateRunLeft, east.State)
	assert.InDelta(t, 300-DefaultSpeed, east.Position.X, 1e-9)
	assert.Equal(t, StateRunRight, west.State)
	assert.InDelta(t, -300+DefaultSpeed, west.Position.X, 1e-9)
}

func TestHeadingEdges(t *testing.T) {
	cases := []struct {
		angle float64
		want  MotionState
	}{
		{0, StateRunRight},
		{25.0, StateRunRight},
		{25.01, StateRunBack},
		{26, StateRunBack},
		{90, StateRunBack},
		{155, StateRunBack},
		{155.5, StateRunLeft},
		{180, StateRunLeft},
		{205, StateRunLeft},
		{205.5, StateRunFront},
		{270, StateRunFront},
		{334.99, StateRunFront},
		{335, StateRunRight},
		{359.99, StateRunRight},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Heading(c.angle), "angle %v", c.angle)
		assert.Equal(t, c.want, ClassifyMotion(100, c.angle), "angle %v", c.angle)
	}
	assert.Equal(t, StateIdleFront, ClassifyMotion(375, 90))
	assert.Equal(t, StateIdleFront, ClassifyMotion(math.NaN(), 90))
}

func TestSteeringCardinalDirections(t *testing.T) {
	st := DefaultSteering()
	target := &world.Vec2{X: 1000, Y: 1000}

	below := agentAt(1000, 900) // target is up
	above := agentAt(1000, 1100)
	st.SteerTick([]*Agent{below, above}, target, 0)

	assert.Equal(t, StateRunBack, below.State)
	assert.Equal(t, StateRunFront, above.State)
	assert.InDelta(t, 900+DefaultSpeed, below.Position.Y, 1e-9)
	assert.InDelta(t, 1100-DefaultSpeed, above.Position.Y, 1e-9)
}

func TestSteeringNoOps(t *testing.T) {
	st := DefaultSteering()
	a := agentAt(10, 0)

	assert.Equal(t, 0, st.SteerTick([]*Agent{a}, nil, 0))
	assert.Equal(t, StateAlive, a.State)
	assert.Equal(t, 0, st.SteerTick(nil, &world.Vec2{}, 0))
}

func TestSteeringSkipsDead(t *testing.T) {
	st := DefaultSteering()
	a := agentAt(10, 0)
	a.State = StateDead

	assert.Equal(t, 0, st.SteerTick([]*Agent{a, nil}, &world.Vec2{}, 0))
	assert.Equal(t, StateDead, a.State)
	assert.Equal(t, world.Vec2{X: 10}, a.Position)
}

func TestSteeringDoesNotOvershoot(t *testing.T) {
	st := DefaultSteering()
	a := agentAt(3, 4)
	st.SteerTick([]*Agent{a}, &world.Vec2{}, 0)
	assert.InDelta(t, 0, a.Position.X, 1e-9)
	assert.InDelta(t, 0, a.Position.Y, 1e-9)

	// Standing on the target: no NaN, no movement.
	st.SteerTick([]*Agent{a}, &world.Vec2{X: a.Position.X, Y: a.Position.Y}, 0)
	assert.False(t, math.IsNaN(a.Position.X))
	assert.Equal(t, StateRunRight, a.State)
}

func TestSteeringTimeScaled(t *testing.T) {
	st := DefaultSteering()
	st.TimeScaled = true
	a := agentAt(200, 0)

	st.SteerTick([]*Agent{a}, &world.Vec2{}, 2.0/DefaultReferenceTPS)
	assert.InDelta(t, 200-2*DefaultSpeed, a.Position.X, 1e-9)

	st.SteerTick([]*Agent{a}, &world.Vec2{}, 0)
	assert.InDelta(t, 200-2*DefaultSpeed, a.Position.X, 1e-9)
}

func TestSteeringConvergesOnTarget(t *testing.T) {
	st := DefaultSteering()
	a := agentAt(-200, 150)
	target := &world.Vec2{X: 40, Y: -20}

	prev := world.Distance(a.Position, *target)
	for i := 0; i < 100; i++ {
		st.SteerTick([]*Agent{a}, target, 0)
		d := world.Distance(a.Position, *target)
		require.LessOrEqual(t, d, prev+1e-9)
		prev = d
	}
	assert.InDelta(t, 0, prev, 1e-9)
}
