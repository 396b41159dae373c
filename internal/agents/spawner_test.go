package agents

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/orcwars/internal/world"
)

func TestSpawnTickRespectsCapAndBatch(t *testing.T) {
	s := NewSpawner(1, DefaultSpawnConfig())
	target := &world.Vec2{X: 10000, Y: 10000}

	var population []*Agent
	for i := 0; i < 40; i++ {
		added := s.Fill(population, target)
		assert.LessOrEqual(t, len(added), 10)
		population = append(population, added...)
		require.LessOrEqual(t, len(population), 300)
	}
	assert.Len(t, population, 300)
	assert.Empty(t, s.Fill(population, target))
}

func TestSpawnTickTopsUpDeficit(t *testing.T) {
	s := NewSpawner(1, DefaultSpawnConfig())
	target := &world.Vec2{}

	assert.Len(t, s.SpawnTick(297, target, 300, 10), 3)
	assert.Len(t, s.SpawnTick(0, target, 300, 10), 10)
	assert.Len(t, s.SpawnTick(-5, target, 4, 10), 4)
}

func TestSpawnTickNoOps(t *testing.T) {
	s := NewSpawner(1, DefaultSpawnConfig())
	target := &world.Vec2{}

	assert.Nil(t, s.SpawnTick(0, nil, 300, 10))
	assert.Nil(t, s.SpawnTick(300, target, 300, 10))
	assert.Nil(t, s.SpawnTick(301, target, 300, 10))
	assert.Nil(t, s.SpawnTick(0, target, -1, 10))
	assert.Nil(t, s.SpawnTick(0, target, 300, 0))
	assert.Equal(t, AgentID(1), s.NextID())
}

func TestSpawnPlacesOnAnnulus(t *testing.T) {
	s := NewSpawner(5, DefaultSpawnConfig())
	target := world.Vec2{X: -250, Y: 800}

	for i := 0; i < 50; i++ {
		for _, a := range s.SpawnTick(0, &target, 300, 10) {
			d := world.Distance(target, a.Position)
			assert.GreaterOrEqual(t, d, 1000.0-1e-9)
			assert.Less(t, d, 5000.0)
			assert.Equal(t, StateAlive, a.State)
		}
	}
}

func TestSpawnKindsAndFrames(t *testing.T) {
	s := NewSpawner(9, DefaultSpawnConfig())
	target := &world.Vec2{}

	elites := 0
	total := 0
	for i := 0; i < 400; i++ {
		for _, a := range s.SpawnTick(0, target, 300, 10) {
			total++
			switch a.Kind {
			case KindElite:
				elites++
				assert.Equal(t, uint32(127), a.Frame)
			case KindCommon:
				assert.Equal(t, uint32(0), a.Frame)
			}
		}
	}
	frac := float64(elites) / float64(total)
	assert.InDelta(t, 0.25, frac, 0.05)
}

func TestSpawnDeterministicWithSeed(t *testing.T) {
	a := NewSpawner(77, DefaultSpawnConfig())
	b := NewSpawner(77, DefaultSpawnConfig())
	target := &world.Vec2{X: 1, Y: 2}

	for i := 0; i < 5; i++ {
		require.Equal(t, a.SpawnTick(0, target, 300, 10), b.SpawnTick(0, target, 300, 10))
	}
}

func TestSpawnIDsAreMonotonic(t *testing.T) {
	s := NewSpawner(3, DefaultSpawnConfig())
	s.SetNextID(41)
	got := s.SpawnTick(0, &world.Vec2{}, 300, 3)
	require.Len(t, got, 3)
	for i, a := range got {
		assert.Equal(t, AgentID(41+i), a.ID)
	}
}

func TestAnnulusPoint(t *testing.T) {
	p := AnnulusPoint(world.Vec2{}, 0, 2000)
	assert.InDelta(t, 2000, p.X, 1e-9)
	assert.InDelta(t, 0, p.Y, 1e-9)

	p = AnnulusPoint(world.Vec2{X: 10, Y: 10}, math.Pi/2, 100)
	assert.InDelta(t, 10, p.X, 1e-9)
	assert.InDelta(t, 110, p.Y, 1e-9)
}
