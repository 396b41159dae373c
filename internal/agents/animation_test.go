package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtlasOffsets(t *testing.T) {
	cases := []struct {
		kind  Kind
		state MotionState
		want  uint32
	}{
		{KindCommon, StateAlive, 0},
		{KindCommon, StateIdleFront, 0},
		{KindCommon, StateIdleBack, 8},
		{KindCommon, StateIdleLeft, 16},
		{KindCommon, StateIdleRight, 24},
		{KindCommon, StateRunFront, 32},
		{KindCommon, StateRunBack, 40},
		{KindCommon, StateRunLeft, 48},
		{KindCommon, StateRunRight, 56},
		{KindElite, StateIdleFront, 128},
		{KindElite, StateRunRight, 184},
	}
	for _, c := range cases {
		got, ok := AtlasOffset(c.kind, c.state)
		assert.True(t, ok)
		assert.Equal(t, c.want, got, "%v/%v", c.kind, c.state)
	}
	_, ok := AtlasOffset(KindCommon, StateDead)
	assert.False(t, ok)
}

func TestAnimatorEliteRollsIntoItsRegion(t *testing.T) {
	an := Animator{Interval: DefaultFrameInterval}
	a := &Agent{Kind: KindElite, State: StateAlive, Frame: SpawnFrame(KindElite)}

	assert.Equal(t, 1, an.Advance(a, DefaultFrameInterval))
	assert.Equal(t, uint32(128), a.Frame)
}

func TestAnimatorCyclesWithinRow(t *testing.T) {
	an := Animator{Interval: DefaultFrameInterval}
	a := &Agent{Kind: KindCommon, State: StateRunRight}

	for i := 0; i < 8; i++ {
		an.Advance(a, DefaultFrameInterval)
		assert.GreaterOrEqual(t, a.Frame, uint32(56))
		assert.Less(t, a.Frame, uint32(64))
	}
	assert.Equal(t, 0, an.Advance(a, DefaultFrameInterval/2))
}

func TestAnimatorFreezesDead(t *testing.T) {
	an := Animator{Interval: DefaultFrameInterval}
	a := &Agent{Kind: KindCommon, State: StateDead, Frame: 42}
	assert.Equal(t, 0, an.Advance(a, 1))
	assert.Equal(t, uint32(42), a.Frame)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "run_left", StateRunLeft.String())
	assert.Equal(t, "elite", KindElite.String())
	assert.True(t, StateRunFront.IsRunning())
	assert.False(t, StateIdleFront.IsRunning())
}
