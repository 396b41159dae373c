package agents

// FramesPerRow is the number of animation frames in one atlas row.
const FramesPerRow = 8

// EliteAtlasBase is where the elite region of the enemy atlas begins.
const EliteAtlasBase = 128

// eliteSpawnFrame rolls over into EliteAtlasBase on the first animation step.
const eliteSpawnFrame = EliteAtlasBase - 1

// DefaultFrameInterval is the seconds between sprite frames.
const DefaultFrameInterval = 0.1

type atlasKey struct {
	kind  Kind
	state MotionState
}

// atlasOffsets maps (kind, state) to the first frame of its atlas row.
// Dead has no row; a dead agent keeps its last frame.
var atlasOffsets = buildAtlasOffsets()

func buildAtlasOffsets() map[atlasKey]uint32 {
	rows := map[MotionState]uint32{
		StateAlive:     0,
		StateIdleFront: 0,
		StateIdleBack:  1,
		StateIdleLeft:  2,
		StateIdleRight: 3,
		StateRunFront:  4,
		StateRunBack:   5,
		StateRunLeft:   6,
		StateRunRight:  7,
	}
	bases := map[Kind]uint32{KindCommon: 0, KindElite: EliteAtlasBase}

	out := make(map[atlasKey]uint32, len(rows)*len(bases))
	for kind, base := range bases {
		for state, row := range rows {
			out[atlasKey{kind, state}] = base + row*FramesPerRow
		}
	}
	return out
}

// AtlasOffset returns the first atlas frame for a kind in a state.
func AtlasOffset(kind Kind, state MotionState) (uint32, bool) {
	off, ok := atlasOffsets[atlasKey{kind, state}]
	return off, ok
}

// SpawnFrame returns the initial sprite frame for a freshly spawned agent.
func SpawnFrame(kind Kind) uint32 {
	if kind == KindElite {
		return eliteSpawnFrame
	}
	return 0
}

// Animator cycles sprite frames on a fixed interval.
type Animator struct {
	Interval float64 // Seconds per frame
}

// Advance accumulates dt on the agent and steps its frame once per elapsed
// interval within the row selected by its kind and state.
func (an Animator) Advance(a *Agent, dt float64) int {
	if a == nil || dt <= 0 || an.Interval <= 0 {
		return 0
	}
	off, ok := AtlasOffset(a.Kind, a.State)
	if !ok {
		return 0
	}
	a.animClock += dt
	steps := 0
	for a.animClock >= an.Interval {
		a.animClock -= an.Interval
		a.Frame = (a.Frame+1)%FramesPerRow + off
		steps++
	}
	return steps
}

// AdvanceAll steps every agent in list.
func (an Animator) AdvanceAll(list []*Agent, dt float64) {
	for _, a := range list {
		an.Advance(a, dt)
	}
}
