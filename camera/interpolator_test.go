package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/cameraman/common"
	"github.com/milk9111/cameraman/gameplay"
)

// wallTracer reports a hit at a fixed distance along every trace longer
// than it.
type wallTracer struct {
	dist float64
}

func (w wallTracer) Trace(from, to common.Vec3) (Hit, bool) {
	seg := to.Sub(from)
	if seg.Len() <= w.dist {
		return Hit{}, false
	}
	return Hit{Distance: w.dist, Point: from.Add(seg.Normalize().Scale(w.dist))}, true
}

func settled(t *testing.T, ip *Interpolator, p Profile, f Frame) LiveState {
	t.Helper()
	live := ip.Step(LiveState{}, p, f)
	require.True(t, live.Initialized)
	return live
}

func TestStepConvergesWithoutOvershoot(t *testing.T) {
	ip := NewInterpolator(nil, 0)
	start := testGlobal()
	start.ArmLength = 600
	start.FOV = 110
	frame := Frame{DT: 1.0 / 60}

	live := settled(t, ip, start, frame)
	target := testGlobal()

	prevArm, prevFOV := live.ArmLength, live.FOV
	for i := 0; i < 600; i++ {
		live = ip.Step(live, target, frame)
		assert.LessOrEqual(t, live.ArmLength, prevArm)
		assert.GreaterOrEqual(t, live.ArmLength, target.ArmLength)
		assert.LessOrEqual(t, live.FOV, prevFOV)
		assert.GreaterOrEqual(t, live.FOV, target.FOV)
		prevArm, prevFOV = live.ArmLength, live.FOV
	}
	assert.InDelta(t, target.ArmLength, live.ArmLength, 1e-3)
	assert.InDelta(t, target.FOV, live.FOV, 1e-3)
}

func TestStepIsTickRateIndependent(t *testing.T) {
	ip := NewInterpolator(nil, 0)
	start := testGlobal()
	start.ArmLength = 800
	target := testGlobal()

	run := func(hz int) float64 {
		f := Frame{DT: 1 / float64(hz)}
		live := settled(t, ip, start, f)
		for i := 0; i < hz/2; i++ {
			live = ip.Step(live, target, f)
		}
		return live.ArmLength
	}
	assert.InDelta(t, run(30), run(240), 1e-6)
}

func TestStepZeroLagSnaps(t *testing.T) {
	ip := NewInterpolator(nil, 0)
	live := settled(t, ip, testGlobal(), Frame{DT: 0.016})

	target := testGlobal()
	target.ArmLength = 150
	target.LagSpeed = 0
	live = ip.Step(live, target, Frame{DT: 0.016})
	assert.Equal(t, 150.0, live.ArmLength)
}

func TestCollisionClampStaysInFrontOfHit(t *testing.T) {
	for _, dist := range []float64{0, 3, 8, 40, 250, 399} {
		ip := NewInterpolator(wallTracer{dist: dist}, 10)
		p := testGlobal()
		frame := Frame{Pivot: common.Vec3{Z: 100}, View: common.Rotator{Pitch: -20, Yaw: 30}, DT: 1.0 / 60}

		live := ip.Step(LiveState{}, p, frame)
		require.True(t, live.Blocked)
		if dist > 0 {
			assert.LessOrEqual(t, live.ArmLength, dist, "dist %v", dist)
		} else {
			assert.Equal(t, 10.0, live.ArmLength)
		}
		assert.Greater(t, live.ArmLength, 0.0)
		got := live.Transform.Location.Sub(live.Pivot).Len()
		assert.InDelta(t, live.ArmLength, got, 1e-9)
	}
}

func TestClampedArmBecomesLiveArm(t *testing.T) {
	ip := NewInterpolator(wallTracer{dist: 100}, 10)
	p := testGlobal()
	live := ip.Step(LiveState{}, p, Frame{DT: 0.016})
	assert.Equal(t, 88.0, live.ArmLength)

	// The wall goes away; the arm grows back from the clamped value.
	ip.Tracer = nil
	live = ip.Step(live, p, Frame{DT: 0.016})
	assert.Greater(t, live.ArmLength, 88.0)
	assert.Less(t, live.ArmLength, 400.0)
}

func TestClampArm(t *testing.T) {
	tests := []struct {
		hit, pad, min, want float64
	}{
		{100, 12, 10, 88},
		{15, 12, 10, 7.5},
		{6, 12, 10, 3},
		{50, 0, 10, 50},
		{0, 12, 10, 10},
		{-5, 12, 10, 10},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ClampArm(tc.hit, tc.pad, tc.min), "%+v", tc)
	}
}

func TestSnapOnContextChangeReachesTargetSameTick(t *testing.T) {
	table := newTestTable(t)
	ip := NewInterpolator(nil, table.MinArmLength())

	frame := Frame{Pivot: common.Vec3{X: 10, Y: 20, Z: 90}, View: common.Rotator{Pitch: -15, Yaw: 45}, DT: 1.0 / 60}
	side, _ := table.Resolve(gameplay.SideScrolling, "patrol", nil)
	live := ip.Step(LiveState{}, side, frame)
	for i := 0; i < 10; i++ {
		live = ip.Step(live, side, frame)
	}

	combat, _ := table.Resolve(gameplay.Combat, "lock_on", nil)
	frame.Snap = true
	live = ip.Step(live, combat, frame)

	want := Target(combat, frame)
	assert.InDelta(t, want.Location.X, live.Transform.Location.X, 1e-9)
	assert.InDelta(t, want.Location.Y, live.Transform.Location.Y, 1e-9)
	assert.InDelta(t, want.Location.Z, live.Transform.Location.Z, 1e-9)
	assert.Equal(t, combat.ArmLength, live.ArmLength)
	assert.Equal(t, combat.FOV, live.FOV)
}

func TestStepYawTakesShortestArc(t *testing.T) {
	ip := NewInterpolator(nil, 0)
	p := testGlobal()
	live := ip.Step(LiveState{}, p, Frame{View: common.Rotator{Yaw: 170}, DT: 0.016})
	live = ip.Step(live, p, Frame{View: common.Rotator{Yaw: -170}, DT: 0.016})

	assert.True(t, live.View.Yaw > 170 || live.View.Yaw < -170, "yaw %v went the long way", live.View.Yaw)
	assert.False(t, math.IsNaN(live.VelocityHint.X))
}

func TestStepClampsPitch(t *testing.T) {
	ip := NewInterpolator(nil, 0)
	p := testGlobal()
	live := ip.Step(LiveState{}, p, Frame{View: common.Rotator{Pitch: 80}, DT: 0.016})
	assert.Equal(t, p.PitchMax, live.View.Pitch)
}
