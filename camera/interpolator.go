package camera

import (
	"github.com/milk9111/cameraman/common"
)

// Hit is the first obstruction along a trace.
type Hit struct {
	// Distance from the trace origin to the obstruction.
	Distance float64
	Point    common.Vec3
	Shape    string
}

// Tracer answers line traces against world collision.
type Tracer interface {
	Trace(from, to common.Vec3) (Hit, bool)
}

// LiveState is a rig's interpolation memory. It outlives the agents the rig
// follows.
type LiveState struct {
	Transform    common.Transform
	FOV          float64
	ArmLength    float64
	Pivot        common.Vec3
	View         common.Rotator
	VelocityHint common.Vec3
	Blocked      bool
	Initialized  bool
}

// Frame is the per tick input for one rig.
type Frame struct {
	// Pivot is the followed agent's position, before the profile offset.
	Pivot common.Vec3
	// View is the desired view rotation. Pitch is clamped to the profile.
	View common.Rotator
	DT   float64
	// Snap skips smoothing for this step. Collision clamping still applies.
	Snap bool
}

// Interpolator blends live state toward a profile and keeps the camera in
// front of obstructions.
type Interpolator struct {
	Tracer       Tracer
	MinArmLength float64
}

func NewInterpolator(tracer Tracer, minArm float64) *Interpolator {
	if minArm <= 0 {
		minArm = DefaultMinArmLength
	}
	return &Interpolator{Tracer: tracer, MinArmLength: minArm}
}

// Target returns where the camera settles for p and f when nothing blocks it.
func Target(p Profile, f Frame) common.Transform {
	pivot := f.Pivot.Add(p.Offset)
	view := clampView(f.View, p)
	return common.Transform{
		Location: pivot.Sub(view.Forward().Scale(p.ArmLength)),
		Rotation: view,
	}
}

// Step advances live one tick toward p. live is not modified.
func (ip *Interpolator) Step(live LiveState, p Profile, f Frame) LiveState {
	minArm := ip.MinArmLength
	if minArm <= 0 {
		minArm = DefaultMinArmLength
	}

	targetPivot := f.Pivot.Add(p.Offset)
	targetView := clampView(f.View, p)

	alpha := 1.0
	if live.Initialized && !f.Snap {
		alpha = common.SmoothingAlpha(p.LagSpeed, f.DT)
	}

	next := live
	next.Pivot = common.LerpVec(live.Pivot, targetPivot, alpha)
	next.ArmLength = common.Lerp(live.ArmLength, p.ArmLength, alpha)
	next.FOV = common.Lerp(live.FOV, p.FOV, alpha)
	next.View = common.Rotator{
		Pitch: common.Clamp(live.View.Pitch+alpha*(targetView.Pitch-live.View.Pitch), p.PitchMin, p.PitchMax),
		Yaw:   common.NormalizeAngle(live.View.Yaw + alpha*common.AngleDelta(live.View.Yaw, targetView.Yaw)),
		Roll:  common.Lerp(live.View.Roll, targetView.Roll, alpha),
	}
	if !live.Initialized || f.Snap {
		next.View = targetView
	}

	back := next.View.Forward().Scale(-1)
	next.Blocked = false
	if ip.Tracer != nil && next.ArmLength > 0 {
		desired := next.Pivot.Add(back.Scale(next.ArmLength))
		if hit, ok := ip.Tracer.Trace(next.Pivot, desired); ok {
			next.ArmLength = min(ClampArm(hit.Distance, p.CollisionPadding, minArm), next.ArmLength)
			next.Blocked = true
		}
	}

	next.Transform = common.Transform{
		Location: next.Pivot.Add(back.Scale(next.ArmLength)),
		Rotation: next.View,
	}
	next.VelocityHint = common.Vec3{}
	if live.Initialized && f.DT > 0 {
		next.VelocityHint = next.Transform.Location.Sub(live.Transform.Location).Scale(1 / f.DT)
	}
	next.Initialized = true
	return next
}

// ClampArm returns the arm length for an obstruction hitDist away from the
// pivot. The result never reaches past the hit. It is kept above minArm
// unless the hit itself is closer than that, in which case it stays above
// half the hit distance. A hit at or behind the pivot yields minArm.
func ClampArm(hitDist, padding, minArm float64) float64 {
	if hitDist <= 0 {
		return minArm
	}
	floor := min(minArm, hitDist/2)
	return common.Clamp(hitDist-max(padding, 0), floor, hitDist)
}

func clampView(v common.Rotator, p Profile) common.Rotator {
	v.Pitch = common.Clamp(v.Pitch, p.PitchMin, p.PitchMax)
	v.Yaw = common.NormalizeAngle(v.Yaw)
	return v
}
