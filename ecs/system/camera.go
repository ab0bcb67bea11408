package system

import (
	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/ecs"
	"github.com/milk9111/cameraman/ecs/component"
)

// CameraSystem advances every rig that has a live target. Rigs without one
// hold their last transform.
type CameraSystem struct {
	interp *camera.Interpolator
}

func NewCameraSystem(interp *camera.Interpolator) *CameraSystem {
	return &CameraSystem{interp: interp}
}

func (s *CameraSystem) SetInterpolator(interp *camera.Interpolator) {
	s.interp = interp
}

func (s *CameraSystem) Update(w *ecs.World) {
	if w == nil || s.interp == nil {
		return
	}
	tick := w.Tick()

	ecs.ForEach(w, component.CameraRigComponent.Kind(), func(_ ecs.Entity, rig *component.CameraRig) {
		if !rig.TargetLive {
			return
		}
		rig.Live = s.interp.Step(rig.Live, rig.Profile, camera.Frame{
			Pivot: rig.Pivot,
			View:  rig.View,
			DT:    tick.DT,
			Snap:  rig.Snap,
		})
	})
}
