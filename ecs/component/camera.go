package component

import (
	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/common"
	"github.com/milk9111/cameraman/gameplay"
)

// CameraRig is a camera that frames one agent. Rigs live independently of
// the agents they follow so interpolation memory survives respawns.
type CameraRig struct {
	Name string
	// Follow names the agent to frame. Empty means the operator.
	Follow string
	// Target is the agent resolved for the current tick, if any.
	Target     string
	TargetLive bool
	// Pivot is the target's position plus its pivot offset.
	Pivot common.Vec3
	View  common.Rotator

	Profile camera.Profile
	Tier    camera.Tier
	Context gameplay.Context
	Leaf    string
	Snap    bool

	Live camera.LiveState
}

var CameraRigComponent = NewNamedComponent[CameraRig]("camera_rig")
