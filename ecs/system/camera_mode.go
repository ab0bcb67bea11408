package system

import (
	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/ecs"
	"github.com/milk9111/cameraman/ecs/component"
)

// CameraModeSystem picks each rig's target agent and resolves the profile
// for that agent's context and behavior state.
type CameraModeSystem struct {
	table               *camera.ProfileTable
	snapOnContextChange bool
	operator            string
}

func NewCameraModeSystem(table *camera.ProfileTable, snapOnContextChange bool) *CameraModeSystem {
	return &CameraModeSystem{table: table, snapOnContextChange: snapOnContextChange}
}

func (s *CameraModeSystem) SetTable(table *camera.ProfileTable) {
	s.table = table
}

func (s *CameraModeSystem) SetSnapOnContextChange(on bool) {
	s.snapOnContextChange = on
}

// SetOperator names the agent followed by rigs with no explicit target.
func (s *CameraModeSystem) SetOperator(name string) {
	s.operator = name
}

func (s *CameraModeSystem) Update(w *ecs.World) {
	if w == nil || s.table == nil {
		return
	}

	byName := make(map[string]ecs.Entity)
	ecs.ForEach(w, component.AgentComponent.Kind(), func(e ecs.Entity, a *component.Agent) {
		byName[a.Name] = e
	})

	ecs.ForEach(w, component.CameraRigComponent.Kind(), func(_ ecs.Entity, rig *component.CameraRig) {
		follow := rig.Follow
		if follow == "" {
			follow = s.operator
		}
		rig.Target = follow
		rig.Snap = false

		e, ok := byName[follow]
		rig.TargetLive = ok
		if !ok {
			return
		}

		agent, _ := ecs.Get(w, e, component.AgentComponent.Kind())
		cs, _ := ecs.Get(w, e, component.ContextStateComponent.Kind())
		beh, _ := ecs.Get(w, e, component.BehaviorComponent.Kind())
		if cs == nil || beh == nil {
			rig.TargetLive = false
			return
		}

		rig.Context = cs.Current
		rig.Leaf = string(beh.State.ActiveLeaf)
		rig.Profile, rig.Tier = s.table.Resolve(cs.Current, rig.Leaf, beh.State.Params)
		rig.Snap = s.snapOnContextChange && cs.Changed

		rig.Pivot = agent.PivotOffset
		if tr, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
			rig.Pivot = tr.Location.Add(agent.PivotOffset)
		}
	})
}
