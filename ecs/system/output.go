package system

import (
	"slices"
	"sort"

	"github.com/milk9111/cameraman/common"
	"github.com/milk9111/cameraman/ecs"
	"github.com/milk9111/cameraman/ecs/component"
	"github.com/milk9111/cameraman/gameplay"
	"github.com/milk9111/cameraman/statetree"
)

// RigView is one rig's camera output for a tick.
type RigView struct {
	Name      string         `json:"name"`
	Target    string         `json:"target"`
	Location  common.Vec3    `json:"location"`
	Rotation  common.Rotator `json:"rotation"`
	FOV       float64        `json:"fov"`
	ArmLength float64        `json:"arm_length"`
	Blocked   bool           `json:"blocked"`
	Snapped   bool           `json:"snapped"`
	Tier      string         `json:"tier"`
	Context   string         `json:"context"`
	Leaf      string         `json:"leaf"`
}

// AgentView is one agent's behavior output for a tick.
type AgentView struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Context        gameplay.Context   `json:"context"`
	ContextChanged bool               `json:"context_changed"`
	Leaf           statetree.NodeID   `json:"leaf"`
	Path           []statetree.NodeID `json:"path"`
	Params         statetree.Params   `json:"params"`
	UsedFallback   bool               `json:"used_fallback"`
	Transitioned   bool               `json:"transitioned"`
	Events         []string           `json:"events,omitempty"`
}

// Frame is everything the pipeline produced in one tick.
type Frame struct {
	Tick   ecs.Tick
	Rigs   []RigView
	Agents []AgentView
	Events []ecs.Event
}

// Rig returns the view for the named rig.
func (f Frame) Rig(name string) (RigView, bool) {
	for _, r := range f.Rigs {
		if r.Name == name {
			return r, true
		}
	}
	return RigView{}, false
}

// Agent returns the view for the named agent.
func (f Frame) Agent(name string) (AgentView, bool) {
	for _, a := range f.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentView{}, false
}

// OutputSystem runs last and collects the tick's camera and behavior output
// along with every queued event, before the world clears the queue.
type OutputSystem struct {
	last Frame
}

func NewOutputSystem() *OutputSystem {
	return &OutputSystem{}
}

// Last returns the frame collected by the most recent update.
func (s *OutputSystem) Last() Frame {
	return s.last
}

func (s *OutputSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	f := Frame{Tick: w.Tick()}

	ecs.ForEach(w, component.CameraRigComponent.Kind(), func(_ ecs.Entity, rig *component.CameraRig) {
		f.Rigs = append(f.Rigs, RigView{
			Name:      rig.Name,
			Target:    rig.Target,
			Location:  rig.Live.Transform.Location,
			Rotation:  rig.Live.Transform.Rotation,
			FOV:       rig.Live.FOV,
			ArmLength: rig.Live.ArmLength,
			Blocked:   rig.Live.Blocked,
			Snapped:   rig.Snap && rig.TargetLive,
			Tier:      rig.Tier.String(),
			Context:   rig.Context.String(),
			Leaf:      rig.Leaf,
		})
	})
	sort.Slice(f.Rigs, func(i, j int) bool { return f.Rigs[i].Name < f.Rigs[j].Name })

	type ordered struct {
		order uint64
		view  AgentView
	}
	var agents []ordered
	ecs.ForEach3(w, component.AgentComponent.Kind(), component.BehaviorComponent.Kind(), component.ContextStateComponent.Kind(), func(_ ecs.Entity, a *component.Agent, beh *component.Behavior, cs *component.ContextState) {
		agents = append(agents, ordered{order: a.Order, view: AgentView{
			ID:             a.ID,
			Name:           a.Name,
			Context:        cs.Current,
			ContextChanged: cs.Changed,
			Leaf:           beh.State.ActiveLeaf,
			Path:           slices.Clone(beh.State.ActivePath),
			Params:         beh.State.Params.Clone(),
			UsedFallback:   beh.UsedFallback,
			Transitioned:   beh.Transitioned,
			Events:         slices.Clone(beh.Events),
		}})
	})
	sort.Slice(agents, func(i, j int) bool { return agents[i].order < agents[j].order })
	for _, a := range agents {
		f.Agents = append(f.Agents, a.view)
	}

	f.Events = w.Events().Drain()
	s.last = f
}
