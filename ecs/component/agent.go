package component

import "github.com/milk9111/cameraman/common"

// Agent identifies a behavior-driven actor. Name is stable across respawns;
// ID is unique per spawn.
type Agent struct {
	ID    string
	Name  string
	Order uint64
	// PivotOffset is added to the profile offset when a rig frames this
	// agent.
	PivotOffset common.Vec3
}

var AgentComponent = NewNamedComponent[Agent]("agent")
