package component

import "github.com/milk9111/cameraman/statetree"

// Behavior is owned by the behavior system. Events holds what the tree
// emitted on the latest tick.
type Behavior struct {
	State        statetree.AgentState
	Candidate    statetree.NodeID
	UsedFallback bool
	Transitioned bool
	Events       []string
}

var BehaviorComponent = NewNamedComponent[Behavior]("behavior")
