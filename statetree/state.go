package statetree

import "slices"

// AgentState is the behavior record owned by the evaluating system for one
// agent.
type AgentState struct {
	ActiveLeaf         NodeID
	ActivePath         []NodeID
	Params             Params
	LastTransitionTick uint64

	// PendingLeaf is the differing leaf the tree has selected for
	// PendingTicks consecutive ticks without committing yet.
	PendingLeaf  NodeID
	PendingTicks int
}

// InitialState places a freshly spawned agent in the fallback leaf.
func (t *Tree) InitialState(tick uint64) AgentState {
	path := t.PathTo(t.fallback)
	return AgentState{
		ActiveLeaf:         t.fallback,
		ActivePath:         path,
		Params:             t.ParamsFor(path),
		LastTransitionTick: tick,
	}
}

// IsActive reports whether id is on the activation path.
func (s AgentState) IsActive(id NodeID) bool {
	return slices.Contains(s.ActivePath, id)
}

// Clone returns a deep copy.
func (s AgentState) Clone() AgentState {
	s.ActivePath = slices.Clone(s.ActivePath)
	s.Params = s.Params.Clone()
	return s
}
