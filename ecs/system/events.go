package system

import (
	"github.com/milk9111/cameraman/gameplay"
	"github.com/milk9111/cameraman/statetree"
)

// Event types pushed to the world queue during a tick.
const (
	EventContextChanged = "context_changed"
	EventTransition     = "behavior_transition"
	EventBehavior       = "behavior_event"
)

type ContextChanged struct {
	Agent string
	From  gameplay.Context
	To    gameplay.Context
}

type Transition struct {
	Agent string
	From  statetree.NodeID
	To    statetree.NodeID
}

type BehaviorEvent struct {
	Agent string
	Node  statetree.NodeID
	Name  string
}
