package component

import "github.com/milk9111/cameraman/gameplay"

// ContextState is an agent's gameplay context. Changed is true only on the
// tick the context switched.
type ContextState struct {
	Current     gameplay.Context
	Previous    gameplay.Context
	Changed     bool
	ChangedTick uint64
}

var ContextStateComponent = NewNamedComponent[ContextState]("context_state")
