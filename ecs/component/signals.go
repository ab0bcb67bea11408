package component

import "github.com/milk9111/cameraman/gameplay"

// Signals are the game-mode and level signals an agent is exposed to this
// tick.
type Signals struct {
	Set gameplay.SignalSet
}

var SignalsComponent = NewNamedComponent[Signals]("signals")
