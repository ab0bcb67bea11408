package system

import (
	"log/slog"

	"github.com/milk9111/cameraman/ecs"
	"github.com/milk9111/cameraman/ecs/component"
	"github.com/milk9111/cameraman/gameplay"
)

// ContextSystem resolves each agent's gameplay context from its signals.
type ContextSystem struct {
	selector *gameplay.Selector
	logger   *slog.Logger
}

func NewContextSystem(selector *gameplay.Selector, logger *slog.Logger) *ContextSystem {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextSystem{selector: selector, logger: logger}
}

// SetSelector swaps the rule set, e.g. after a config reload.
func (s *ContextSystem) SetSelector(selector *gameplay.Selector) {
	s.selector = selector
}

func (s *ContextSystem) Update(w *ecs.World) {
	if w == nil || s.selector == nil {
		return
	}
	tick := w.Tick()

	ecs.ForEach2(w, component.AgentComponent.Kind(), component.ContextStateComponent.Kind(), func(e ecs.Entity, agent *component.Agent, cs *component.ContextState) {
		var signals gameplay.SignalSet
		if sig, ok := ecs.Get(w, e, component.SignalsComponent.Kind()); ok {
			signals = sig.Set
		}

		change := s.selector.Select(cs.Current, signals)
		cs.Changed = change.Changed
		if !change.Changed {
			return
		}
		cs.Previous = change.From
		cs.Current = change.To
		cs.ChangedTick = tick.Frame

		w.Emit(EventContextChanged, ContextChanged{Agent: agent.Name, From: change.From, To: change.To})
		s.logger.Debug("context: changed", "agent", agent.Name, "from", change.From, "to", change.To, "tick", tick.Frame)
	})
}
