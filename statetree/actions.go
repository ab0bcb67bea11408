package statetree

import (
	"fmt"
	"log/slog"
)

// ActionContext is handed to node actions.
type ActionContext struct {
	Agent  string
	Tick   uint64
	Node   NodeID
	Logger *slog.Logger
	// Emit publishes a behavior event for animation and UI collaborators.
	Emit func(name string)
}

// Action runs on node entry, exit, or every tick while active.
type Action func(ctx *ActionContext)

var actionRegistry = map[string]func(any) (Action, error){
	"emit": func(arg any) (Action, error) {
		name, ok := arg.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("emit: expected event name, got %v", arg)
		}
		return func(ctx *ActionContext) {
			if ctx != nil && ctx.Emit != nil {
				ctx.Emit(name)
			}
		}, nil
	},
	"log": func(arg any) (Action, error) {
		msg := fmt.Sprint(arg)
		return func(ctx *ActionContext) {
			if ctx == nil || ctx.Logger == nil {
				return
			}
			ctx.Logger.Info("statetree: "+msg, "agent", ctx.Agent, "node", ctx.Node, "tick", ctx.Tick)
		}, nil
	},
}

// BuildActions compiles authored `{name: arg}` entries.
func BuildActions(list []map[string]any) ([]Action, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]Action, 0, len(list))
	for _, entry := range list {
		for _, name := range sortedKeys(entry) {
			maker, ok := actionRegistry[name]
			if !ok {
				return nil, fmt.Errorf("statetree: unknown action %q", name)
			}
			a, err := maker(entry[name])
			if err != nil {
				return nil, fmt.Errorf("statetree: action %s: %w", name, err)
			}
			out = append(out, a)
		}
	}
	return out, nil
}
