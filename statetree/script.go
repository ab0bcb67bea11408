package statetree

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// ScriptCondition runs a tengo script that assigns the global `result`.
// The script is compiled once and each check runs on its own clone, so
// agents evaluated in parallel do not share globals.
// Scripts see `context`, `tick`, `visible` (tag -> count), `nearest`
// (tag -> distance, visible entities only) and `params`:
//
//	d := nearest["threat"]
//	result = !is_undefined(d) && d < 600
type ScriptCondition struct {
	source   string
	compiled *tengo.Compiled
}

// NewScriptCondition compiles src. Compile errors are reported at load time.
func NewScriptCondition(src string) (*ScriptCondition, error) {
	script := tengo.NewScript([]byte(src))
	_ = script.Add("context", "")
	_ = script.Add("tick", 0)
	_ = script.Add("visible", map[string]any{})
	_ = script.Add("nearest", map[string]any{})
	_ = script.Add("params", map[string]any{})
	_ = script.Add("result", false)
	script.SetImports(stdlib.GetModuleMap("math", "text"))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	return &ScriptCondition{source: src, compiled: compiled}, nil
}

func (c *ScriptCondition) Check(ctx *EvalContext) bool {
	visible := map[string]any{}
	nearest := map[string]any{}
	for _, e := range ctx.Perception.Entities {
		if !e.Visible {
			continue
		}
		d := e.Position.Sub(ctx.Perception.Self).Len()
		for _, tag := range e.Tags {
			n, _ := visible[tag].(int)
			visible[tag] = n + 1
			if cur, ok := nearest[tag].(float64); !ok || d < cur {
				nearest[tag] = d
			}
		}
	}
	params := make(map[string]any, len(ctx.Params))
	for k, v := range ctx.Params {
		params[k] = v
	}

	compiled := c.compiled.Clone()
	for name, v := range map[string]any{
		"context": ctx.Context.String(),
		"tick":    int64(ctx.Tick),
		"visible": visible,
		"nearest": nearest,
		"params":  params,
		"result":  false,
	} {
		if err := compiled.Set(name, v); err != nil {
			ctx.logger().Warn("statetree: script bind failed", "agent", ctx.Agent, "var", name, "error", err)
			return false
		}
	}
	if err := compiled.Run(); err != nil {
		ctx.logger().Warn("statetree: script condition failed", "agent", ctx.Agent, "error", err)
		return false
	}
	return compiled.Get("result").Bool()
}
