package statetree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/milk9111/cameraman/gameplay"
)

// Condition is one test in a node's condition set.
type Condition interface {
	Check(ctx *EvalContext) bool
}

// ConditionFunc adapts a function to Condition.
type ConditionFunc func(ctx *EvalContext) bool

func (f ConditionFunc) Check(ctx *EvalContext) bool {
	return f(ctx)
}

// ConditionMaker builds a condition from its authored argument.
type ConditionMaker func(arg any) (Condition, error)

var conditionRegistry = map[string]ConditionMaker{
	"always": func(any) (Condition, error) {
		return ConditionFunc(func(*EvalContext) bool { return true }), nil
	},
	"never": func(any) (Condition, error) {
		return ConditionFunc(func(*EvalContext) bool { return false }), nil
	},
	"context": func(arg any) (Condition, error) {
		names, err := asStrings(arg)
		if err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}
		allowed := make(map[gameplay.Context]bool, len(names))
		for _, n := range names {
			c, err := gameplay.ParseContext(n)
			if err != nil {
				return nil, err
			}
			allowed[c] = true
		}
		return ConditionFunc(func(ctx *EvalContext) bool {
			return allowed[ctx.Context]
		}), nil
	},
	"sees_tag": func(arg any) (Condition, error) {
		tag, ok := arg.(string)
		if !ok || tag == "" {
			return nil, fmt.Errorf("sees_tag: expected tag name, got %v", arg)
		}
		return ConditionFunc(func(ctx *EvalContext) bool {
			return ctx.Perception.CountVisible(tag) > 0
		}), nil
	},
	"threat_within": func(arg any) (Condition, error) {
		tag, rng := "threat", 0.0
		switch v := arg.(type) {
		case map[string]any:
			if s, ok := v["tag"].(string); ok && s != "" {
				tag = s
			}
			rng = asFloat(v["range"])
		default:
			rng = asFloat(v)
		}
		if rng <= 0 {
			return nil, fmt.Errorf("threat_within: range must be positive, got %v", arg)
		}
		return ConditionFunc(func(ctx *EvalContext) bool {
			_, d, ok := ctx.Perception.Nearest(tag)
			return ok && d <= rng
		}), nil
	},
	"tag_count_at_least": func(arg any) (Condition, error) {
		m, ok := arg.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("tag_count_at_least: expected {tag, count}, got %v", arg)
		}
		tag, _ := m["tag"].(string)
		count := int(asFloat(m["count"]))
		if count <= 0 {
			return nil, fmt.Errorf("tag_count_at_least: count must be positive")
		}
		return ConditionFunc(func(ctx *EvalContext) bool {
			return ctx.Perception.CountVisible(tag) >= count
		}), nil
	},
	"param_above": func(arg any) (Condition, error) {
		m, ok := arg.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("param_above: expected {key, value}, got %v", arg)
		}
		key, _ := m["key"].(string)
		if key == "" {
			return nil, fmt.Errorf("param_above: missing key")
		}
		limit := asFloat(m["value"])
		return ConditionFunc(func(ctx *EvalContext) bool {
			v, ok := ctx.Params[key]
			return ok && v > limit
		}), nil
	},
	"expr": func(arg any) (Condition, error) {
		src, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("expr: expected expression string, got %v", arg)
		}
		return NewExprCondition(src)
	},
	"script": func(arg any) (Condition, error) {
		src, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("script: expected tengo source, got %v", arg)
		}
		return NewScriptCondition(src)
	},
}

func init() {
	// Registered here because it refers back to the registry.
	conditionRegistry["not"] = func(arg any) (Condition, error) {
		m, ok := arg.(map[string]any)
		if !ok || len(m) != 1 {
			return nil, fmt.Errorf("not: expected a single condition, got %v", arg)
		}
		conds, err := BuildConditions([]map[string]any{m})
		if err != nil {
			return nil, err
		}
		inner := conds[0]
		return ConditionFunc(func(ctx *EvalContext) bool {
			return !inner.Check(ctx)
		}), nil
	}
}

// RegisterCondition adds or replaces a named condition. It must be called
// before trees are compiled.
func RegisterCondition(name string, maker ConditionMaker) {
	conditionRegistry[name] = maker
}

// BuildConditions compiles authored `{name: arg}` entries. Entries with
// several keys are expanded in key order.
func BuildConditions(list []map[string]any) ([]Condition, error) {
	out := make([]Condition, 0, len(list))
	for _, entry := range list {
		for _, name := range sortedKeys(entry) {
			maker, ok := conditionRegistry[name]
			if !ok {
				return nil, fmt.Errorf("statetree: unknown condition %q", name)
			}
			c, err := maker(entry[name])
			if err != nil {
				return nil, fmt.Errorf("statetree: condition %s: %w", name, err)
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float64:
		return t
	case float32:
		return float64(t)
	default:
		return 0
	}
}

func asStrings(v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		return strings.Split(t, ","), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %v", item)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return t, nil
	}
	return nil, fmt.Errorf("expected string or list, got %v", v)
}
