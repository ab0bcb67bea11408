package statetree

import (
	"log/slog"
	"slices"

	"github.com/milk9111/cameraman/gameplay"
	"github.com/milk9111/cameraman/perception"
)

// EvalContext is the read-only input to one agent's evaluation.
type EvalContext struct {
	Agent      string
	Tick       uint64
	Context    gameplay.Context
	Perception perception.Snapshot
	// Params are the agent's params from the previous tick.
	Params Params
	Logger *slog.Logger
}

func (c *EvalContext) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Result is the outcome of one evaluation.
type Result struct {
	State AgentState
	// Candidate is the leaf the tree selected this tick, before hysteresis.
	Candidate    NodeID
	UsedFallback bool
	Transitioned bool
	From         NodeID
	Events       []string
}

// Evaluate runs one tick for an agent. prev is not modified.
func (t *Tree) Evaluate(prev AgentState, ctx *EvalContext) Result {
	if ctx == nil {
		ctx = &EvalContext{}
	}
	candidate := t.selectPath(ctx)
	usedFallback := false
	if len(candidate) == 0 {
		candidate = t.PathTo(t.fallback)
		usedFallback = true
	}
	leaf := candidate[len(candidate)-1]

	res := Result{Candidate: leaf, UsedFallback: usedFallback, From: prev.ActiveLeaf}
	next := prev.Clone()

	switch {
	case !t.Has(prev.ActiveLeaf):
		// Fresh or stale state, e.g. after a config reload removed the leaf.
		t.commit(&next, candidate, ctx, &res, false)
	case leaf == prev.ActiveLeaf:
		next.PendingLeaf = ""
		next.PendingTicks = 0
		next.ActivePath = candidate
		next.Params = t.ParamsFor(candidate)
	default:
		if leaf == prev.PendingLeaf {
			next.PendingTicks = prev.PendingTicks + 1
		} else {
			next.PendingLeaf = leaf
			next.PendingTicks = 1
		}
		if next.PendingTicks >= t.minHold {
			t.commit(&next, candidate, ctx, &res, true)
		} else {
			next.Params = t.ParamsFor(next.ActivePath)
		}
	}

	t.runActions(ctx, next.ActivePath, func(n *Node) []Action { return n.While }, &res)
	res.State = next
	return res
}

func (t *Tree) commit(s *AgentState, path []NodeID, ctx *EvalContext, res *Result, runExit bool) {
	old := s.ActivePath
	shared := 0
	for shared < len(old) && shared < len(path) && old[shared] == path[shared] {
		shared++
	}

	if runExit {
		leaving := slices.Clone(old[shared:])
		slices.Reverse(leaving)
		t.runActions(ctx, leaving, func(n *Node) []Action { return n.OnExit }, res)
	}
	t.runActions(ctx, path[shared:], func(n *Node) []Action { return n.OnEnter }, res)

	s.ActivePath = path
	s.ActiveLeaf = path[len(path)-1]
	s.Params = t.ParamsFor(path)
	s.LastTransitionTick = ctx.Tick
	s.PendingLeaf = ""
	s.PendingTicks = 0
	res.Transitioned = true

	ctx.logger().Debug("statetree: transition",
		"agent", ctx.Agent,
		"from", res.From,
		"to", s.ActiveLeaf,
		"tick", ctx.Tick,
	)
}

func (t *Tree) runActions(ctx *EvalContext, ids []NodeID, pick func(*Node) []Action, res *Result) {
	for _, id := range ids {
		n := t.nodes[id]
		if n == nil {
			continue
		}
		actions := pick(n)
		if len(actions) == 0 {
			continue
		}
		actx := &ActionContext{
			Agent:  ctx.Agent,
			Tick:   ctx.Tick,
			Node:   id,
			Logger: ctx.logger(),
			Emit: func(name string) {
				if name != "" {
					res.Events = append(res.Events, name)
				}
			},
		}
		for _, a := range actions {
			if a != nil {
				a(actx)
			}
		}
	}
}
