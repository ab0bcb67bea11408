// Package statetree evaluates hierarchical behavior trees for agents.
//
// Each tick the tree is walked top-down: the first sibling whose conditions
// all hold becomes active and the walk recurses into its children. The
// deepest active node is the agent's leaf; its ancestors stay active with it.
// When no root node holds, the configured fallback leaf is used, so every
// agent always has exactly one active leaf.
package statetree

import (
	"errors"
	"fmt"
	"maps"
)

// NodeID identifies a node within a tree.
type NodeID string

// Params are node-local scalar constants exposed to collaborators such as
// the camera resolver.
type Params map[string]float64

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

var (
	ErrNoFallback      = errors.New("statetree: fallback leaf is required")
	ErrUnknownFallback = errors.New("statetree: fallback leaf not found")
	ErrDuplicateNode   = errors.New("statetree: duplicate node id")
	ErrEmptyNodeID     = errors.New("statetree: empty node id")
)

// Node is one state in the tree.
type Node struct {
	ID         NodeID
	Conditions []Condition
	Params     Params
	OnEnter    []Action
	While      []Action
	OnExit     []Action
	Children   []*Node
}

func (n *Node) satisfied(ctx *EvalContext) bool {
	for _, c := range n.Conditions {
		if c != nil && !c.Check(ctx) {
			return false
		}
	}
	return true
}

// Tree is an immutable, validated state tree. It is safe for concurrent
// evaluation by many agents.
type Tree struct {
	roots    []*Node
	nodes    map[NodeID]*Node
	parent   map[NodeID]NodeID
	fallback NodeID
	minHold  int
}

// NewTree indexes and validates roots. minHold is the number of consecutive
// ticks a new leaf must be selected before the agent commits to it; values
// below one commit immediately.
func NewTree(roots []*Node, fallback NodeID, minHold int) (*Tree, error) {
	t := &Tree{
		roots:    roots,
		nodes:    make(map[NodeID]*Node),
		parent:   make(map[NodeID]NodeID),
		fallback: fallback,
		minHold:  max(minHold, 1),
	}

	var errs []error
	// A node reached twice is reported once and not descended again, so
	// cyclic graphs terminate.
	seen := make(map[*Node]bool)
	var walk func(n *Node, parent NodeID)
	walk = func(n *Node, parent NodeID) {
		if n == nil {
			return
		}
		if seen[n] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID))
			return
		}
		seen[n] = true
		switch _, dup := t.nodes[n.ID]; {
		case n.ID == "":
			errs = append(errs, ErrEmptyNodeID)
		case dup:
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID))
			return
		default:
			t.nodes[n.ID] = n
			if parent != "" {
				t.parent[n.ID] = parent
			}
		}
		for _, c := range n.Children {
			walk(c, n.ID)
		}
	}
	for _, r := range roots {
		walk(r, "")
	}

	switch {
	case fallback == "":
		errs = append(errs, ErrNoFallback)
	case t.nodes[fallback] == nil:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownFallback, fallback))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return t, nil
}

// Fallback returns the fallback leaf id.
func (t *Tree) Fallback() NodeID {
	return t.fallback
}

// MinHoldTicks returns the hysteresis length.
func (t *Tree) MinHoldTicks() int {
	return t.minHold
}

// WithMinHoldTicks returns a copy of t with a different hysteresis length.
func (t *Tree) WithMinHoldTicks(n int) *Tree {
	cp := *t
	cp.minHold = max(n, 1)
	return &cp
}

// Has reports whether id names a node in t.
func (t *Tree) Has(id NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Node returns the node for id.
func (t *Tree) Node(id NodeID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// PathTo returns the activation path from the root level down to id.
func (t *Tree) PathTo(id NodeID) []NodeID {
	if !t.Has(id) {
		return nil
	}
	var rev []NodeID
	for cur := id; cur != ""; cur = t.parent[cur] {
		rev = append(rev, cur)
	}
	path := make([]NodeID, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path
}

// ParamsFor merges params along path, deeper nodes overriding ancestors.
func (t *Tree) ParamsFor(path []NodeID) Params {
	out := Params{}
	for _, id := range path {
		if n := t.nodes[id]; n != nil {
			maps.Copy(out, n.Params)
		}
	}
	return out
}

// selectPath walks the tree top-down. It returns nil when no root node holds.
func (t *Tree) selectPath(ctx *EvalContext) []NodeID {
	var path []NodeID
	level := t.roots
	for {
		var chosen *Node
		for _, n := range level {
			if n != nil && n.satisfied(ctx) {
				chosen = n
				break
			}
		}
		if chosen == nil {
			return path
		}
		path = append(path, chosen.ID)
		level = chosen.Children
	}
}
