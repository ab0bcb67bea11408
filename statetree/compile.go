package statetree

import (
	"errors"
	"fmt"
)

// RawTree is the authored form of a tree, as loaded from YAML.
type RawTree struct {
	Fallback     string    `yaml:"fallback"`
	MinHoldTicks int       `yaml:"min_hold_ticks"`
	Nodes        []RawNode `yaml:"nodes"`
}

type RawNode struct {
	ID       string             `yaml:"id"`
	When     []map[string]any   `yaml:"when"`
	Params   map[string]float64 `yaml:"params"`
	OnEnter  []map[string]any   `yaml:"on_enter"`
	While    []map[string]any   `yaml:"while"`
	OnExit   []map[string]any   `yaml:"on_exit"`
	Children []RawNode          `yaml:"children"`
}

// Compile builds a validated Tree. Every problem found is reported, joined,
// so authors can fix a file in one pass.
func Compile(raw RawTree) (*Tree, error) {
	var errs []error
	var build func(rn RawNode) *Node
	build = func(rn RawNode) *Node {
		n := &Node{ID: NodeID(rn.ID), Params: Params(rn.Params)}
		var err error
		if n.Conditions, err = BuildConditions(rn.When); err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", rn.ID, err))
		}
		if n.OnEnter, err = BuildActions(rn.OnEnter); err != nil {
			errs = append(errs, fmt.Errorf("node %q on_enter: %w", rn.ID, err))
		}
		if n.While, err = BuildActions(rn.While); err != nil {
			errs = append(errs, fmt.Errorf("node %q while: %w", rn.ID, err))
		}
		if n.OnExit, err = BuildActions(rn.OnExit); err != nil {
			errs = append(errs, fmt.Errorf("node %q on_exit: %w", rn.ID, err))
		}
		for _, c := range rn.Children {
			n.Children = append(n.Children, build(c))
		}
		return n
	}

	if raw.MinHoldTicks < 0 {
		errs = append(errs, fmt.Errorf("statetree: min_hold_ticks must not be negative, got %d", raw.MinHoldTicks))
	}
	roots := make([]*Node, 0, len(raw.Nodes))
	for _, rn := range raw.Nodes {
		roots = append(roots, build(rn))
	}

	tree, err := NewTree(roots, NodeID(raw.Fallback), raw.MinHoldTicks)
	if err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return tree, nil
}
