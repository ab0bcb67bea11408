package gameplay

import (
	"fmt"
	"sort"
	"strings"
)

// Well-known level and game-mode signals.
const (
	SignalCombatVolume     = "combat_volume"
	SignalConstrainedTrack = "constrained_track"
	SignalFreeTraversal    = "free_traversal"
)

// SignalSet is the set of signals active for an agent this tick.
type SignalSet map[string]bool

// NewSignalSet builds a set from names. Blank names are ignored.
func NewSignalSet(names ...string) SignalSet {
	s := make(SignalSet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			s[n] = true
		}
	}
	return s
}

func (s SignalSet) Has(name string) bool {
	return s[name]
}

// Names returns the active signal names, sorted.
func (s SignalSet) Names() []string {
	out := make([]string, 0, len(s))
	for n, on := range s {
		if on {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Rule selects Context when every Require signal is present and no Forbid
// signal is.
type Rule struct {
	Context Context
	Require []string
	Forbid  []string
}

func (r Rule) matches(s SignalSet) bool {
	if len(r.Require) == 0 {
		return false
	}
	for _, n := range r.Require {
		if !s.Has(n) {
			return false
		}
	}
	for _, n := range r.Forbid {
		if s.Has(n) {
			return false
		}
	}
	return true
}

// DefaultRules maps the well-known signals to variants. Combat wins over the
// traversal signals; contradictory traversal signals match nothing.
func DefaultRules() []Rule {
	return []Rule{
		{Context: Combat, Require: []string{SignalCombatVolume}},
		{Context: SideScrolling, Require: []string{SignalConstrainedTrack}, Forbid: []string{SignalFreeTraversal}},
		{Context: Platforming, Require: []string{SignalFreeTraversal}, Forbid: []string{SignalConstrainedTrack}},
	}
}

// Change describes the outcome of one selection.
type Change struct {
	From    Context
	To      Context
	Changed bool
	// Matched is false when no rule matched and the previous context was kept.
	Matched bool
}

// Selector maps signal sets to contexts using ordered rules. It holds no
// per-agent memory, so one Selector serves every agent.
type Selector struct {
	rules []Rule
}

// NewSelector validates rules. Rules with no required signals could never
// match and are rejected.
func NewSelector(rules []Rule) (*Selector, error) {
	for i, r := range rules {
		if !r.Context.Valid() {
			return nil, fmt.Errorf("gameplay: rule %d: invalid context %v", i, r.Context)
		}
		if len(r.Require) == 0 {
			return nil, fmt.Errorf("gameplay: rule %d (%v): no required signals", i, r.Context)
		}
	}
	return &Selector{rules: append([]Rule(nil), rules...)}, nil
}

// Rules returns a copy of the configured rules.
func (s *Selector) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Select resolves signals to a context. An unrecognized combination keeps
// prev rather than failing.
func (s *Selector) Select(prev Context, signals SignalSet) Change {
	if !prev.Valid() {
		prev = Platforming
	}
	next, matched := prev, false
	if s != nil {
		for _, r := range s.rules {
			if r.matches(signals) {
				next, matched = r.Context, true
				break
			}
		}
	}
	return Change{From: prev, To: next, Changed: next != prev, Matched: matched}
}
