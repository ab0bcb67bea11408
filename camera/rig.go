package camera

import (
	"errors"
	"fmt"
	"sort"
)

const (
	DefaultSwitchLock  = 0.15
	DefaultRigCooldown = 0.25
)

var (
	ErrUnknownRig     = errors.New("camera: unknown rig")
	ErrDuplicateRig   = errors.New("camera: rig already registered")
	ErrSwitchLocked   = errors.New("camera: switch locked")
	ErrRigCoolingDown = errors.New("camera: rig cooling down")
)

// ActiveChange is delivered to listeners when the active rig changes.
type ActiveChange struct {
	From string
	To   string
	At   float64
}

// Switchboard tracks which of the registered rigs is active. Exactly one rig
// is active while any is registered. Times are simulation seconds.
type Switchboard struct {
	// SwitchLock is the minimum time between any two switches.
	SwitchLock float64
	// Cooldown is the minimum time before a rig that handed off may hand
	// off again.
	Cooldown float64

	active     string
	rigs       map[string]int
	seq        int
	lastSwitch float64
	switched   bool
	handoff    map[string]float64
	listeners  []func(ActiveChange)
}

func NewSwitchboard(lock, cooldown float64) *Switchboard {
	return &Switchboard{
		SwitchLock: max(lock, 0),
		Cooldown:   max(cooldown, 0),
		rigs:       make(map[string]int),
		handoff:    make(map[string]float64),
	}
}

// OnChange registers fn to be called after every active rig change.
func (s *Switchboard) OnChange(fn func(ActiveChange)) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

// Active returns the active rig name, or "" when no rig is registered.
func (s *Switchboard) Active() string {
	return s.active
}

// Rigs returns registered rig names in registration order.
func (s *Switchboard) Rigs() []string {
	names := make([]string, 0, len(s.rigs))
	for n := range s.rigs {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return s.rigs[names[i]] < s.rigs[names[j]] })
	return names
}

// Register adds a rig. The first registered rig becomes active.
func (s *Switchboard) Register(name string, now float64) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownRig)
	}
	if _, ok := s.rigs[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateRig, name)
	}
	s.seq++
	s.rigs[name] = s.seq
	if s.active == "" {
		s.setActive(name, now)
	}
	return nil
}

// Unregister removes a rig. Removing the active rig hands over to the oldest
// remaining rig regardless of locks.
func (s *Switchboard) Unregister(name string, now float64) {
	if _, ok := s.rigs[name]; !ok {
		return
	}
	delete(s.rigs, name)
	delete(s.handoff, name)
	if s.active != name {
		return
	}
	next := ""
	if rigs := s.Rigs(); len(rigs) > 0 {
		next = rigs[0]
	}
	s.setActive(next, now)
}

// SwitchTo makes name the active rig. It reports whether the active rig
// changed; switching to the active rig is a no-op.
func (s *Switchboard) SwitchTo(name string, now float64) (bool, error) {
	if _, ok := s.rigs[name]; !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownRig, name)
	}
	if s.active == name {
		return false, nil
	}
	if s.switched && now-s.lastSwitch < s.SwitchLock {
		return false, ErrSwitchLocked
	}
	if at, ok := s.handoff[s.active]; ok && now-at < s.Cooldown {
		return false, fmt.Errorf("%w: %q", ErrRigCoolingDown, s.active)
	}
	if s.active != "" {
		s.handoff[s.active] = now
	}
	s.lastSwitch, s.switched = now, true
	s.setActive(name, now)
	return true, nil
}

func (s *Switchboard) setActive(name string, now float64) {
	if name == s.active {
		return
	}
	change := ActiveChange{From: s.active, To: name, At: now}
	s.active = name
	for _, fn := range s.listeners {
		fn(change)
	}
}
