package ecs

import (
	"sort"

	"github.com/milk9111/cameraman/ecs/component"
)

// System updates a world each tick.
type System interface {
	Update(w *World)
}

// Tick describes the simulation step currently being run.
type Tick struct {
	Frame uint64
	DT    float64
	Time  float64
}

// World owns entities, components, and system order.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	systems  []System
	events   EventQueue
	tick     Tick
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{stores: make(map[component.ComponentID]*SparseSet)}
}

// AddSystem appends a system to the update order.
func (w *World) AddSystem(s System) {
	if s == nil {
		return
	}
	w.systems = append(w.systems, s)
}

// Systems returns a copy of the update order.
func (w *World) Systems() []System {
	return append([]System(nil), w.systems...)
}

// Advance records the tick about to run. Frame increases by one and Time
// accumulates dt.
func (w *World) Advance(dt float64) Tick {
	if dt < 0 {
		dt = 0
	}
	w.tick.Frame++
	w.tick.DT = dt
	w.tick.Time += dt
	return w.tick
}

// Tick returns the current simulation step.
func (w *World) Tick() Tick {
	if w == nil {
		return Tick{}
	}
	return w.tick
}

// Update runs all systems once in registration order.
func (w *World) Update() {
	if w == nil {
		return
	}
	for _, s := range w.systems {
		s.Update(w)
	}
	w.events.flush()
}

// Emit queues an event stamped with the current frame.
func (w *World) Emit(typ string, data any) {
	if w == nil {
		return
	}
	w.events.Push(Event{Type: typ, Tick: w.tick.Frame, Data: data})
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

func (w *World) store(id component.ComponentID, create bool) *SparseSet {
	s, ok := w.stores[id]
	if !ok && create {
		s = &SparseSet{}
		w.stores[id] = s
	}
	return s
}

// CreateEntity allocates a new entity.
func CreateEntity(w *World) Entity {
	return w.entities.create()
}

// DestroyEntity kills e and drops all of its components.
func DestroyEntity(w *World, e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	for _, s := range w.stores {
		s.Remove(e)
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func IsAlive(w *World, e Entity) bool {
	return w != nil && w.entities.isAlive(e)
}

// Entities returns every live entity.
func Entities(w *World) []Entity {
	if w == nil {
		return nil
	}
	return w.entities.all()
}

// ComponentsOf lists the names of e's components, sorted.
func ComponentsOf(w *World, e Entity) []string {
	if !IsAlive(w, e) {
		return nil
	}
	var out []string
	for id, s := range w.stores {
		if s.Has(e) {
			out = append(out, component.Name(id))
		}
	}
	sort.Strings(out)
	return out
}
