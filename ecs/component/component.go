// Package component declares the data the director keeps per entity:
// agents with their inputs and behavior memory, and camera rigs.
package component

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

type ComponentID uint32

var (
	nextComponentID atomic.Uint32

	namesMu sync.RWMutex
	names   = make(map[ComponentID]string)
)

// ComponentKind is a typed key into the world's component stores.
type ComponentKind[T any] struct {
	id ComponentID
}

// NewComponentKind allocates an anonymous kind.
func NewComponentKind[T any]() ComponentKind[T] {
	return ComponentKind[T]{id: ComponentID(nextComponentID.Add(1))}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

func (k ComponentKind[T]) String() string {
	return Name(k.id)
}

// Name returns the name id was registered under, or a numbered placeholder
// for anonymous kinds.
func Name(id ComponentID) string {
	namesMu.RLock()
	n, ok := names[id]
	namesMu.RUnlock()
	if ok {
		return n
	}
	return "component#" + strconv.FormatUint(uint64(id), 10)
}

// ComponentHandle is how packages export a component type.
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: NewComponentKind[T]()}
}

// NewNamedComponent registers a kind under name for logs and errors.
func NewNamedComponent[T any](name string) ComponentHandle[T] {
	k := NewComponentKind[T]()
	if name != "" {
		namesMu.Lock()
		names[k.id] = name
		namesMu.Unlock()
	}
	return ComponentHandle[T]{kind: k}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}
