package ecs

// Event is something a system reported during a tick. Emit stamps Tick with
// the frame it happened in.
type Event struct {
	Type string
	Tick uint64
	Data any
}

// EventQueue holds the current tick's events in emission order. The world
// clears it after every update; the last stage drains it.
type EventQueue struct {
	items []Event
}

func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and empties the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Count reports queued events of typ.
func (q *EventQueue) Count(typ string) int {
	if q == nil {
		return 0
	}
	n := 0
	for _, e := range q.items {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (q *EventQueue) flush() {
	if q != nil {
		q.items = q.items[:0]
	}
}

// OfType filters events by type, keeping order.
func OfType(events []Event, typ string) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
