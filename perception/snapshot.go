// Package perception holds the sensed-world snapshot the behavior layer
// reads each tick. The feed that fills it lives outside this module.
package perception

import (
	"math"
	"slices"

	"github.com/milk9111/cameraman/common"
)

// Entity is one sensed thing.
type Entity struct {
	ID       string      `yaml:"id" json:"id"`
	Position common.Vec3 `yaml:"position" json:"position"`
	Visible  bool        `yaml:"visible" json:"visible"`
	Tags     []string    `yaml:"tags" json:"tags"`
}

func (e Entity) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}

// Snapshot is what one agent perceives this tick.
type Snapshot struct {
	Self     common.Vec3 `yaml:"self" json:"self"`
	Entities []Entity    `yaml:"entities" json:"entities"`
}

// Visible returns the visible entities carrying tag. An empty tag matches
// every visible entity.
func (s Snapshot) Visible(tag string) []Entity {
	var out []Entity
	for _, e := range s.Entities {
		if e.Visible && (tag == "" || e.HasTag(tag)) {
			out = append(out, e)
		}
	}
	return out
}

// CountVisible returns how many visible entities carry tag.
func (s Snapshot) CountVisible(tag string) int {
	n := 0
	for _, e := range s.Entities {
		if e.Visible && (tag == "" || e.HasTag(tag)) {
			n++
		}
	}
	return n
}

// Nearest returns the closest visible entity carrying tag and its distance
// from Self.
func (s Snapshot) Nearest(tag string) (Entity, float64, bool) {
	best := math.Inf(1)
	var found Entity
	ok := false
	for _, e := range s.Entities {
		if !e.Visible || (tag != "" && !e.HasTag(tag)) {
			continue
		}
		d := e.Position.Sub(s.Self).Len()
		if d < best {
			best, found, ok = d, e, true
		}
	}
	if !ok {
		return Entity{}, 0, false
	}
	return found, best, true
}
