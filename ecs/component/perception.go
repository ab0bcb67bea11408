package component

import "github.com/milk9111/cameraman/perception"

type Perception struct {
	Snapshot perception.Snapshot
}

var PerceptionComponent = NewNamedComponent[Perception]("perception")
