package ecs

import "fmt"

// Stage orders systems within a tick. Stages run in declaration order and
// systems within a stage run in registration order.
type Stage uint8

const (
	StageContext Stage = iota
	StageBehavior
	StageCameraMode
	StageCamera
	StageOutput
	stageCount
)

func (s Stage) String() string {
	switch s {
	case StageContext:
		return "context"
	case StageBehavior:
		return "behavior"
	case StageCameraMode:
		return "camera_mode"
	case StageCamera:
		return "camera"
	case StageOutput:
		return "output"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// Scheduler is a System that runs other systems grouped by stage.
type Scheduler struct {
	stages [stageCount][]System
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Add registers system at stage. Unknown stages run last.
func (s *Scheduler) Add(stage Stage, system System) {
	if system == nil {
		return
	}
	if stage >= stageCount {
		stage = StageOutput
	}
	s.stages[stage] = append(s.stages[stage], system)
}

func (s *Scheduler) Update(w *World) {
	for _, stage := range s.stages {
		for _, system := range stage {
			system.Update(w)
		}
	}
}

// Systems returns every registered system in run order.
func (s *Scheduler) Systems() []System {
	var systems []System
	for _, stage := range s.stages {
		systems = append(systems, stage...)
	}
	return systems
}
