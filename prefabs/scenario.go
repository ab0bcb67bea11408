package prefabs

import (
	"github.com/milk9111/cameraman/common"
	"github.com/milk9111/cameraman/perception"
	"github.com/milk9111/cameraman/trace"
)

// ScenarioSpec is a scripted run: level collision, the initial cast, and a
// list of steps each held for some number of ticks.
type ScenarioSpec struct {
	Name      string           `yaml:"name"`
	DT        float64          `yaml:"dt"`
	Obstacles []trace.Obstacle `yaml:"obstacles"`
	Agents    []SpawnSpec      `yaml:"agents"`
	Rigs      []RigSpec        `yaml:"rigs"`
	Steps     []StepSpec       `yaml:"steps"`
}

type SpawnSpec struct {
	Name   string `yaml:"name"`
	Prefab string `yaml:"prefab"`
}

type RigSpec struct {
	Name   string `yaml:"name"`
	Prefab string `yaml:"prefab"`
	// Follow overrides the prefab's follow target.
	Follow string `yaml:"follow"`
}

// StepSpec sets inputs that then stay in effect for Ticks ticks. Maps are
// keyed by agent or rig name; agents missing from a map keep their previous
// input.
type StepSpec struct {
	Ticks      int                            `yaml:"ticks"`
	Signals    map[string][]string            `yaml:"signals"`
	Perception map[string]perception.Snapshot `yaml:"perception"`
	Positions  map[string]common.Vec3         `yaml:"positions"`
	Views      map[string]common.Rotator      `yaml:"views"`
	SwitchTo   string                         `yaml:"switch_to"`
	Spawn      []SpawnSpec                    `yaml:"spawn"`
	Despawn    []string                       `yaml:"despawn"`
}

func LoadScenario(name string) (ScenarioSpec, error) {
	return LoadSpec[ScenarioSpec](name)
}
