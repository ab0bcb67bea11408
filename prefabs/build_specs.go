package prefabs

import (
	"gopkg.in/yaml.v3"

	"github.com/milk9111/cameraman/common"
)

// EntityBuildSpec is a prefab for an agent or rig: a name plus loosely
// typed component sections decoded on demand.
type EntityBuildSpec struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
}

func LoadEntityBuildSpec(filename string) (EntityBuildSpec, error) {
	return LoadSpec[EntityBuildSpec](filename)
}

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type AgentComponentSpec struct {
	PivotOffset common.Vec3 `yaml:"pivot_offset"`
	Position    common.Vec3 `yaml:"position"`
	Signals     []string    `yaml:"signals"`
}

type RigComponentSpec struct {
	Follow string         `yaml:"follow"`
	View   common.Rotator `yaml:"view"`
}
