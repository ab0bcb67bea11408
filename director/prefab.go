package director

import (
	"fmt"

	"github.com/milk9111/cameraman/prefabs"
)

// SpawnPrefab spawns an agent from an entity prefab. name overrides the
// prefab's name when set.
func (d *Director) SpawnPrefab(name, prefab string) (AgentInfo, error) {
	spec, err := prefabs.LoadEntityBuildSpec(prefab)
	if err != nil {
		return AgentInfo{}, err
	}
	agent, err := prefabs.DecodeComponentSpec[prefabs.AgentComponentSpec](spec.Components["agent"])
	if err != nil {
		return AgentInfo{}, fmt.Errorf("prefabs: %s agent: %w", prefab, err)
	}
	if name == "" {
		name = spec.Name
	}
	return d.Spawn(name, SpawnOptions{
		Position:    agent.Position,
		PivotOffset: agent.PivotOffset,
		Signals:     agent.Signals,
	})
}

// AddRigPrefab adds a rig from an entity prefab. A non-empty follow
// overrides the prefab's target.
func (d *Director) AddRigPrefab(name, prefab, follow string) error {
	spec, err := prefabs.LoadEntityBuildSpec(prefab)
	if err != nil {
		return err
	}
	rig, err := prefabs.DecodeComponentSpec[prefabs.RigComponentSpec](spec.Components["rig"])
	if err != nil {
		return fmt.Errorf("prefabs: %s rig: %w", prefab, err)
	}
	if name == "" {
		name = spec.Name
	}
	if follow == "" {
		follow = rig.Follow
	}
	return d.AddRig(name, follow, rig.View)
}
