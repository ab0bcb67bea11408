package prefabs

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/statetree"
)

const (
	BehaviorFile = "behavior.yaml"
	CamerasFile  = "cameras.yaml"
	ContextFile  = "context.yaml"
	TuningFile   = "tuning.yaml"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// CamerasSpec is the authored profile table. Context defaults are patches
// over the global profile; entries are patches over their context default.
type CamerasSpec struct {
	MinArmLength float64                 `yaml:"min_arm_length"`
	Global       *camera.Profile         `yaml:"global"`
	Contexts     map[string]camera.Patch `yaml:"contexts"`
	Entries      []CameraEntrySpec       `yaml:"entries"`
	Aliases      map[string]string       `yaml:"aliases"`
}

type CameraEntrySpec struct {
	Context string       `yaml:"context"`
	Leaf    string       `yaml:"leaf"`
	Profile camera.Patch `yaml:"profile"`
}

type ContextSpec struct {
	Rules []RuleSpec `yaml:"rules"`
}

type RuleSpec struct {
	Context string   `yaml:"context"`
	Require []string `yaml:"require"`
	Forbid  []string `yaml:"forbid"`
}

// TuningSpec holds interpolation and scheduling knobs.
type TuningSpec struct {
	// MinHoldTicks overrides the tree's hysteresis when set.
	MinHoldTicks        *int     `yaml:"min_hold_ticks"`
	SnapOnContextChange bool     `yaml:"snap_on_context_change"`
	ParallelAgents      bool     `yaml:"parallel_agents"`
	Workers             int      `yaml:"workers"`
	SwitchLock          *float64 `yaml:"switch_lock"`
	RigCooldown         *float64 `yaml:"rig_cooldown"`
	Tracer              string   `yaml:"tracer"`
}

// Bundle is every static configuration file the director needs.
type Bundle struct {
	Behavior statetree.RawTree
	Cameras  CamerasSpec
	Context  ContextSpec
	Tuning   TuningSpec
}

// LoadBundle reads all configuration files, resolving script_file
// references in the behavior tree.
func LoadBundle() (Bundle, error) {
	var b Bundle
	var errs []error
	var err error
	if b.Behavior, err = LoadSpec[statetree.RawTree](BehaviorFile); err != nil {
		errs = append(errs, err)
	} else if err := ResolveScripts(&b.Behavior); err != nil {
		errs = append(errs, err)
	}
	if b.Cameras, err = LoadSpec[CamerasSpec](CamerasFile); err != nil {
		errs = append(errs, err)
	}
	if b.Context, err = LoadSpec[ContextSpec](ContextFile); err != nil {
		errs = append(errs, err)
	}
	if b.Tuning, err = LoadSpec[TuningSpec](TuningFile); err != nil {
		errs = append(errs, err)
	}
	return b, errors.Join(errs...)
}

// ResolveScripts replaces `script_file: name.tengo` conditions with inline
// `script` conditions loaded from the scripts directory.
func ResolveScripts(raw *statetree.RawTree) error {
	var errs []error
	var resolve func(entry map[string]any)
	resolve = func(entry map[string]any) {
		for key, arg := range entry {
			switch key {
			case "script_file":
				name, _ := arg.(string)
				src, err := LoadScript(name)
				if err != nil {
					errs = append(errs, fmt.Errorf("prefabs: script %q: %w", name, err))
					continue
				}
				delete(entry, key)
				entry["script"] = string(src)
			case "not":
				if inner, ok := arg.(map[string]any); ok {
					resolve(inner)
				}
			}
		}
	}
	var walk func(nodes []statetree.RawNode)
	walk = func(nodes []statetree.RawNode) {
		for _, n := range nodes {
			for _, entry := range n.When {
				resolve(entry)
			}
			walk(n.Children)
		}
	}
	walk(raw.Nodes)
	return errors.Join(errs...)
}
