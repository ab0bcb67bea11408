package director

import (
	"errors"
	"fmt"
	"sort"

	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/gameplay"
	"github.com/milk9111/cameraman/prefabs"
	"github.com/milk9111/cameraman/statetree"
)

// Config is the compiled, validated static configuration.
type Config struct {
	Tree     *statetree.Tree
	Selector *gameplay.Selector
	Profiles *camera.ProfileTable
	// Tracer may be nil, which disables collision clamping.
	Tracer camera.Tracer

	SnapOnContextChange bool
	ParallelAgents      bool
	Workers             int
	SwitchLock          float64
	RigCooldown         float64
	// TracerBackend is the collision backend named in tuning.
	TracerBackend string
}

func (c *Config) validate() error {
	var errs []error
	if c == nil {
		return errors.New("director: nil config")
	}
	if c.Tree == nil {
		errs = append(errs, errors.New("director: state tree is required"))
	}
	if c.Selector == nil {
		errs = append(errs, errors.New("director: context selector is required"))
	}
	if c.Profiles == nil {
		errs = append(errs, camera.ErrNoGlobalProfile)
	}
	return errors.Join(errs...)
}

// Compile turns loaded prefab specs into a Config. Every problem in every
// file is reported.
func Compile(b prefabs.Bundle) (*Config, error) {
	var errs []error
	cfg := &Config{
		SnapOnContextChange: b.Tuning.SnapOnContextChange,
		ParallelAgents:      b.Tuning.ParallelAgents,
		Workers:             b.Tuning.Workers,
		SwitchLock:          camera.DefaultSwitchLock,
		RigCooldown:         camera.DefaultRigCooldown,
		TracerBackend:       b.Tuning.Tracer,
	}

	tree, err := statetree.Compile(b.Behavior)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", prefabs.BehaviorFile, err))
	} else {
		if b.Tuning.MinHoldTicks != nil {
			if *b.Tuning.MinHoldTicks < 0 {
				errs = append(errs, fmt.Errorf("%s: min_hold_ticks must not be negative", prefabs.TuningFile))
			}
			tree = tree.WithMinHoldTicks(*b.Tuning.MinHoldTicks)
		}
		cfg.Tree = tree
	}

	if sel, err := compileRules(b.Context); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", prefabs.ContextFile, err))
	} else {
		cfg.Selector = sel
	}

	if table, err := compileProfiles(b.Cameras); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", prefabs.CamerasFile, err))
	} else {
		cfg.Profiles = table
	}

	if v := b.Tuning.SwitchLock; v != nil {
		cfg.SwitchLock = *v
	}
	if v := b.Tuning.RigCooldown; v != nil {
		cfg.RigCooldown = *v
	}
	if cfg.SwitchLock < 0 || cfg.RigCooldown < 0 {
		errs = append(errs, fmt.Errorf("%s: switch_lock and rig_cooldown must not be negative", prefabs.TuningFile))
	}
	if b.Tuning.Workers < 0 {
		errs = append(errs, fmt.Errorf("%s: workers must not be negative", prefabs.TuningFile))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads and compiles the prefab bundle.
func LoadConfig() (*Config, error) {
	b, err := prefabs.LoadBundle()
	if err != nil {
		return nil, err
	}
	return Compile(b)
}

func compileRules(spec prefabs.ContextSpec) (*gameplay.Selector, error) {
	if len(spec.Rules) == 0 {
		return gameplay.NewSelector(gameplay.DefaultRules())
	}
	var errs []error
	rules := make([]gameplay.Rule, 0, len(spec.Rules))
	for i, r := range spec.Rules {
		c, err := gameplay.ParseContext(r.Context)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		rules = append(rules, gameplay.Rule{Context: c, Require: r.Require, Forbid: r.Forbid})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return gameplay.NewSelector(rules)
}

func compileProfiles(spec prefabs.CamerasSpec) (*camera.ProfileTable, error) {
	if spec.Global == nil {
		return nil, camera.ErrNoGlobalProfile
	}
	global := *spec.Global

	var errs []error
	contexts := make(map[gameplay.Context]camera.Profile, len(spec.Contexts))
	names := make([]string, 0, len(spec.Contexts))
	for name := range spec.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c, err := gameplay.ParseContext(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("contexts: %w", err))
			continue
		}
		contexts[c] = spec.Contexts[name].Apply(global)
	}

	entries := make(map[camera.Key]camera.Profile, len(spec.Entries))
	for i, e := range spec.Entries {
		c, err := gameplay.ParseContext(e.Context)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		if e.Leaf == "" {
			errs = append(errs, fmt.Errorf("entry %d: leaf is required", i))
			continue
		}
		key := camera.Key{Context: c, Leaf: e.Leaf}
		if _, dup := entries[key]; dup {
			errs = append(errs, fmt.Errorf("entry %d: duplicate %s/%s", i, c, e.Leaf))
			continue
		}
		base, ok := contexts[c]
		if !ok {
			base = global
		}
		entries[key] = e.Profile.Apply(base)
	}

	aliases := camera.DefaultAliases()
	for name, field := range spec.Aliases {
		aliases[name] = camera.Field(field)
	}

	table, err := camera.NewProfileTable(camera.TableConfig{
		Global:       &global,
		Contexts:     contexts,
		Entries:      entries,
		Aliases:      aliases,
		MinArmLength: spec.MinArmLength,
	})
	if err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return table, nil
}
