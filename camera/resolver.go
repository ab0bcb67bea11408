package camera

import (
	"errors"
	"fmt"
	"sort"

	"github.com/milk9111/cameraman/gameplay"
)

var (
	ErrNoGlobalProfile = errors.New("camera: global default profile is required")
	ErrUnknownField    = errors.New("camera: unknown profile field")
)

// Tier reports which level of the table produced a profile.
type Tier uint8

const (
	TierGlobal Tier = iota
	TierContext
	TierExact
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierContext:
		return "context"
	default:
		return "global"
	}
}

// Key addresses an exact table entry.
type Key struct {
	Context gameplay.Context
	Leaf    string
}

// Field is a numeric profile field that a behavior param can override.
type Field string

const (
	FieldArmLength        Field = "arm_length"
	FieldFOV              Field = "fov"
	FieldPitchMin         Field = "pitch_min"
	FieldPitchMax         Field = "pitch_max"
	FieldLagSpeed         Field = "lag_speed"
	FieldCollisionPadding Field = "collision_padding"
	FieldOffsetX          Field = "offset_x"
	FieldOffsetY          Field = "offset_y"
	FieldOffsetZ          Field = "offset_z"
)

var fieldSetters = map[Field]func(p *Profile, v float64){
	FieldArmLength:        func(p *Profile, v float64) { p.ArmLength = v },
	FieldFOV:              func(p *Profile, v float64) { p.FOV = v },
	FieldPitchMin:         func(p *Profile, v float64) { p.PitchMin = v },
	FieldPitchMax:         func(p *Profile, v float64) { p.PitchMax = v },
	FieldLagSpeed:         func(p *Profile, v float64) { p.LagSpeed = v },
	FieldCollisionPadding: func(p *Profile, v float64) { p.CollisionPadding = v },
	FieldOffsetX:          func(p *Profile, v float64) { p.Offset.X = v },
	FieldOffsetY:          func(p *Profile, v float64) { p.Offset.Y = v },
	FieldOffsetZ:          func(p *Profile, v float64) { p.Offset.Z = v },
}

// DefaultAliases are param names used by authored trees for profile fields.
func DefaultAliases() map[string]Field {
	return map[string]Field{
		"closeRange":  FieldArmLength,
		"close_range": FieldArmLength,
		"distance":    FieldArmLength,
		"fovDegrees":  FieldFOV,
		"lagSpeed":    FieldLagSpeed,
		"padding":     FieldCollisionPadding,
	}
}

// TableConfig is the input to NewProfileTable.
type TableConfig struct {
	Global   *Profile
	Contexts map[gameplay.Context]Profile
	Entries  map[Key]Profile
	// Aliases map extra param names onto fields. Canonical field names are
	// always bound.
	Aliases      map[string]Field
	MinArmLength float64
}

// ProfileTable maps (context, leaf) to a camera profile with a three tier
// fallback. It is immutable once built and Resolve never fails.
type ProfileTable struct {
	global   Profile
	contexts map[gameplay.Context]Profile
	entries  map[Key]Profile
	aliases  map[string]Field
	aliasKey []string
	minArm   float64
}

func NewProfileTable(cfg TableConfig) (*ProfileTable, error) {
	var errs []error
	if cfg.Global == nil {
		errs = append(errs, ErrNoGlobalProfile)
	} else if err := cfg.Global.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("global: %w", err))
	}

	t := &ProfileTable{
		contexts: make(map[gameplay.Context]Profile, len(cfg.Contexts)),
		entries:  make(map[Key]Profile, len(cfg.Entries)),
		aliases:  make(map[string]Field, len(cfg.Aliases)),
		minArm:   cfg.MinArmLength,
	}
	if t.minArm <= 0 {
		t.minArm = DefaultMinArmLength
	}
	if cfg.Global != nil {
		t.global = *cfg.Global
	}

	for c, p := range cfg.Contexts {
		if !c.Valid() {
			errs = append(errs, fmt.Errorf("camera: %w", gameplay.ErrUnknownContext))
			continue
		}
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("context %s: %w", c, err))
		}
		t.contexts[c] = p
	}
	for k, p := range cfg.Entries {
		if !k.Context.Valid() || k.Leaf == "" {
			errs = append(errs, fmt.Errorf("camera: bad entry key %v/%q", k.Context, k.Leaf))
			continue
		}
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entry %s/%s: %w", k.Context, k.Leaf, err))
		}
		t.entries[k] = p
	}
	for name, f := range cfg.Aliases {
		if _, ok := fieldSetters[f]; !ok {
			errs = append(errs, fmt.Errorf("alias %q: %w %q", name, ErrUnknownField, f))
			continue
		}
		t.aliases[name] = f
		t.aliasKey = append(t.aliasKey, name)
	}
	sort.Strings(t.aliasKey)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return t, nil
}

// MinArmLength is the shortest arm any resolved profile carries.
func (t *ProfileTable) MinArmLength() float64 {
	return t.minArm
}

// Lookup returns the table profile for (ctx, leaf) before param overrides.
func (t *ProfileTable) Lookup(ctx gameplay.Context, leaf string) (Profile, Tier) {
	if p, ok := t.entries[Key{Context: ctx, Leaf: leaf}]; ok {
		return p, TierExact
	}
	if p, ok := t.contexts[ctx]; ok {
		return p, TierContext
	}
	return t.global, TierGlobal
}

// Resolve returns the profile for the agent's context and behavior state.
// Numeric params named after a profile field, or one of its aliases,
// override that field alone. Canonical names win over aliases.
func (t *ProfileTable) Resolve(ctx gameplay.Context, leaf string, params map[string]float64) (Profile, Tier) {
	p, tier := t.Lookup(ctx, leaf)
	if len(params) > 0 {
		for _, name := range t.aliasKey {
			if v, ok := params[name]; ok {
				fieldSetters[t.aliases[name]](&p, v)
			}
		}
		for f, set := range fieldSetters {
			if v, ok := params[string(f)]; ok {
				set(&p, v)
			}
		}
	}
	return p.Sanitize(t.minArm), tier
}
