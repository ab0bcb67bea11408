// Package camera resolves framing profiles for the active gameplay state and
// blends live camera rigs toward them.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/milk9111/cameraman/common"
)

const (
	DefaultMinArmLength = 10.0
	MinFOV              = 5.0
	MaxFOV              = 170.0
)

var ErrInvalidProfile = errors.New("camera: invalid profile")

// Profile is the framing a camera should settle into. Angles are degrees,
// distances world units, LagSpeed is per second.
type Profile struct {
	ArmLength        float64     `yaml:"arm_length" json:"arm_length"`
	FOV              float64     `yaml:"fov" json:"fov"`
	PitchMin         float64     `yaml:"pitch_min" json:"pitch_min"`
	PitchMax         float64     `yaml:"pitch_max" json:"pitch_max"`
	LagSpeed         float64     `yaml:"lag_speed" json:"lag_speed"`
	CollisionPadding float64     `yaml:"collision_padding" json:"collision_padding"`
	Offset           common.Vec3 `yaml:"offset" json:"offset"`
}

// Validate reports authoring mistakes. It is used at load time; Sanitize
// covers values produced at runtime by param overrides.
func (p Profile) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidProfile}, args...)...))
		}
	}
	check(finite(p.ArmLength) && p.ArmLength > 0, "arm_length must be positive, got %v", p.ArmLength)
	check(finite(p.FOV) && p.FOV >= MinFOV && p.FOV <= MaxFOV, "fov must be within [%v, %v], got %v", MinFOV, MaxFOV, p.FOV)
	check(finite(p.PitchMin) && finite(p.PitchMax), "pitch limits must be finite")
	check(p.PitchMin <= p.PitchMax, "pitch_min %v is above pitch_max %v", p.PitchMin, p.PitchMax)
	check(p.PitchMin >= -90 && p.PitchMax <= 90, "pitch limits must be within [-90, 90]")
	check(finite(p.LagSpeed), "lag_speed must be finite")
	check(finite(p.CollisionPadding) && p.CollisionPadding >= 0, "collision_padding must not be negative, got %v", p.CollisionPadding)
	return errors.Join(errs...)
}

// Sanitize forces p into a usable range.
func (p Profile) Sanitize(minArm float64) Profile {
	if minArm <= 0 {
		minArm = DefaultMinArmLength
	}
	if !finite(p.ArmLength) || p.ArmLength < minArm {
		p.ArmLength = minArm
	}
	if !finite(p.FOV) {
		p.FOV = 90
	}
	p.FOV = common.Clamp(p.FOV, MinFOV, MaxFOV)
	if !finite(p.PitchMin) {
		p.PitchMin = -89
	}
	if !finite(p.PitchMax) {
		p.PitchMax = 89
	}
	p.PitchMin = common.Clamp(p.PitchMin, -89, 89)
	p.PitchMax = common.Clamp(p.PitchMax, -89, 89)
	if p.PitchMin > p.PitchMax {
		p.PitchMin, p.PitchMax = p.PitchMax, p.PitchMin
	}
	if !finite(p.LagSpeed) {
		p.LagSpeed = 0
	}
	if !finite(p.CollisionPadding) || p.CollisionPadding < 0 {
		p.CollisionPadding = 0
	}
	return p
}

// Patch is a partially authored profile. Nil fields inherit from the
// profile it is applied to.
type Patch struct {
	ArmLength        *float64     `yaml:"arm_length"`
	FOV              *float64     `yaml:"fov"`
	PitchMin         *float64     `yaml:"pitch_min"`
	PitchMax         *float64     `yaml:"pitch_max"`
	LagSpeed         *float64     `yaml:"lag_speed"`
	CollisionPadding *float64     `yaml:"collision_padding"`
	Offset           *common.Vec3 `yaml:"offset"`
}

func (pt Patch) Apply(base Profile) Profile {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&base.ArmLength, pt.ArmLength)
	set(&base.FOV, pt.FOV)
	set(&base.PitchMin, pt.PitchMin)
	set(&base.PitchMax, pt.PitchMax)
	set(&base.LagSpeed, pt.LagSpeed)
	set(&base.CollisionPadding, pt.CollisionPadding)
	if pt.Offset != nil {
		base.Offset = *pt.Offset
	}
	return base
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
