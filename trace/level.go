package trace

import (
	"errors"
	"fmt"

	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/common"
)

// Backend names.
const (
	BackendSpace = "space"
	BackendBoxes = "boxes"
)

var ErrUnknownBackend = errors.New("trace: unknown backend")

// Obstacle is authored level collision.
type Obstacle struct {
	Name string `yaml:"name"`
	// Kind is box, cylinder or wall.
	Kind      string      `yaml:"kind"`
	Min       common.Vec3 `yaml:"min"`
	Max       common.Vec3 `yaml:"max"`
	Center    common.Vec3 `yaml:"center"`
	Radius    float64     `yaml:"radius"`
	Height    float64     `yaml:"height"`
	From      common.Vec3 `yaml:"from"`
	To        common.Vec3 `yaml:"to"`
	Thickness float64     `yaml:"thickness"`
}

func (o Obstacle) validate() error {
	switch o.Kind {
	case "box":
		if o.Min.X > o.Max.X || o.Min.Y > o.Max.Y || o.Min.Z > o.Max.Z {
			return fmt.Errorf("trace: box %q: min is above max", o.Name)
		}
	case "cylinder":
		if o.Radius <= 0 || o.Height <= 0 {
			return fmt.Errorf("trace: cylinder %q: radius and height must be positive", o.Name)
		}
	case "wall":
		if o.Thickness <= 0 || o.Height <= 0 {
			return fmt.Errorf("trace: wall %q: thickness and height must be positive", o.Name)
		}
	default:
		return fmt.Errorf("trace: obstacle %q: unknown kind %q", o.Name, o.Kind)
	}
	return nil
}

// Build returns a tracer for obstacles using the named backend. The boxes
// backend approximates cylinders and walls with their bounding boxes.
func Build(backend string, obstacles []Obstacle) (camera.Tracer, error) {
	var errs []error
	for _, o := range obstacles {
		if err := o.validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	switch backend {
	case BackendSpace, "":
		s := NewSpace()
		for _, o := range obstacles {
			switch o.Kind {
			case "box":
				s.AddBox(o.Name, o.Min, o.Max)
			case "cylinder":
				s.AddCylinder(o.Name, o.Center, o.Radius, o.Height)
			case "wall":
				s.AddWall(o.Name, o.From, o.To, o.Thickness, o.Height)
			}
		}
		return s, nil
	case BackendBoxes:
		b := &Boxes{}
		for _, o := range obstacles {
			lo, hi := o.bounds()
			b.Boxes = append(b.Boxes, Box{Name: o.Name, Min: lo, Max: hi})
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownBackend, backend)
}

func (o Obstacle) bounds() (common.Vec3, common.Vec3) {
	switch o.Kind {
	case "cylinder":
		r := common.Vec3{X: o.Radius, Y: o.Radius}
		return o.Center.Sub(r), o.Center.Add(r).Add(common.Vec3{Z: o.Height})
	case "wall":
		h := o.Thickness / 2
		lo := common.Vec3{X: min(o.From.X, o.To.X) - h, Y: min(o.From.Y, o.To.Y) - h, Z: o.From.Z}
		hi := common.Vec3{X: max(o.From.X, o.To.X) + h, Y: max(o.From.Y, o.To.Y) + h, Z: o.From.Z + o.Height}
		return lo, hi
	default:
		return o.Min, o.Max
	}
}
