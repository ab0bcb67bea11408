package trace

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/common"
)

// solid is attached to every cp shape as user data. Shapes live in the XY
// plane; ZMin and ZMax give them height.
type solid struct {
	name       string
	zMin, zMax float64
}

// Space traces against static geometry indexed by a chipmunk space. Level
// geometry is extruded from the XY plane between per shape height limits.
type Space struct {
	space  *cp.Space
	filter cp.ShapeFilter
	count  int
}

func NewSpace() *Space {
	return &Space{space: cp.NewSpace(), filter: cp.SHAPE_FILTER_ALL}
}

// Len returns the number of shapes added.
func (s *Space) Len() int {
	return s.count
}

// AddBox adds an axis aligned solid spanning lo..hi.
func (s *Space) AddBox(name string, lo, hi common.Vec3) {
	bb := cp.BB{L: math.Min(lo.X, hi.X), B: math.Min(lo.Y, hi.Y), R: math.Max(lo.X, hi.X), T: math.Max(lo.Y, hi.Y)}
	shape := cp.NewBox2(s.space.StaticBody, bb, 0)
	s.add(shape, name, math.Min(lo.Z, hi.Z), math.Max(lo.Z, hi.Z))
}

// AddCylinder adds an upright cylinder.
func (s *Space) AddCylinder(name string, center common.Vec3, radius, height float64) {
	shape := cp.NewCircle(s.space.StaticBody, radius, cp.Vector{X: center.X, Y: center.Y})
	s.add(shape, name, center.Z, center.Z+height)
}

// AddWall adds a thick wall along a..b. Z comes from a; the wall is height
// tall.
func (s *Space) AddWall(name string, a, b common.Vec3, thickness, height float64) {
	shape := cp.NewSegment(s.space.StaticBody, cp.Vector{X: a.X, Y: a.Y}, cp.Vector{X: b.X, Y: b.Y}, thickness/2)
	s.add(shape, name, a.Z, a.Z+height)
}

func (s *Space) add(shape *cp.Shape, name string, zMin, zMax float64) {
	shape.UserData = &solid{name: name, zMin: zMin, zMax: zMax}
	shape.SetFilter(s.filter)
	s.space.AddShape(shape)
	s.count++
}

// Trace returns the first solid the segment from->to enters. The XY
// broadphase comes from chipmunk; height is checked per candidate.
func (s *Space) Trace(from, to common.Vec3) (camera.Hit, bool) {
	d := to.Sub(from)
	length := d.Len()
	if s == nil || length == 0 {
		return camera.Hit{}, false
	}

	a := cp.Vector{X: from.X, Y: from.Y}
	b := cp.Vector{X: to.X, Y: to.Y}
	best := math.Inf(1)
	name := ""

	consider := func(shape *cp.Shape, enter float64) {
		sol, ok := shape.UserData.(*solid)
		if !ok {
			return
		}
		exit := 1.0
		var info cp.SegmentQueryInfo
		if a.Distance(b) > 0 && shape.SegmentQuery(b, a, 0, &info) {
			exit = 1 - info.Alpha
		}
		lo, hi, ok := zRange(from.Z, d.Z, sol.zMin, sol.zMax)
		if !ok {
			return
		}
		t := math.Max(enter, lo)
		if t <= math.Min(exit, hi) && t < best {
			best, name = t, sol.name
		}
	}

	// Shapes that already contain the start point.
	s.space.BBQuery(cp.NewBBForCircle(a, 0), s.filter, func(shape *cp.Shape, _ interface{}) {
		if shape.PointQuery(a).Distance <= 0 {
			consider(shape, 0)
		}
	}, nil)
	if a.Distance(b) > 0 {
		s.space.SegmentQuery(a, b, 0, s.filter, func(shape *cp.Shape, _, _ cp.Vector, alpha float64, _ interface{}) {
			consider(shape, alpha)
		}, nil)
	}

	if math.IsInf(best, 1) {
		return camera.Hit{}, false
	}
	return camera.Hit{
		Distance: best * length,
		Point:    from.Add(d.Scale(best)),
		Shape:    name,
	}, true
}

// zRange returns the parameter interval in [0, 1] where z0 + dz*t lies
// within [zMin, zMax].
func zRange(z0, dz, zMin, zMax float64) (float64, float64, bool) {
	if dz == 0 {
		return 0, 1, z0 >= zMin && z0 <= zMax
	}
	t1 := (zMin - z0) / dz
	t2 := (zMax - z0) / dz
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	lo, hi := math.Max(t1, 0), math.Min(t2, 1)
	return lo, hi, lo <= hi
}
