// Package trace answers camera line traces against level collision.
package trace

import (
	"math"

	"github.com/milk9111/cameraman/camera"
	"github.com/milk9111/cameraman/common"
)

// Box is an axis aligned solid.
type Box struct {
	Name     string
	Min, Max common.Vec3
}

// Sphere is a round solid.
type Sphere struct {
	Name   string
	Center common.Vec3
	Radius float64
}

// Boxes traces analytically against a flat list of solids. It suits small
// levels and tests; Space scales better.
type Boxes struct {
	Boxes   []Box
	Spheres []Sphere
}

// Trace returns the first solid the segment from->to enters. A segment that
// starts inside a solid hits at distance zero.
func (b *Boxes) Trace(from, to common.Vec3) (camera.Hit, bool) {
	d := to.Sub(from)
	length := d.Len()
	if b == nil || length == 0 {
		return camera.Hit{}, false
	}

	closestT := 1.0
	name := ""
	hasHit := false
	for _, box := range b.Boxes {
		if hit, t := segmentAABBHit(from, d, box.Min, box.Max); hit && t <= closestT {
			closestT, name, hasHit = t, box.Name, true
		}
	}
	for _, s := range b.Spheres {
		if t, ok := segmentSphereHit(from, d, s); ok && t <= closestT {
			closestT, name, hasHit = t, s.Name, true
		}
	}
	if !hasHit {
		return camera.Hit{}, false
	}
	return camera.Hit{
		Distance: closestT * length,
		Point:    from.Add(d.Scale(closestT)),
		Shape:    name,
	}, true
}

// segmentAABBHit is the slab test over the segment p + d*t, t in [0, 1].
func segmentAABBHit(p, d, lo, hi common.Vec3) (bool, float64) {
	tmin, tmax := 0.0, 1.0
	axes := [3][4]float64{
		{p.X, d.X, lo.X, hi.X},
		{p.Y, d.Y, lo.Y, hi.Y},
		{p.Z, d.Z, lo.Z, hi.Z},
	}
	for _, a := range axes {
		p0, dd, mn, mx := a[0], a[1], a[2], a[3]
		if dd == 0 {
			if p0 < mn || p0 > mx {
				return false, 0
			}
			continue
		}
		inv := 1.0 / dd
		t1 := (mn - p0) * inv
		t2 := (mx - p0) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmax < tmin {
			return false, 0
		}
	}
	return true, tmin
}

func segmentSphereHit(p, d common.Vec3, s Sphere) (float64, bool) {
	if s.Radius <= 0 {
		return 0, false
	}
	f := p.Sub(s.Center)
	c := f.Dot(f) - s.Radius*s.Radius
	if c <= 0 {
		return 0, true
	}

	a := d.Dot(d)
	b := 2 * f.Dot(d)
	disc := b*b - 4*a*c
	if disc < 0 || a == 0 {
		return 0, false
	}
	t := (-b - math.Sqrt(disc)) / (2 * a)
	if t >= 0 && t <= 1 {
		return t, true
	}
	return 0, false
}
