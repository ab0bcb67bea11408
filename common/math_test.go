package common

import (
	"math"
	"testing"
)

func TestSmoothingAlphaIsRateIndependent(t *testing.T) {
	const rate = 6.0
	cases := []struct {
		name  string
		steps int
	}{
		{"30hz", 30},
		{"60hz", 60},
		{"144hz", 144},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dt := 1.0 / float64(c.steps)
			v := 0.0
			for i := 0; i < c.steps; i++ {
				v += (1 - v) * SmoothingAlpha(rate, dt)
			}
			want := 1 - math.Exp(-rate)
			if math.Abs(v-want) > 1e-9 {
				t.Fatalf("after 1s expected %v, got %v", want, v)
			}
		})
	}
}

func TestSmoothingAlphaEdges(t *testing.T) {
	if a := SmoothingAlpha(0, 0.016); a != 1 {
		t.Fatalf("zero rate should snap, got %v", a)
	}
	if a := SmoothingAlpha(5, 0); a != 0 {
		t.Fatalf("zero dt should not move, got %v", a)
	}
}

func TestAngleDelta(t *testing.T) {
	cases := []struct {
		a, b, want float64
	}{
		{0, 90, 90},
		{170, -170, 20},
		{-170, 170, -20},
		{10, 10, 0},
	}
	for _, c := range cases {
		if got := AngleDelta(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("AngleDelta(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestRotatorForward(t *testing.T) {
	f := Rotator{Yaw: 90}.Forward()
	if math.Abs(f.X) > 1e-9 || math.Abs(f.Y-1) > 1e-9 || math.Abs(f.Z) > 1e-9 {
		t.Fatalf("unexpected forward %+v", f)
	}
	up := Rotator{Pitch: 90}.Forward()
	if math.Abs(up.Z-1) > 1e-9 {
		t.Fatalf("pitch 90 should face up, got %+v", up)
	}
}
