package common

import "math"

// Lerp blends a toward b by t.
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SmoothingAlpha returns the blend factor for exponential smoothing over dt
// seconds. The same rate converges identically at any tick rate. A rate of
// zero or less disables smoothing.
func SmoothingAlpha(rate, dt float64) float64 {
	if rate <= 0 {
		return 1
	}
	if dt <= 0 {
		return 0
	}
	return 1 - math.Exp(-rate*dt)
}

// AngleDelta returns the shortest signed difference from a to b in degrees.
func AngleDelta(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// NormalizeAngle wraps degrees into (-180, 180].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}
