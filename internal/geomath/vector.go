// Package geomath implements the spherical math the simulation core runs on:
// great-circle motion, parallel transport of a tangent-plane orientation,
// and tangent bases at a surface point. It has no dependency on terrain or
// unit state; it is pure vector/quaternion algebra.
package geomath

import "math"

// Vec3 is a point or direction in R3.
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(k float64) Vec3 {
	return Vec3{a.X * k, a.Y * k, a.Z * k}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func (a Vec3) Length() float64 {
	return math.Sqrt(a.Dot(a))
}

// Normalized returns a unit vector in the direction of a, or the zero vector
// if a is (numerically) zero-length.
func (a Vec3) Normalized() Vec3 {
	l := a.Length()
	if l < 1e-12 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

// IsFinite reports whether all components are finite (guards against NaN/Inf
// propagating from an oracle per spec.md Sec.7).
func (a Vec3) IsFinite() bool {
	return !math.IsNaN(a.X) && !math.IsNaN(a.Y) && !math.IsNaN(a.Z) &&
		!math.IsInf(a.X, 0) && !math.IsInf(a.Y, 0) && !math.IsInf(a.Z, 0)
}

// ProjectOntoPlane projects v onto the plane whose normal is n (n assumed
// unit length), returning a vector tangent to that plane.
func ProjectOntoPlane(v, n Vec3) Vec3 {
	return v.Sub(n.Scale(v.Dot(n)))
}

// Clamp clamps x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpVec3 linearly interpolates between a and b by t component-wise.
func LerpVec3(a, b Vec3, t float64) Vec3 {
	return Vec3{
		X: Lerp(a.X, b.X, t),
		Y: Lerp(a.Y, b.Y, t),
		Z: Lerp(a.Z, b.Z, t),
	}
}
