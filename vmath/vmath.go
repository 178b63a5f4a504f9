// Package vmath holds the small vector and quaternion helpers that mgl64 does not provide.
package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the default tolerance for float comparisons
const Epsilon = 1e-9

var (
	UnitX = mgl64.Vec3{1, 0, 0}
	UnitY = mgl64.Vec3{0, 1, 0}
	UnitZ = mgl64.Vec3{0, 0, 1}
)

// AlmostZero reports whether every component of v is within tolerance of 0
func AlmostZero(v mgl64.Vec3, tolerance float64) bool {
	return math.Abs(v.X()) <= tolerance && math.Abs(v.Y()) <= tolerance && math.Abs(v.Z()) <= tolerance
}

// AlmostEqual compares two vectors component-wise
func AlmostEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return AlmostZero(a.Sub(b), tolerance)
}

// SafeNormalize returns v normalized, or the zero vector if v has no length.
// mgl64's Normalize divides by zero on null vectors.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec3{}
	}
	return v.Mul(1.0 / l)
}

// Tangents computes two unit vectors orthogonal to n and to each other.
// n is expected to be normalized; a zero n yields the X and Y axes.
func Tangents(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	if n.LenSqr() < Epsilon {
		return UnitX, UnitY
	}
	n = n.Normalize()

	var t1 mgl64.Vec3
	if math.Abs(n.X()) < 0.9 {
		t1 = UnitX.Cross(n)
	} else {
		t1 = UnitY.Cross(n)
	}
	t1 = t1.Normalize()
	t2 := n.Cross(t1)

	return t1, t2
}

// Lerp linearly interpolates between a and b
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// MulElem multiplies two vectors component-wise
func MulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// IntegrateQuat advances q by the angular velocity w over dt, scaled per axis by factor.
// The result is not normalized.
func IntegrateQuat(q mgl64.Quat, w mgl64.Vec3, factor mgl64.Vec3, dt float64) mgl64.Quat {
	ax := w.X() * factor.X()
	ay := w.Y() * factor.Y()
	az := w.Z() * factor.Z()

	bx, by, bz, bw := q.V[0], q.V[1], q.V[2], q.W
	half := dt * 0.5

	return mgl64.Quat{
		W: bw + half*(-ax*bx-ay*by-az*bz),
		V: mgl64.Vec3{
			bx + half*(ax*bw+ay*bz-az*by),
			by + half*(ay*bw+az*bx-ax*bz),
			bz + half*(az*bw+ax*by-ay*bx),
		},
	}
}

// NormalizeFast approximates normalization with one Newton step around length 1.
// Only valid for quaternions that are already close to unit length.
func NormalizeFast(q mgl64.Quat) mgl64.Quat {
	f := (3.0 - (q.W*q.W + q.V.Dot(q.V))) / 2.0
	if f == 0 {
		return mgl64.QuatIdent()
	}
	return mgl64.Quat{W: q.W * f, V: q.V.Mul(f)}
}

// NormalizeQuat normalizes q, falling back to identity for a null quaternion
func NormalizeQuat(q mgl64.Quat) mgl64.Quat {
	l := q.Len()
	if l < Epsilon {
		return mgl64.QuatIdent()
	}
	return q.Scale(1.0 / l)
}

// QuatFromAxisAngle builds a rotation of angle radians around axis
func QuatFromAxisAngle(axis mgl64.Vec3, angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, SafeNormalize(axis))
}

// PointInTriangle reports whether p lies inside triangle abc, using barycentric coordinates.
// p is assumed to be in the triangle plane.
func PointInTriangle(p, a, b, c mgl64.Vec3) bool {
	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	dot00 := v0.Dot(v0)
	dot01 := v0.Dot(v1)
	dot02 := v0.Dot(v2)
	dot11 := v1.Dot(v1)
	dot12 := v1.Dot(v2)

	denom := dot00*dot11 - dot01*dot01
	if math.Abs(denom) < Epsilon {
		return false
	}
	inv := 1.0 / denom
	u := (dot11*dot02 - dot01*dot12) * inv
	v := (dot00*dot12 - dot01*dot02) * inv

	return u >= 0 && v >= 0 && u+v < 1
}

// ClosestPointOnSegment returns the point of segment ab closest to p
func ClosestPointOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	l2 := ab.LenSqr()
	if l2 < Epsilon {
		return a
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Mul(t))
}

// MinMax returns the component-wise minimum and maximum of a and b
func MinMax(a, b mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}
