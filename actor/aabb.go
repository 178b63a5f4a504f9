package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns an inverted box that any Extend call will overwrite
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Contains reports whether other lies entirely inside a
func (a AABB) Contains(other AABB) bool {
	return a.ContainsPoint(other.Min) && a.ContainsPoint(other.Max)
}

// Extend returns the smallest box enclosing both a and other
func (a AABB) Extend(other AABB) AABB {
	for i := 0; i < 3; i++ {
		a.Min[i] = math.Min(a.Min[i], other.Min[i])
		a.Max[i] = math.Max(a.Max[i], other.Max[i])
	}
	return a
}

// ExtendPoint grows the box to include p
func (a AABB) ExtendPoint(p mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		a.Min[i] = math.Min(a.Min[i], p[i])
		a.Max[i] = math.Max(a.Max[i], p[i])
	}
	return a
}

// OverlapsRay tests the segment from -> to against the box with the slab method
func (a AABB) OverlapsRay(from, to mgl64.Vec3) bool {
	dir := to.Sub(from)
	tmin, tmax := 0.0, 1.0

	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if from[i] < a.Min[i] || from[i] > a.Max[i] {
				return false
			}
			continue
		}

		t1 := (a.Min[i] - from[i]) / dir[i]
		t2 := (a.Max[i] - from[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}

	return true
}

// transformAABB returns the world box of a local box moved by pos and rotated by quat
func transformAABB(local AABB, pos mgl64.Vec3, quat mgl64.Quat) AABB {
	corners := [8]mgl64.Vec3{
		{local.Min.X(), local.Min.Y(), local.Min.Z()},
		{local.Max.X(), local.Min.Y(), local.Min.Z()},
		{local.Min.X(), local.Max.Y(), local.Min.Z()},
		{local.Max.X(), local.Max.Y(), local.Min.Z()},
		{local.Min.X(), local.Min.Y(), local.Max.Z()},
		{local.Max.X(), local.Min.Y(), local.Max.Z()},
		{local.Min.X(), local.Max.Y(), local.Max.Z()},
		{local.Max.X(), local.Max.Y(), local.Max.Z()},
	}

	result := EmptyAABB()
	for _, c := range corners {
		result = result.ExtendPoint(quat.Rotate(c).Add(pos))
	}

	return result
}
