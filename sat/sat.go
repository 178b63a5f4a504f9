// Package sat implements the Separating Axis Theorem between convex hulls,
// and the face clipping that turns the found axis into a contact manifold.
//
// Candidate axes are the face normals of both hulls and the cross products of
// their edge directions. If no candidate separates the hulls, the axis of
// minimum overlap is kept. Clipping then takes the face of B most aligned with
// that axis (incident) and cuts it by the side planes of the face of A most
// opposed to it (reference), keeping the points that lie behind the reference face.
package sat

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Options holds the tolerances of the separating axis search and of the clipping.
type Options struct {
	// ParallelEpsilon discards edge cross products shorter than this (nearly parallel edges)
	ParallelEpsilon float64
	// ClipMinDist clamps the depth of clipped points from below
	ClipMinDist float64
	// ClipMaxDist discards clipped points further than this from the reference face
	ClipMaxDist float64
	// ContactSlop is the separation under which features still count as touching
	ContactSlop float64
}

func DefaultOptions() Options {
	return Options{
		ParallelEpsilon: 1e-6,
		ClipMinDist:     -100,
		ClipMaxDist:     100,
		ContactSlop:     1e-6,
	}
}

// Placed is a hull at a world position and orientation
type Placed struct {
	Hull       *actor.ConvexPolyhedron
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
}

// Support returns the world vertex furthest along direction
func (p Placed) Support(direction mgl64.Vec3) mgl64.Vec3 {
	local := p.Quaternion.Conjugate().Rotate(direction)
	return p.Quaternion.Rotate(p.Hull.Support(local)).Add(p.Position)
}

// Center returns the world position of the hull centroid
func (p Placed) Center() mgl64.Vec3 {
	return p.Quaternion.Rotate(p.Hull.Centroid()).Add(p.Position)
}

// Project returns the extent of the hull along a world axis
func Project(p Placed, axis mgl64.Vec3) (float64, float64) {
	localAxis := p.Quaternion.Conjugate().Rotate(axis)
	offset := p.Position.Dot(axis)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range p.Hull.Vertices {
		d := v.Dot(localAxis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}

	return lo + offset, hi + offset
}

// TestAxis returns the overlap of both hulls along axis, ok is false if the axis separates them
func TestAxis(axis mgl64.Vec3, a, b Placed) (float64, bool) {
	minA, maxA := Project(a, axis)
	minB, maxB := Project(b, axis)

	if maxA < minB || maxB < minA {
		return 0, false
	}

	return math.Min(maxA-minB, maxB-minA), true
}

// FindSeparatingAxis returns the axis of least overlap, oriented from b toward a.
// ok is false as soon as a separating axis is found.
func FindSeparatingAxis(a, b Placed, opts Options) (mgl64.Vec3, bool) {
	dmin := math.MaxFloat64
	var best mgl64.Vec3

	test := func(axis mgl64.Vec3) bool {
		depth, ok := TestAxis(axis, a, b)
		if !ok {
			return false
		}
		if depth < dmin {
			dmin = depth
			best = axis
		}
		return true
	}

	for _, axis := range a.Hull.UniqueAxes {
		if !test(a.Quaternion.Rotate(axis)) {
			return mgl64.Vec3{}, false
		}
	}
	for _, axis := range b.Hull.UniqueAxes {
		if !test(b.Quaternion.Rotate(axis)) {
			return mgl64.Vec3{}, false
		}
	}

	for _, edgeA := range a.Hull.UniqueEdges {
		worldEdgeA := a.Quaternion.Rotate(edgeA)
		for _, edgeB := range b.Hull.UniqueEdges {
			cross := worldEdgeA.Cross(b.Quaternion.Rotate(edgeB))
			if cross.Len() < opts.ParallelEpsilon {
				continue
			}
			if !test(cross.Normalize()) {
				return mgl64.Vec3{}, false
			}
		}
	}

	if b.Center().Sub(a.Center()).Dot(best) > 0 {
		best = best.Mul(-1)
	}

	return best, true
}
