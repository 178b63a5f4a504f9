// Package gjk implements a boolean Gilbert-Johnson-Keerthi overlap test.
//
// Two convex shapes overlap when their Minkowski difference contains the origin. The
// algorithm grows a simplex of support points toward the origin and stops as soon as a
// support point fails to pass it (separated) or a tetrahedron encloses it (overlapping).
//
// The narrowphase uses it as a cheap rejection before the separating axis search, so
// every degenerate or non converging case answers "overlapping" and lets SAT decide.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
package gjk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxIterations bounds the simplex refinement loop
const MaxIterations = 32

// Shape is a convex set in world space
type Shape interface {
	// Support returns the world point furthest along direction
	Support(direction mgl64.Vec3) mgl64.Vec3
	// Center returns any world point inside the shape
	Center() mgl64.Vec3
}

// Simplex holds up to four support points, the most recent one first.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

// push inserts p as the most recent point
func (s *Simplex) push(p mgl64.Vec3) {
	s.Points[3] = s.Points[2]
	s.Points[2] = s.Points[1]
	s.Points[1] = s.Points[0]
	s.Points[0] = p
	s.Count = min(s.Count+1, 4)
}

func (s *Simplex) set(points ...mgl64.Vec3) {
	s.Count = copy(s.Points[:], points)
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport computes a support point of the Minkowski difference A - B.
func MinkowskiSupport(a, b Shape, direction mgl64.Vec3) mgl64.Vec3 {
	return a.Support(direction).Sub(b.Support(direction.Mul(-1)))
}

// Intersect runs GJK with a pooled simplex
func Intersect(a, b Shape) bool {
	simplex := SimplexPool.Get().(*Simplex)
	defer SimplexPool.Put(simplex)
	simplex.Reset()

	return GJK(a, b, simplex)
}

// GJK reports whether a and b overlap. Touching shapes count as overlapping.
func GJK(a, b Shape, simplex *Simplex) bool {
	direction := b.Center().Sub(a.Center())
	if direction.LenSqr() < 1e-12 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.set(MinkowskiSupport(a, b, direction))
	direction = simplex.Points[0].Mul(-1)

	for range MaxIterations {
		if direction.LenSqr() < 1e-16 {
			return true
		}

		p := MinkowskiSupport(a, b, direction)
		if p.Dot(direction) < 0 {
			return false
		}

		simplex.push(p)
		if nextSimplex(simplex, &direction) {
			return true
		}
	}

	return true
}

func sameDirection(a, b mgl64.Vec3) bool {
	return a.Dot(b) > 0
}

// nextSimplex reduces the simplex to the feature closest to the origin,
// and updates the search direction toward it.
func nextSimplex(s *Simplex, direction *mgl64.Vec3) bool {
	switch s.Count {
	case 2:
		return lineCase(s, direction)
	case 3:
		return triangleCase(s, direction)
	case 4:
		return tetrahedronCase(s, direction)
	}
	return false
}

func lineCase(s *Simplex, direction *mgl64.Vec3) bool {
	a, b := s.Points[0], s.Points[1]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if !sameDirection(ab, ao) {
		s.set(a)
		*direction = ao
		return false
	}

	*direction = ab.Cross(ao).Cross(ab)
	// origin on the segment
	return direction.LenSqr() < 1e-16
}

func triangleCase(s *Simplex, direction *mgl64.Vec3) bool {
	a, b, c := s.Points[0], s.Points[1], s.Points[2]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	abc := ab.Cross(ac)

	if abc.LenSqr() < 1e-14 {
		s.set(a, b)
		return lineCase(s, direction)
	}

	if sameDirection(abc.Cross(ac), ao) {
		if sameDirection(ac, ao) {
			s.set(a, c)
			*direction = ac.Cross(ao).Cross(ac)
			return false
		}
		s.set(a, b)
		return lineCase(s, direction)
	}

	if sameDirection(ab.Cross(abc), ao) {
		s.set(a, b)
		return lineCase(s, direction)
	}

	switch d := abc.Dot(ao); {
	case d > 0:
		*direction = abc
	case d < 0:
		s.set(a, c, b)
		*direction = abc.Mul(-1)
	default:
		// origin in the triangle plane
		return true
	}

	return false
}

func tetrahedronCase(s *Simplex, direction *mgl64.Vec3) bool {
	a, b, c, d := s.Points[0], s.Points[1], s.Points[2], s.Points[3]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	faces := [3]struct {
		normal   mgl64.Vec3
		opposite mgl64.Vec3
		points   [3]mgl64.Vec3
	}{
		{ab.Cross(ac), ad, [3]mgl64.Vec3{a, b, c}},
		{ac.Cross(ad), ab, [3]mgl64.Vec3{a, c, d}},
		{ad.Cross(ab), ac, [3]mgl64.Vec3{a, d, b}},
	}

	for _, face := range faces {
		normal := face.normal
		if normal.LenSqr() < 1e-14 {
			// flat tetrahedron, fall back to its first face
			s.set(a, b, c)
			return triangleCase(s, direction)
		}
		// outward: away from the fourth vertex
		if sameDirection(normal, face.opposite) {
			normal = normal.Mul(-1)
		}
		if sameDirection(normal, ao) {
			s.set(face.points[0], face.points[1], face.points[2])
			return triangleCase(s, direction)
		}
	}

	return true
}
