package raycast

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// intersectSphere reports both roots of |from + t·d - center| = R lying on the segment
func (r *Ray) intersectSphere(s *actor.Sphere, position mgl64.Vec3, body *actor.RigidBody) {
	delta := r.To.Sub(r.From)
	toFrom := r.From.Sub(position)

	a := delta.LenSqr()
	b := 2 * delta.Dot(toFrom)
	c := toFrom.LenSqr() - s.Radius*s.Radius
	discriminant := b*b - 4*a*c
	if a == 0 || discriminant < 0 {
		return
	}

	root := math.Sqrt(discriminant)
	for _, t := range [2]float64{(-b - root) / (2 * a), (-b + root) / (2 * a)} {
		if t < 0 || t > 1 || r.result.shouldStop {
			continue
		}
		point := r.From.Add(delta.Mul(t))
		r.report(vmath.SafeNormalize(point.Sub(position)), point, s, body, -1)

		if discriminant == 0 {
			return
		}
	}
}

func (r *Ray) intersectPlane(p *actor.Plane, position mgl64.Vec3, quaternion mgl64.Quat, body *actor.RigidBody) {
	normal := p.WorldNormal(quaternion)

	fromSide := r.From.Sub(position).Dot(normal)
	toSide := r.To.Sub(position).Dot(normal)
	if fromSide*toSide > 0 {
		return
	}

	dot := normal.Dot(r.direction)
	if math.Abs(dot) < precision {
		return
	}

	t := -fromSide / dot
	point := r.From.Add(r.direction.Mul(t))
	r.report(normal, point, p, body, -1)
}

// intersectConvex tests the listed faces of the hull, every face when faces is nil.
// reported is the shape given to the result, the hull may only be its representation.
func (r *Ray) intersectConvex(hull *actor.ConvexPolyhedron, reported actor.Shape, position mgl64.Vec3, quaternion mgl64.Quat, body *actor.RigidBody, faces []int) {
	count := len(hull.Faces)
	if faces != nil {
		count = len(faces)
	}

	for k := 0; k < count; k++ {
		fi := k
		if faces != nil {
			fi = faces[k]
		}
		face := hull.Faces[fi]

		normal := quaternion.Rotate(hull.FaceNormals[fi])
		dot := r.direction.Dot(normal)
		if math.Abs(dot) < precision {
			continue
		}

		first := quaternion.Rotate(hull.Vertices[face[0]]).Add(position)
		t := normal.Dot(first.Sub(r.From)) / dot
		if t < 0 || t > r.length {
			continue
		}
		point := r.From.Add(r.direction.Mul(t))

		for i := 1; i < len(face)-1; i++ {
			b := quaternion.Rotate(hull.Vertices[face[i]]).Add(position)
			c := quaternion.Rotate(hull.Vertices[face[i+1]]).Add(position)
			if vmath.PointInTriangle(point, first, b, c) {
				r.report(normal, point, reported, body, fi)
				break
			}
		}

		if r.result.shouldStop {
			return
		}
	}
}

// intersectTrimesh tests the triangles whose tree leaves the segment crosses
func (r *Ray) intersectTrimesh(mesh *actor.Trimesh, position mgl64.Vec3, quaternion mgl64.Quat, body *actor.RigidBody) {
	inverse := quaternion.Conjugate()
	localFrom := inverse.Rotate(r.From.Sub(position))
	localTo := inverse.Rotate(r.To.Sub(position))
	localDirection := vmath.SafeNormalize(localTo.Sub(localFrom))

	r.triangles = mesh.TrianglesOnRay(localFrom, localTo, r.triangles[:0])
	for _, tri := range r.triangles {
		a, b, c := mesh.Triangle(tri)
		normal := mesh.TriangleNormal(tri)

		dot := localDirection.Dot(normal)
		if math.Abs(dot) < precision {
			continue
		}
		t := normal.Dot(a.Sub(localFrom)) / dot
		if t < 0 {
			continue
		}
		localPoint := localFrom.Add(localDirection.Mul(t))
		if !vmath.PointInTriangle(localPoint, a, b, c) {
			continue
		}

		point := quaternion.Rotate(localPoint).Add(position)
		if point.Sub(r.From).Len() > r.length {
			continue
		}
		r.report(quaternion.Rotate(normal), point, mesh, body, tri)

		if r.result.shouldStop {
			return
		}
	}
}

// intersectHeightfield tests the top face of the pillars under the segment
func (r *Ray) intersectHeightfield(hf *actor.Heightfield, position mgl64.Vec3, quaternion mgl64.Quat, body *actor.RigidBody) {
	inverse := quaternion.Conjugate()
	localFrom := inverse.Rotate(r.From.Sub(position))
	localTo := inverse.Rotate(r.To.Sub(position))
	lo, hi := vmath.MinMax(localFrom, localTo)

	iMinX, iMinY, iMaxX, iMaxY := hf.ClampedRange(lo, hi)
	top := []int{0}

	for i := iMinX; i < iMaxX; i++ {
		for j := iMinY; j < iMaxY; j++ {
			for _, upper := range [2]bool{false, true} {
				if r.result.shouldStop {
					return
				}
				pillar, offset := hf.TrianglePillar(i, j, upper)
				r.intersectConvex(pillar, hf, quaternion.Rotate(offset).Add(position), quaternion, body, top)
			}
		}
	}
}
