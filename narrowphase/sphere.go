package narrowphase

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

func (n *Narrowphase) sphereSphere(a, b placed, justTest bool) bool {
	ra := a.shape.(*actor.Sphere).Radius
	rb := b.shape.(*actor.Sphere).Radius

	delta := b.position.Sub(a.position)
	reach := ra + rb + n.SAT.ContactSlop
	if delta.LenSqr() > reach*reach {
		return false
	}
	if justTest {
		return true
	}

	normal := vmath.SafeNormalize(delta)
	if normal.LenSqr() == 0 {
		normal = vmath.UnitY
	}
	n.addContact(a, b, normal, a.position.Add(normal.Mul(ra)), b.position.Sub(normal.Mul(rb)))

	return true
}

// spherePlane : the plane is solid below its normal
func (n *Narrowphase) spherePlane(a, b placed, justTest bool) bool {
	radius := a.shape.(*actor.Sphere).Radius
	planeNormal := b.shape.(*actor.Plane).WorldNormal(b.quaternion)

	height := a.position.Sub(b.position).Dot(planeNormal)
	if height > radius+n.SAT.ContactSlop {
		return false
	}
	if justTest {
		return true
	}

	normal := planeNormal.Mul(-1)
	n.addContact(a, b, normal,
		a.position.Add(normal.Mul(radius)),
		a.position.Sub(planeNormal.Mul(height)),
	)

	return true
}

// sphereConvex tests the hull vertices, then its faces, then the edges of the faces in front
// of the center. A center inside the hull is pushed out through the closest face.
func (n *Narrowphase) sphereConvex(a, b placed, justTest bool) bool {
	radius := a.shape.(*actor.Sphere).Radius
	hull := b.hull
	center := b.toLocal(a.position)
	radiusSquared := radius * radius

	contact := func(localNormal, localPointB mgl64.Vec3) bool {
		if justTest {
			return true
		}
		normal := b.quaternion.Rotate(localNormal)
		n.addContact(a, b, normal, a.position.Add(normal.Mul(radius)), b.toWorld(localPointB))
		return true
	}

	for _, v := range hull.Vertices {
		toCorner := v.Sub(center)
		if toCorner.LenSqr() < radiusSquared {
			return contact(vmath.SafeNormalize(toCorner), v)
		}
	}

	for i, face := range hull.Faces {
		faceNormal := hull.FaceNormals[i]
		dist := faceNormal.Dot(center.Sub(hull.Vertices[face[0]]))
		if dist <= 0 || dist >= radius {
			continue
		}

		if pointInPolygon(hull.Vertices, face, faceNormal, center) {
			return contact(faceNormal.Mul(-1), center.Sub(faceNormal.Mul(dist)))
		}

		for k := range face {
			v1 := hull.Vertices[face[k]]
			v2 := hull.Vertices[face[(k+1)%len(face)]]
			edge := v2.Sub(v1)
			lengthSquared := edge.LenSqr()
			if lengthSquared == 0 {
				continue
			}

			t := center.Sub(v1).Dot(edge) / lengthSquared
			if t <= 0 || t >= 1 {
				continue
			}
			onEdge := v1.Add(edge.Mul(t))
			toEdge := onEdge.Sub(center)
			if toEdge.LenSqr() < radiusSquared {
				return contact(vmath.SafeNormalize(toEdge), onEdge)
			}
		}
	}

	if !hull.PointIsInside(center) {
		return false
	}

	best, bestDist := -1, math.Inf(-1)
	for i, face := range hull.Faces {
		dist := hull.FaceNormals[i].Dot(center.Sub(hull.Vertices[face[0]]))
		if dist > bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return false
	}
	faceNormal := hull.FaceNormals[best]

	return contact(faceNormal.Mul(-1), center.Sub(faceNormal.Mul(bestDist)))
}

// pointInPolygon reports whether p, projected along normal, falls inside the face
func pointInPolygon(vertices []mgl64.Vec3, face []int, normal, p mgl64.Vec3) bool {
	positive := false
	for i := range face {
		v := vertices[face[i]]
		edge := vertices[face[(i+1)%len(face)]].Sub(v)
		side := edge.Cross(normal).Dot(p.Sub(v)) > 0

		if i == 0 {
			positive = side
		} else if side != positive {
			return false
		}
	}
	return true
}
